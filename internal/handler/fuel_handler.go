package handler

import (
	"context"
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/tripxl/service-booking/internal/application"
	"github.com/tripxl/service-booking/internal/platform/auth"
	"github.com/tripxl/service-booking/internal/platform/middleware"
	"github.com/tripxl/service-booking/internal/platform/response"
)

// IngestKeyHeader carries the shared key of the fuel price scraper.
const IngestKeyHeader = "X-Ingest-Key"

// FuelPrices manages fuel prices.
type FuelPrices interface {
	UpdatePrices(ctx context.Context, req application.UpdateFuelPricesRequest) ([]application.FuelPriceDTO, error)
	ListPrices(ctx context.Context) ([]application.FuelPriceDTO, error)
}

// FuelHandler serves current fuel prices and accepts scraped price updates.
type FuelHandler struct {
	service   FuelPrices
	ingestKey string
}

// NewFuelHandler creates a new FuelHandler. An empty ingestKey leaves the
// update endpoint open.
func NewFuelHandler(service FuelPrices, ingestKey string) *FuelHandler {
	return &FuelHandler{service: service, ingestKey: ingestKey}
}

// RegisterRoutes registers the fuel price routes. The update endpoint is
// outside /api/v1 and authenticated by IngestKeyHeader instead of a JWT.
func (h *FuelHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.POST("/api/fuel-types/update", h.requireIngestKey, h.UpdatePrices)

	fuel := r.Group("/api/v1/fuel-types")
	fuel.Use(middleware.AuthMiddleware(jwtManager))
	fuel.GET("", h.ListPrices)
}

// UpdatePrices handles POST /api/fuel-types/update.
func (h *FuelHandler) UpdatePrices(c *gin.Context) {
	var req application.UpdateFuelPricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePrices(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListPrices handles GET /api/v1/fuel-types.
func (h *FuelHandler) ListPrices(c *gin.Context) {
	result, err := h.service.ListPrices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *FuelHandler) requireIngestKey(c *gin.Context) {
	if h.ingestKey == "" {
		c.Next()
		return
	}
	got := c.GetHeader(IngestKeyHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.ingestKey)) != 1 {
		response.Unauthorized(c, "invalid ingest key")
		return
	}
	c.Next()
}
