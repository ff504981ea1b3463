package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tripxl/service-booking/internal/application"
	"github.com/tripxl/service-booking/internal/platform/auth"
	"github.com/tripxl/service-booking/internal/platform/middleware"
	"github.com/tripxl/service-booking/internal/platform/response"
)

// RouteCalculation answers ad-hoc route requests.
type RouteCalculation interface {
	CalculateRoute(ctx context.Context, req application.CalculateRouteRequest) (*application.RouteDTO, error)
}

// RouteHandler exposes route calculation.
type RouteHandler struct {
	service RouteCalculation
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service RouteCalculation) *RouteHandler {
	return &RouteHandler{service: service}
}

// RegisterRoutes registers the route calculation endpoint.
func (h *RouteHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	routes := r.Group("/api/v1/routes")
	routes.Use(middleware.AuthMiddleware(jwtManager))
	routes.POST("/calculate", h.CalculateRoute)
}

// CalculateRoute handles POST /api/v1/routes/calculate. Provider failures are
// answered with an approximate route; only invalid input fails.
func (h *RouteHandler) CalculateRoute(c *gin.Context) {
	var req application.CalculateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CalculateRoute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
