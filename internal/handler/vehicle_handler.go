package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripxl/service-booking/internal/application"
	"github.com/tripxl/service-booking/internal/platform/auth"
	"github.com/tripxl/service-booking/internal/platform/domain"
	"github.com/tripxl/service-booking/internal/platform/middleware"
	"github.com/tripxl/service-booking/internal/platform/response"
)

// VehicleUseCases is fleet master data management.
type VehicleUseCases interface {
	CreateVehicle(ctx context.Context, req application.CreateVehicleRequest) (*application.VehicleDTO, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*application.VehicleDTO, error)
	ListVehicles(ctx context.Context, group string, page, limit int) (*domain.PaginatedResult[application.VehicleDTO], error)
	UpdateVehicle(ctx context.Context, id uuid.UUID, req application.UpdateVehicleRequest) (*application.VehicleDTO, error)
	ArchiveVehicle(ctx context.Context, id uuid.UUID) error
}

// VehicleHandler handles HTTP requests for fleet vehicles.
type VehicleHandler struct {
	service VehicleUseCases
}

func NewVehicleHandler(service VehicleUseCases) *VehicleHandler {
	return &VehicleHandler{service: service}
}

func (h *VehicleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	vehicles := r.Group("/api/v1/vehicles")
	vehicles.Use(middleware.AuthMiddleware(jwtManager))
	{
		vehicles.GET("", h.ListVehicles)
		vehicles.POST("", adminRole, h.CreateVehicle)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.PUT("/:id", adminRole, h.UpdateVehicle)
		vehicles.DELETE("/:id", adminRole, h.ArchiveVehicle)
	}
}

// ListVehicles handles GET /api/v1/vehicles?group=.
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.service.ListVehicles(c.Request.Context(), c.Query("group"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req application.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id, ok := vehicleIDParam(c)
	if !ok {
		return
	}
	result, err := h.service.GetVehicle(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	id, ok := vehicleIDParam(c)
	if !ok {
		return
	}
	var req application.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateVehicle(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ArchiveVehicle handles DELETE /api/v1/vehicles/:id. Vehicles are archived, not removed.
func (h *VehicleHandler) ArchiveVehicle(c *gin.Context) {
	id, ok := vehicleIDParam(c)
	if !ok {
		return
	}
	if err := h.service.ArchiveVehicle(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func vehicleIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return uuid.Nil, false
	}
	return id, true
}
