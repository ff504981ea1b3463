package handler

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tripxl/service-booking/internal/application"
	"github.com/tripxl/service-booking/internal/platform/auth"
	"github.com/tripxl/service-booking/internal/platform/domain"
	"github.com/tripxl/service-booking/internal/platform/middleware"
	"github.com/tripxl/service-booking/internal/platform/response"
)

// BookingUseCases is the booking workflow served over HTTP.
// *application.BookingService implements it.
type BookingUseCases interface {
	CreateBooking(ctx context.Context, requesterID uuid.UUID, req application.CreateBookingRequest) (*application.BookingDTO, error)
	ApproveBooking(ctx context.Context, bookingID, approverID uuid.UUID, req application.ApproveBookingRequest) (*application.BookingDTO, error)
	RejectBooking(ctx context.Context, bookingID, approverID uuid.UUID, reason string) (*application.BookingDTO, error)
	StartTrip(ctx context.Context, bookingID, driverID uuid.UUID) (*application.BookingDTO, error)
	CompleteTrip(ctx context.Context, bookingID, driverID uuid.UUID) (*application.BookingDTO, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID, role, reason string) (*application.BookingDTO, error)
	RerouteBooking(ctx context.Context, bookingID, userID uuid.UUID, role string, req application.RerouteBookingRequest) (*application.BookingDTO, error)
	GetBooking(ctx context.Context, bookingID, userID uuid.UUID, role string) (*application.BookingDTO, error)
	ListBookings(ctx context.Context, userID uuid.UUID, role, status string, page, limit int) (*domain.PaginatedResult[application.BookingDTO], error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingUseCases
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingUseCases) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleEmployee), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/approve", middleware.RequireRole(auth.RoleApprover), h.ApproveBooking)
		bookings.POST("/:id/reject", middleware.RequireRole(auth.RoleApprover), h.RejectBooking)
		bookings.POST("/:id/start", middleware.RequireRole(auth.RoleDriver), h.StartTrip)
		bookings.POST("/:id/complete", middleware.RequireRole(auth.RoleDriver), h.CompleteTrip)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/reroute", middleware.RequireRole(auth.RoleEmployee), h.RerouteBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Employees see their own bookings,
// drivers their assigned trips and approvers every booking (?status= filters).
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListBookings(c.Request.Context(), userID, role, c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	userID, role, ok := caller(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ApproveBooking handles POST /api/v1/bookings/:id/approve. The body is optional.
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	approverID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.ApproveBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ApproveBooking(c.Request.Context(), bookingID, approverID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectBooking handles POST /api/v1/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	approverID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"required,max=500"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "a rejection reason is required")
		return
	}

	result, err := h.service.RejectBooking(c.Request.Context(), bookingID, approverID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// StartTrip handles POST /api/v1/bookings/:id/start.
func (h *BookingHandler) StartTrip(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	driverID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.StartTrip(c.Request.Context(), bookingID, driverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteTrip handles POST /api/v1/bookings/:id/complete.
func (h *BookingHandler) CompleteTrip(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	driverID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.CompleteTrip(c.Request.Context(), bookingID, driverID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	userID, role, ok := caller(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, userID, role, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RerouteBooking handles POST /api/v1/bookings/:id/reroute.
func (h *BookingHandler) RerouteBooking(c *gin.Context) {
	bookingID, ok := bookingIDParam(c)
	if !ok {
		return
	}
	userID, role, ok := caller(c)
	if !ok {
		return
	}

	var req application.RerouteBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RerouteBooking(c.Request.Context(), bookingID, userID, role, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// caller returns the authenticated user and role, writing a 401 if either is missing.
func caller(c *gin.Context) (uuid.UUID, string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, "", false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, "", false
	}
	return userID, role, true
}

func bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
