package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vntravel/booking-backend/internal/database"
	"github.com/vntravel/booking-backend/internal/models"
	"github.com/vntravel/booking-backend/internal/services"
)

// AdminHandler handles the management endpoints: booking oversight,
// departure schedules, vouchers and review moderation.
type AdminHandler struct {
	bookingService *services.BookingService
	reviewService  *services.ReviewService
	tourRepo       *database.TourRepository
	scheduleRepo   *database.ScheduleRepository
	voucherRepo    *database.VoucherRepository
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	bookingService *services.BookingService,
	reviewService *services.ReviewService,
	tourRepo *database.TourRepository,
	scheduleRepo *database.ScheduleRepository,
	voucherRepo *database.VoucherRepository,
) *AdminHandler {
	return &AdminHandler{
		bookingService: bookingService,
		reviewService:  reviewService,
		tourRepo:       tourRepo,
		scheduleRepo:   scheduleRepo,
		voucherRepo:    voucherRepo,
	}
}

// ListBookings returns all bookings, optionally filtered by status
// @Summary List all bookings
// @Tags Admin
// @Produce json
// @Param status query string false "Filter by status (PENDING, CONFIRMED, CANCELLED)"
// @Success 200 {array} models.Booking
// @Security BearerAuth
// @Router /api/v1/admin/bookings [get]
func (h *AdminHandler) ListBookings(c *gin.Context) {
	var status *models.BookingStatus
	if raw := c.Query("status"); raw != "" {
		s := models.BookingStatus(raw)
		status = &s
	}

	bookings, err := h.bookingService.ListAllBookings(status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// CancelBooking cancels any booking and releases its seats
// @Summary Cancel a booking (admin)
// @Description Cancelling an already-cancelled booking is a no-op
// @Tags Admin
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Security BearerAuth
// @Router /api/v1/admin/bookings/{id}/cancel [post]
func (h *AdminHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.CancelBooking(c.Param("id"), "", true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// SetBookingStatus overrides a booking's status
// @Summary Override a booking status
// @Description Bypasses the lifecycle rules. Seats are released on cancellation only.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.SetStatusRequest true "New status"
// @Success 200 {object} models.Booking
// @Security BearerAuth
// @Router /api/v1/admin/bookings/{id}/status [patch]
func (h *AdminHandler) SetBookingStatus(c *gin.Context) {
	var req models.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookingService.SetBookingStatus(c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// CreateSchedule adds a departure to a tour
// @Summary Create a tour departure
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param request body models.CreateScheduleRequest true "Schedule"
// @Success 201 {object} models.Schedule
// @Security BearerAuth
// @Router /api/v1/admin/tours/{id}/schedules [post]
func (h *AdminHandler) CreateSchedule(c *gin.Context) {
	tour, err := h.tourRepo.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	schedule := &models.Schedule{
		TourID:        tour.ID,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Price:         req.Price,
		TotalSeats:    req.TotalSeats,
	}
	if err := h.scheduleRepo.Create(schedule); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"schedule": schedule})
}

// DeleteSchedule removes a departure
// @Summary Delete a tour departure
// @Description Rejected while non-cancelled bookings reference the schedule
// @Tags Admin
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Schedule has active bookings"
// @Security BearerAuth
// @Router /api/v1/admin/schedules/{id} [delete]
func (h *AdminHandler) DeleteSchedule(c *gin.Context) {
	if err := h.scheduleRepo.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted"})
}

// CreateVoucher creates a discount voucher
// @Summary Create a voucher
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body models.CreateVoucherRequest true "Voucher"
// @Success 201 {object} models.Voucher
// @Failure 409 {object} map[string]interface{} "Code already exists"
// @Security BearerAuth
// @Router /api/v1/admin/vouchers [post]
func (h *AdminHandler) CreateVoucher(c *gin.Context) {
	var req models.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voucher := &models.Voucher{
		Code:        req.Code,
		Type:        req.Type,
		Value:       req.Value,
		MaxDiscount: req.MaxDiscount,
		ExpiresAt:   req.ExpiresAt,
		UsageLimit:  req.UsageLimit,
	}
	if err := h.voucherRepo.Create(voucher); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"voucher": voucher})
}

// ListVouchers returns all vouchers with their usage counters
// @Summary List all vouchers
// @Tags Admin
// @Produce json
// @Success 200 {array} models.Voucher
// @Security BearerAuth
// @Router /api/v1/admin/vouchers [get]
func (h *AdminHandler) ListVouchers(c *gin.Context) {
	vouchers, err := h.voucherRepo.List()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}

// setVoucherActiveRequest toggles a voucher
type setVoucherActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetVoucherActive enables or disables a voucher
// @Summary Enable or disable a voucher
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Voucher ID"
// @Param request body setVoucherActiveRequest true "Active flag"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/admin/vouchers/{id}/active [patch]
func (h *AdminHandler) SetVoucherActive(c *gin.Context) {
	var req setVoucherActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.voucherRepo.SetActive(c.Param("id"), *req.IsActive); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Voucher updated"})
}

// DeleteVoucher removes a voucher
// @Summary Delete a voucher
// @Tags Admin
// @Produce json
// @Param id path string true "Voucher ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/admin/vouchers/{id} [delete]
func (h *AdminHandler) DeleteVoucher(c *gin.Context) {
	if err := h.voucherRepo.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Voucher deleted"})
}

// ListReviews returns every review
// @Summary List all reviews
// @Tags Admin
// @Produce json
// @Success 200 {array} models.Review
// @Security BearerAuth
// @Router /api/v1/admin/reviews [get]
func (h *AdminHandler) ListReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListAllReviews()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// DeleteReview removes a review
// @Summary Delete a review
// @Tags Admin
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/admin/reviews/{id} [delete]
func (h *AdminHandler) DeleteReview(c *gin.Context) {
	if err := h.reviewService.DeleteReview(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}
