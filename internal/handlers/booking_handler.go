package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vntravel/booking-backend/internal/cache"
	"github.com/vntravel/booking-backend/internal/middleware"
	"github.com/vntravel/booking-backend/internal/models"
	"github.com/vntravel/booking-backend/internal/services"
	"github.com/vntravel/booking-backend/internal/utils"
)

// idempotencyHeader carries the client's dedup key for booking creation
const idempotencyHeader = "Idempotency-Key"

// BookingHandler handles customer booking operations
type BookingHandler struct {
	bookingService *services.BookingService
	reviewService  *services.ReviewService
	idempotency    *cache.IdempotencyStore
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler. The idempotency
// store is optional; pass nil to disable the duplicate-submit guard.
func NewBookingHandler(
	bookingService *services.BookingService,
	reviewService *services.ReviewService,
	idempotency *cache.IdempotencyStore,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		reviewService:  reviewService,
		idempotency:    idempotency,
		logger:         logger,
	}
}

// CreateBooking creates a new tour booking
// @Summary Create a new booking
// @Description Reserve seats on a tour departure, optionally redeeming a voucher
// @Tags Bookings
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client dedup key"
// @Param request body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} models.Booking "Booking created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 409 {object} map[string]interface{} "Seats or voucher unavailable"
// @Security BearerAuth
// @Router /api/v1/bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	idemKey := c.GetHeader(idempotencyHeader)
	if h.idempotency != nil && idemKey != "" {
		acquired, bookingID, err := h.idempotency.Claim(c.Request.Context(), userCtx.UserID, idemKey)
		if err != nil {
			h.logger.WithField("error", err.Error()).Warn("Idempotency check failed, proceeding without guard")
		} else if !acquired {
			if bookingID == "" {
				// First request still in flight.
				c.JSON(http.StatusConflict, gin.H{"error": models.ErrDuplicateRequest.Error()})
				return
			}
			booking, err := h.bookingService.GetBooking(bookingID, userCtx.UserID, userCtx.IsAdmin())
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"booking": booking, "duplicate": true})
			return
		}
	}

	device := utils.ParseUserAgent(c.GetHeader("User-Agent"))
	h.logger.WithFields(logrus.Fields{
		"user_id":     userCtx.UserID,
		"tour_id":     req.TourID,
		"device_type": device.DeviceType,
		"os":          device.OS,
		"browser":     device.Browser,
		"ip":          utils.ClientIP(c),
	}).Info("Booking request received")

	booking, err := h.bookingService.CreateBooking(userCtx.UserID, &req)
	if err != nil {
		if h.idempotency != nil && idemKey != "" {
			if relErr := h.idempotency.Release(c.Request.Context(), userCtx.UserID, idemKey); relErr != nil {
				h.logger.WithField("error", relErr.Error()).Warn("Failed to release idempotency key")
			}
		}
		respondError(c, err)
		return
	}

	if h.idempotency != nil && idemKey != "" {
		if err := h.idempotency.Complete(c.Request.Context(), userCtx.UserID, idemKey, booking.ID); err != nil {
			h.logger.WithField("error", err.Error()).Warn("Failed to record idempotency key")
		}
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// GetBooking returns a single booking
// @Summary Get a booking by ID
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} map[string]interface{} "Not the booking owner"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Security BearerAuth
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	booking, err := h.bookingService.GetBooking(c.Param("id"), userCtx.UserID, userCtx.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// ListMyBookings returns the caller's bookings
// @Summary List the caller's bookings
// @Tags Bookings
// @Produce json
// @Success 200 {array} models.Booking
// @Security BearerAuth
// @Router /api/v1/bookings [get]
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookings, err := h.bookingService.ListUserBookings(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// ConfirmBooking confirms a pending booking after payment
// @Summary Confirm a booking
// @Description Transitions PENDING to CONFIRMED. Only PENDING bookings can be confirmed.
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} map[string]interface{} "Not the booking owner"
// @Failure 409 {object} map[string]interface{} "Booking is cancelled"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/confirm [post]
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	booking, err := h.bookingService.ConfirmBooking(c.Param("id"), userCtx.UserID, userCtx.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// CancelBooking cancels a booking and releases its seats
// @Summary Cancel a booking
// @Description Cancelling an already-cancelled booking is a no-op
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} map[string]interface{} "Not the booking owner"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Param("id"), userCtx.UserID, userCtx.IsAdmin())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// SubmitReview reviews a completed booking
// @Summary Submit a review for a booking
// @Description Only the owner of a confirmed, departed booking may review it, once
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.SubmitReviewRequest true "Review"
// @Success 201 {object} models.Review
// @Failure 409 {object} map[string]interface{} "Not eligible or already reviewed"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/reviews [post]
func (h *BookingHandler) SubmitReview(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	review, err := h.reviewService.SubmitReview(userCtx.UserID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}
