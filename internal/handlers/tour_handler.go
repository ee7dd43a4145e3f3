package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vntravel/booking-backend/internal/database"
	"github.com/vntravel/booking-backend/internal/services"
)

// TourHandler serves the public tour catalog and its departures
type TourHandler struct {
	tourRepo      *database.TourRepository
	scheduleRepo  *database.ScheduleRepository
	reviewService *services.ReviewService
}

// NewTourHandler creates a new TourHandler
func NewTourHandler(
	tourRepo *database.TourRepository,
	scheduleRepo *database.ScheduleRepository,
	reviewService *services.ReviewService,
) *TourHandler {
	return &TourHandler{
		tourRepo:      tourRepo,
		scheduleRepo:  scheduleRepo,
		reviewService: reviewService,
	}
}

// ListTours returns the tour catalog
// @Summary List all tours
// @Tags Tours
// @Produce json
// @Success 200 {array} models.Tour
// @Router /api/v1/tours [get]
func (h *TourHandler) ListTours(c *gin.Context) {
	tours, err := h.tourRepo.List()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tours": tours})
}

// GetTour returns one tour
// @Summary Get a tour by ID
// @Tags Tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} models.Tour
// @Failure 404 {object} map[string]interface{} "Tour not found"
// @Router /api/v1/tours/{id} [get]
func (h *TourHandler) GetTour(c *gin.Context) {
	tour, err := h.tourRepo.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tour": tour})
}

// ListTourSchedules returns a tour's upcoming departures
// @Summary List upcoming departures of a tour
// @Tags Tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {array} models.Schedule
// @Failure 404 {object} map[string]interface{} "Tour not found"
// @Router /api/v1/tours/{id}/schedules [get]
func (h *TourHandler) ListTourSchedules(c *gin.Context) {
	tourID := c.Param("id")

	// 404 on unknown tour rather than an empty list.
	if _, err := h.tourRepo.GetByID(tourID); err != nil {
		respondError(c, err)
		return
	}

	schedules, err := h.scheduleRepo.ListByTour(tourID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// GetSchedule returns one departure with its tour and seat availability
// @Summary Get a departure by ID
// @Tags Tours
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} models.Schedule
// @Failure 404 {object} map[string]interface{} "Schedule not found"
// @Router /api/v1/schedules/{id} [get]
func (h *TourHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.scheduleRepo.GetByIDWithTour(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// ListTourReviews returns a tour's reviews
// @Summary List reviews of a tour
// @Tags Tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {array} models.Review
// @Router /api/v1/tours/{id}/reviews [get]
func (h *TourHandler) ListTourReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListTourReviews(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
