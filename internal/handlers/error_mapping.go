package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vntravel/booking-backend/internal/models"
)

// errorStatus maps domain errors to HTTP status codes. Validation
// failures are 400, missing resources 404, state conflicts 409.
var errorStatus = map[error]int{
	models.ErrInvalidParty:     http.StatusBadRequest,
	models.ErrMissingContact:   http.StatusBadRequest,
	models.ErrScheduleRequired: http.StatusBadRequest,
	models.ErrScheduleMismatch: http.StatusBadRequest,
	models.ErrInvalidStatus:    http.StatusBadRequest,
	models.ErrInvalidRating:    http.StatusBadRequest,

	models.ErrTourNotFound:     http.StatusNotFound,
	models.ErrScheduleNotFound: http.StatusNotFound,
	models.ErrVoucherNotFound:  http.StatusNotFound,
	models.ErrBookingNotFound:  http.StatusNotFound,
	models.ErrReviewNotFound:   http.StatusNotFound,

	models.ErrForbidden: http.StatusForbidden,

	models.ErrInsufficientSeats: http.StatusConflict,
	models.ErrVoucherInactive:   http.StatusConflict,
	models.ErrVoucherExpired:    http.StatusConflict,
	models.ErrVoucherExhausted:  http.StatusConflict,
	models.ErrInvalidTransition: http.StatusConflict,
	models.ErrAlreadyReviewed:   http.StatusConflict,
	models.ErrNotEligible:       http.StatusConflict,
	models.ErrScheduleInUse:     http.StatusConflict,
	models.ErrVoucherCodeTaken:  http.StatusConflict,
	models.ErrConflict:          http.StatusConflict,
	models.ErrDuplicateRequest:  http.StatusConflict,
}

// respondError writes the HTTP response for a domain error. Unknown
// errors become an opaque 500.
func respondError(c *gin.Context, err error) {
	for sentinel, status := range errorStatus {
		if errors.Is(err, sentinel) {
			c.JSON(status, gin.H{"error": sentinel.Error()})
			return
		}
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
