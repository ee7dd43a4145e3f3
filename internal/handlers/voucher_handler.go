package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vntravel/booking-backend/internal/services"
)

// VoucherHandler serves the public voucher preview endpoint
type VoucherHandler struct {
	bookingService *services.BookingService
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(bookingService *services.BookingService) *VoucherHandler {
	return &VoucherHandler{bookingService: bookingService}
}

// validateVoucherRequest is the voucher preview payload
type validateVoucherRequest struct {
	Code string `json:"code" binding:"required"`
}

// ValidateVoucher previews a voucher without consuming a use
// @Summary Validate a voucher code
// @Description Reports whether the code is currently redeemable. Never consumes a use.
// @Tags Vouchers
// @Accept json
// @Produce json
// @Param request body validateVoucherRequest true "Voucher code"
// @Success 200 {object} models.VoucherPreview
// @Router /api/v1/vouchers/validate [post]
func (h *VoucherHandler) ValidateVoucher(c *gin.Context) {
	var req validateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	preview, err := h.bookingService.PreviewVoucher(req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}
