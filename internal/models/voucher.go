package models

import (
	"errors"
	"strings"
	"time"
)

// DiscountType represents how a voucher's value is applied.
type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

// Voucher is a discount code with optional expiry and usage cap.
// UsedCount only ever increases, once per successful redemption.
type Voucher struct {
	ID          string       `json:"id" db:"id"`
	Code        string       `json:"code" db:"code"`
	Type        DiscountType `json:"discount_type" db:"discount_type"`
	Value       float64      `json:"value" db:"value"`
	MaxDiscount *float64     `json:"max_discount,omitempty" db:"max_discount"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty" db:"expires_at"`
	UsageLimit  *int         `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount   int          `json:"used_count" db:"used_count"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// NormalizeVoucherCode canonicalizes a code for case-insensitive matching.
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validity reports why the voucher cannot currently be redeemed, in the
// fixed check order: active, expiry, usage limit. A nil error means the
// voucher is redeemable right now (subject to races, which the atomic
// redeem re-checks).
func (v *Voucher) Validity(now time.Time) error {
	if !v.IsActive {
		return ErrVoucherInactive
	}
	if v.ExpiresAt != nil && v.ExpiresAt.Before(now) {
		return ErrVoucherExpired
	}
	if v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit {
		return ErrVoucherExhausted
	}
	return nil
}

// Discount computes the discount amount for a subtotal. PERCENT values
// are capped at MaxDiscount when set; FIXED values are returned as-is
// (the pricing floor at zero handles oversized fixed discounts).
func (v *Voucher) Discount(subtotal float64) float64 {
	switch v.Type {
	case DiscountPercent:
		amount := subtotal * v.Value / 100
		if v.MaxDiscount != nil && amount > *v.MaxDiscount {
			amount = *v.MaxDiscount
		}
		return amount
	case DiscountFixed:
		return v.Value
	}
	return 0
}

// VoucherPreview is the non-mutating validation response. It never
// exposes usage counters to the caller.
type VoucherPreview struct {
	Valid   bool            `json:"valid"`
	Voucher *VoucherSummary `json:"voucher,omitempty"`
}

// VoucherSummary is the subset of voucher fields a client needs to
// preview a discount.
type VoucherSummary struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Type        DiscountType `json:"discount_type"`
	Value       float64      `json:"value"`
	MaxDiscount *float64     `json:"max_discount,omitempty"`
}

// Summary returns the preview view of the voucher.
func (v *Voucher) Summary() *VoucherSummary {
	return &VoucherSummary{
		ID:          v.ID,
		Code:        v.Code,
		Type:        v.Type,
		Value:       v.Value,
		MaxDiscount: v.MaxDiscount,
	}
}

// CreateVoucherRequest is the admin payload for creating a voucher.
type CreateVoucherRequest struct {
	Code        string       `json:"code" binding:"required"`
	Type        DiscountType `json:"discount_type" binding:"required"`
	Value       float64      `json:"value" binding:"required"`
	MaxDiscount *float64     `json:"max_discount,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	UsageLimit  *int         `json:"usage_limit,omitempty"`
}

// Validate checks the voucher creation payload.
func (r *CreateVoucherRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return errors.New("code is required")
	}
	if r.Type != DiscountPercent && r.Type != DiscountFixed {
		return errors.New("discount_type must be PERCENT or FIXED")
	}
	if r.Value <= 0 {
		return errors.New("value must be positive")
	}
	if r.Type == DiscountPercent && r.Value > 100 {
		return errors.New("percent value cannot exceed 100")
	}
	if r.UsageLimit != nil && *r.UsageLimit < 1 {
		return errors.New("usage_limit must be at least 1")
	}
	return nil
}
