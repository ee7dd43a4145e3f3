package services

import (
	"github.com/vntravel/booking-backend/internal/models"
)

// childPriceRatio is the fraction of the adult price charged per child.
const childPriceRatio = 0.7

// PriceQuote breaks a booking total down for display and persistence.
type PriceQuote struct {
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}

// Subtotal computes the pre-discount price of a party. Children are
// charged at 70% of the adult price.
func Subtotal(unitPrice float64, adults, children int) float64 {
	return float64(adults)*unitPrice + float64(children)*unitPrice*childPriceRatio
}

// Quote prices a party against a voucher. A nil voucher means no
// discount. The total never goes below zero, so an oversized fixed
// discount makes the booking free rather than negative.
func Quote(unitPrice float64, adults, children int, voucher *models.Voucher) PriceQuote {
	subtotal := Subtotal(unitPrice, adults, children)

	var discount float64
	if voucher != nil {
		discount = voucher.Discount(subtotal)
		if discount > subtotal {
			discount = subtotal
		}
	}

	return PriceQuote{
		UnitPrice: unitPrice,
		Subtotal:  subtotal,
		Discount:  discount,
		Total:     subtotal - discount,
	}
}
