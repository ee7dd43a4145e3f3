package models

import (
	"strings"
	"time"
)

// BookingStatus represents the lifecycle state of a booking.
// PENDING is the only non-terminal state.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// ValidBookingStatus reports whether s is one of the three known states.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking is a reservation of party-size seats on a tour departure.
// A booking with a schedule holds a seat claim from creation until
// cancellation.
type Booking struct {
	ID            string        `json:"id" db:"id"`
	UserID        string        `json:"user_id" db:"user_id"`
	TourID        string        `json:"tour_id" db:"tour_id"`
	ScheduleID    *string       `json:"schedule_id,omitempty" db:"schedule_id"`
	DepartureDate *time.Time    `json:"departure_date,omitempty" db:"departure_date"`
	CustomerName  string        `json:"customer_name" db:"customer_name"`
	CustomerEmail string        `json:"customer_email" db:"customer_email"`
	CustomerPhone string        `json:"customer_phone" db:"customer_phone"`
	AdultCount    int           `json:"adult_count" db:"adult_count"`
	ChildCount    int           `json:"child_count" db:"child_count"`
	TotalPrice    float64       `json:"total_price" db:"total_price"`
	VoucherCode   *string       `json:"voucher_code,omitempty" db:"voucher_code"`
	Status        BookingStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`

	// Populated on reads for display only.
	TourName *string `json:"tour_name,omitempty" db:"tour_name"`
}

// PartySize is the number of seats the booking claims.
func (b *Booking) PartySize() int {
	return b.AdultCount + b.ChildCount
}

// IsTerminal reports whether the lifecycle allows further transitions.
func (b *Booking) IsTerminal() bool {
	return b.Status != BookingStatusPending
}

// HoldsSeats reports whether the booking currently claims inventory.
func (b *Booking) HoldsSeats() bool {
	return b.ScheduleID != nil && b.Status != BookingStatusCancelled
}

// CreateBookingRequest is the payload for creating a booking.
type CreateBookingRequest struct {
	TourID        string  `json:"tour_id" binding:"required"`
	ScheduleID    *string `json:"schedule_id,omitempty"`
	CustomerName  string  `json:"customer_name" binding:"required"`
	CustomerEmail string  `json:"customer_email" binding:"required,email"`
	CustomerPhone string  `json:"customer_phone" binding:"required"`
	AdultCount    int     `json:"adult_count" binding:"required,min=1"`
	ChildCount    int     `json:"child_count" binding:"min=0"`
	VoucherCode   *string `json:"voucher_code,omitempty"`
}

// Validate checks the create booking request beyond what binding covers.
func (r *CreateBookingRequest) Validate() error {
	if r.AdultCount < 1 {
		return ErrInvalidParty
	}
	if r.ChildCount < 0 {
		return ErrInvalidParty
	}
	if strings.TrimSpace(r.CustomerName) == "" ||
		strings.TrimSpace(r.CustomerEmail) == "" ||
		strings.TrimSpace(r.CustomerPhone) == "" {
		return ErrMissingContact
	}
	return nil
}

// PartySize is the number of seats the request would claim.
func (r *CreateBookingRequest) PartySize() int {
	return r.AdultCount + r.ChildCount
}

// SetStatusRequest is the admin payload for overriding a booking status.
type SetStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}
