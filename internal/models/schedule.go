package models

import (
	"errors"
	"time"
)

// Schedule is a dated departure of a tour with its own seat inventory
// and an optional price override. AvailableSeats is owned by the
// inventory manager and only moves through reserve/release.
type Schedule struct {
	ID             string     `json:"id" db:"id"`
	TourID         string     `json:"tour_id" db:"tour_id"`
	DepartureDate  time.Time  `json:"departure_date" db:"departure_date"`
	ReturnDate     time.Time  `json:"return_date" db:"return_date"`
	Price          *float64   `json:"price,omitempty" db:"price"`
	AvailableSeats int        `json:"available_seats" db:"available_seats"`
	TotalSeats     int        `json:"total_seats" db:"total_seats"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`

	// Populated on detail reads only.
	Tour *Tour `json:"tour,omitempty" db:"-"`
}

// EffectivePrice resolves the per-adult price: the schedule override
// when present, otherwise the tour's base price.
func (s *Schedule) EffectivePrice(tour *Tour) float64 {
	if s != nil && s.Price != nil {
		return *s.Price
	}
	return tour.Price
}

// CreateScheduleRequest is the admin payload for adding a departure.
type CreateScheduleRequest struct {
	DepartureDate time.Time `json:"departure_date" binding:"required"`
	ReturnDate    time.Time `json:"return_date" binding:"required"`
	Price         *float64  `json:"price,omitempty"`
	TotalSeats    int       `json:"total_seats" binding:"required,min=1"`
}

// Validate checks the schedule creation payload.
func (r *CreateScheduleRequest) Validate() error {
	if r.TotalSeats < 1 {
		return errors.New("total_seats must be at least 1")
	}
	if !r.ReturnDate.After(r.DepartureDate) {
		return errors.New("return_date must be after departure_date")
	}
	if r.Price != nil && *r.Price < 0 {
		return errors.New("price cannot be negative")
	}
	return nil
}
