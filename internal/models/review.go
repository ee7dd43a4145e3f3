package models

import "time"

// Review is a customer's rating of a completed booking. At most one
// review exists per booking, enforced by a unique constraint.
type Review struct {
	ID        string    `json:"id" db:"id"`
	BookingID string    `json:"booking_id" db:"booking_id"`
	TourID    string    `json:"tour_id" db:"tour_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Populated on admin listings.
	TourName *string `json:"tour_name,omitempty" db:"tour_name"`
}

// SubmitReviewRequest is the payload for reviewing a booking.
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

// Validate checks the review payload.
func (r *SubmitReviewRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}
