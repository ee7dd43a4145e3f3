package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vntravel/booking-backend/internal/models"
)

// ReviewRepository handles tour reviews. The one-review-per-booking
// rule is enforced by a unique index on booking_id, so concurrent
// submissions cannot slip a duplicate past the eligibility check.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review for a booking
func (r *ReviewRepository) Create(review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}

	query := `
		INSERT INTO reviews (id, booking_id, tour_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRow(query,
		review.ID, review.BookingID, review.TourID, review.UserID,
		review.Rating, review.Comment,
	).Scan(&review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrAlreadyReviewed
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ExistsForBooking reports whether the booking already has a review
func (r *ReviewRepository) ExistsForBooking(bookingID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1)`, bookingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return exists, nil
}

// ListByTour retrieves a tour's reviews, newest first
func (r *ReviewRepository) ListByTour(tourID string) ([]models.Review, error) {
	query := `
		SELECT id, booking_id, tour_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE tour_id = $1
		ORDER BY created_at DESC
	`

	reviews := []models.Review{}
	if err := r.db.Select(&reviews, query, tourID); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// ListAll retrieves all reviews with their tour names, newest first
func (r *ReviewRepository) ListAll() ([]models.Review, error) {
	query := `
		SELECT r.id, r.booking_id, r.tour_id, r.user_id, r.rating, r.comment, r.created_at,
			   t.name AS tour_name
		FROM reviews r
		JOIN tours t ON t.id = r.tour_id
		ORDER BY r.created_at DESC
	`

	reviews := []models.Review{}
	if err := r.db.Select(&reviews, query); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// Delete removes a review
func (r *ReviewRepository) Delete(reviewID string) error {
	result, err := r.db.Exec(`DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrReviewNotFound
	}

	return nil
}
