package database

import (
	"database/sql"
	"fmt"

	"github.com/vntravel/booking-backend/internal/models"
)

// TourRepository handles read access to the tours catalog. The booking
// core never mutates tours.
type TourRepository struct {
	db DB
}

// NewTourRepository creates a new TourRepository
func NewTourRepository(db DB) *TourRepository {
	return &TourRepository{db: db}
}

// GetByID retrieves a tour by ID
func (r *TourRepository) GetByID(tourID string) (*models.Tour, error) {
	query := `
		SELECT id, name, price, duration, created_at
		FROM tours
		WHERE id = $1
	`

	tour := &models.Tour{}
	err := r.db.QueryRow(query, tourID).Scan(
		&tour.ID, &tour.Name, &tour.Price, &tour.Duration, &tour.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrTourNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tour: %w", err)
	}

	return tour, nil
}

// List retrieves all tours ordered by name
func (r *TourRepository) List() ([]models.Tour, error) {
	query := `
		SELECT id, name, price, duration, created_at
		FROM tours
		ORDER BY name
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	defer rows.Close()

	tours := []models.Tour{}
	for rows.Next() {
		var tour models.Tour
		if err := rows.Scan(&tour.ID, &tour.Name, &tour.Price, &tour.Duration, &tour.CreatedAt); err != nil {
			return nil, err
		}
		tours = append(tours, tour)
	}

	return tours, rows.Err()
}
