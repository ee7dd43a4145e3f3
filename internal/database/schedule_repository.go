package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vntravel/booking-backend/internal/models"
)

// ScheduleRepository owns the per-departure seat inventory. All seat
// count changes go through Reserve/Release, which are implemented as
// single conditional UPDATEs so concurrent reservations on the same
// schedule can never oversell.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a new departure schedule. AvailableSeats starts at
// the full capacity.
func (r *ScheduleRepository) Create(schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	schedule.AvailableSeats = schedule.TotalSeats

	query := `
		INSERT INTO tour_schedules (
			id, tour_id, departure_date, return_date, price,
			available_seats, total_seats
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRow(query,
		schedule.ID, schedule.TourID, schedule.DepartureDate, schedule.ReturnDate,
		schedule.Price, schedule.AvailableSeats, schedule.TotalSeats,
	).Scan(&schedule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	return nil
}

// GetByID retrieves a schedule by ID
func (r *ScheduleRepository) GetByID(scheduleID string) (*models.Schedule, error) {
	query := `
		SELECT id, tour_id, departure_date, return_date, price,
			   available_seats, total_seats, created_at
		FROM tour_schedules
		WHERE id = $1
	`

	return r.scanSchedule(r.db.QueryRow(query, scheduleID))
}

// GetByIDWithTour retrieves a schedule together with its tour record
func (r *ScheduleRepository) GetByIDWithTour(scheduleID string) (*models.Schedule, error) {
	query := `
		SELECT s.id, s.tour_id, s.departure_date, s.return_date, s.price,
			   s.available_seats, s.total_seats, s.created_at,
			   t.id, t.name, t.price, t.duration, t.created_at
		FROM tour_schedules s
		JOIN tours t ON t.id = s.tour_id
		WHERE s.id = $1
	`

	schedule := &models.Schedule{}
	tour := &models.Tour{}
	var price sql.NullFloat64
	err := r.db.QueryRow(query, scheduleID).Scan(
		&schedule.ID, &schedule.TourID, &schedule.DepartureDate, &schedule.ReturnDate, &price,
		&schedule.AvailableSeats, &schedule.TotalSeats, &schedule.CreatedAt,
		&tour.ID, &tour.Name, &tour.Price, &tour.Duration, &tour.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}
	if price.Valid {
		schedule.Price = &price.Float64
	}
	schedule.Tour = tour

	return schedule, nil
}

// ListByTour retrieves the upcoming schedules of a tour, soonest first
func (r *ScheduleRepository) ListByTour(tourID string) ([]models.Schedule, error) {
	query := `
		SELECT id, tour_id, departure_date, return_date, price,
			   available_seats, total_seats, created_at
		FROM tour_schedules
		WHERE tour_id = $1
		  AND departure_date >= NOW()
		ORDER BY departure_date
	`

	rows, err := r.db.Query(query, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	schedules := []models.Schedule{}
	for rows.Next() {
		var schedule models.Schedule
		var price sql.NullFloat64
		err := rows.Scan(
			&schedule.ID, &schedule.TourID, &schedule.DepartureDate, &schedule.ReturnDate, &price,
			&schedule.AvailableSeats, &schedule.TotalSeats, &schedule.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if price.Valid {
			schedule.Price = &price.Float64
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

// TourHasSchedules reports whether a tour has any departures at all.
// Tours without schedules bypass inventory entirely.
func (r *ScheduleRepository) TourHasSchedules(tourID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM tour_schedules WHERE tour_id = $1)`
	if err := r.db.QueryRow(query, tourID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check schedules: %w", err)
	}
	return exists, nil
}

// Reserve atomically claims partySize seats on a schedule. The
// compare-and-decrement happens in a single UPDATE: it only matches
// when enough seats remain, so two racing reservations for the last
// seats can never both succeed.
func (r *ScheduleRepository) Reserve(scheduleID string, partySize int) error {
	return r.reserve(r.db, scheduleID, partySize)
}

// ReserveTx is Reserve inside a caller-owned transaction
func (r *ScheduleRepository) ReserveTx(tx *sqlx.Tx, scheduleID string, partySize int) error {
	return r.reserve(tx, scheduleID, partySize)
}

func (r *ScheduleRepository) reserve(ext sqlx.Ext, scheduleID string, partySize int) error {
	if partySize < 1 {
		return models.ErrInvalidParty
	}

	result, err := ext.Exec(`
		UPDATE tour_schedules
		SET available_seats = available_seats - $2
		WHERE id = $1
		  AND available_seats >= $2
	`, scheduleID, partySize)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Distinguish a missing schedule from one that is full.
		var available int
		err := ext.QueryRowx(`SELECT available_seats FROM tour_schedules WHERE id = $1`, scheduleID).Scan(&available)
		if err == sql.ErrNoRows {
			return models.ErrScheduleNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check schedule: %w", err)
		}
		return models.ErrInsufficientSeats
	}

	return nil
}

// Release returns partySize seats to a schedule after a cancellation.
// The count is capped at the schedule's original capacity.
func (r *ScheduleRepository) Release(scheduleID string, partySize int) error {
	return r.release(r.db, scheduleID, partySize)
}

// ReleaseTx is Release inside a caller-owned transaction
func (r *ScheduleRepository) ReleaseTx(tx *sqlx.Tx, scheduleID string, partySize int) error {
	return r.release(tx, scheduleID, partySize)
}

func (r *ScheduleRepository) release(ext sqlx.Ext, scheduleID string, partySize int) error {
	result, err := ext.Exec(`
		UPDATE tour_schedules
		SET available_seats = LEAST(available_seats + $2, total_seats)
		WHERE id = $1
	`, scheduleID, partySize)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrScheduleNotFound
	}

	return nil
}

// Delete removes a schedule. Deletion is rejected while any
// non-cancelled booking still references it.
func (r *ScheduleRepository) Delete(scheduleID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var activeBookings int
	err = tx.QueryRow(`
		SELECT COUNT(*)
		FROM bookings
		WHERE schedule_id = $1
		  AND status != 'CANCELLED'
	`, scheduleID).Scan(&activeBookings)
	if err != nil {
		return fmt.Errorf("failed to check bookings: %w", err)
	}
	if activeBookings > 0 {
		return models.ErrScheduleInUse
	}

	result, err := tx.Exec(`DELETE FROM tour_schedules WHERE id = $1`, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrScheduleNotFound
	}

	return tx.Commit()
}

// scanSchedule scans a single schedule row
func (r *ScheduleRepository) scanSchedule(row scanner) (*models.Schedule, error) {
	schedule := &models.Schedule{}
	var price sql.NullFloat64
	var createdAt time.Time

	err := row.Scan(
		&schedule.ID, &schedule.TourID, &schedule.DepartureDate, &schedule.ReturnDate, &price,
		&schedule.AvailableSeats, &schedule.TotalSeats, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	if price.Valid {
		schedule.Price = &price.Float64
	}
	schedule.CreatedAt = createdAt

	return schedule, nil
}
