package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vntravel/booking-backend/internal/models"
)

// BookingRepository handles bookings and their compound creation
// transaction. Voucher redemption, seat reservation and the booking
// INSERT commit or roll back together; a failure at any step leaves
// no inventory or voucher usage behind.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, user_id, tour_id, schedule_id, departure_date,
	customer_name, customer_email, customer_phone,
	adult_count, child_count, total_price, voucher_code,
	status, created_at, updated_at
`

// CreateWithInventory creates a booking, redeeming the voucher and
// reserving schedule seats in the same transaction. The booking's
// TotalPrice must already be computed; voucherCode and scheduleID on
// the booking say what the transaction must claim.
func (r *BookingRepository) CreateWithInventory(
	booking *models.Booking,
	schedules *ScheduleRepository,
	vouchers *VoucherRepository,
	now time.Time,
) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if booking.VoucherCode != nil {
		if _, err := vouchers.RedeemTx(tx, *booking.VoucherCode, now); err != nil {
			return err
		}
	}

	if booking.ScheduleID != nil {
		if err := schedules.ReserveTx(tx, *booking.ScheduleID, booking.PartySize()); err != nil {
			return err
		}
	}

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	query := `
		INSERT INTO bookings (
			id, user_id, tour_id, schedule_id, departure_date,
			customer_name, customer_email, customer_phone,
			adult_count, child_count, total_price, voucher_code, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(query,
		booking.ID, booking.UserID, booking.TourID, booking.ScheduleID, booking.DepartureDate,
		booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.AdultCount, booking.ChildCount, booking.TotalPrice, booking.VoucherCode,
		booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return tx.Commit()
}

// GetByID retrieves a booking by ID with its tour name
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `
		SELECT b.id, b.user_id, b.tour_id, b.schedule_id, b.departure_date,
			   b.customer_name, b.customer_email, b.customer_phone,
			   b.adult_count, b.child_count, b.total_price, b.voucher_code,
			   b.status, b.created_at, b.updated_at,
			   t.name AS tour_name
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		WHERE b.id = $1
	`

	booking := &models.Booking{}
	err := r.db.Get(booking, query, bookingID)
	if err == sql.ErrNoRows {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// ListByUser retrieves a user's bookings, newest first
func (r *BookingRepository) ListByUser(userID string) ([]models.Booking, error) {
	query := `
		SELECT b.id, b.user_id, b.tour_id, b.schedule_id, b.departure_date,
			   b.customer_name, b.customer_email, b.customer_phone,
			   b.adult_count, b.child_count, b.total_price, b.voucher_code,
			   b.status, b.created_at, b.updated_at,
			   t.name AS tour_name
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

// ListAll retrieves all bookings, optionally filtered by status
func (r *BookingRepository) ListAll(status *models.BookingStatus) ([]models.Booking, error) {
	query := `
		SELECT b.id, b.user_id, b.tour_id, b.schedule_id, b.departure_date,
			   b.customer_name, b.customer_email, b.customer_phone,
			   b.adult_count, b.child_count, b.total_price, b.voucher_code,
			   b.status, b.created_at, b.updated_at,
			   t.name AS tour_name
		FROM bookings b
		JOIN tours t ON t.id = b.tour_id
	`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE b.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY b.created_at DESC`

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

// Confirm transitions a booking PENDING -> CONFIRMED. The transition
// is a conditional UPDATE so only one of several concurrent confirms
// can win; a zero-row result is classified by re-reading the booking.
func (r *BookingRepository) Confirm(bookingID string) (*models.Booking, error) {
	booking := &models.Booking{}
	err := r.db.Get(booking, `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		  AND status = $3
		RETURNING `+bookingColumns,
		bookingID, models.BookingStatusConfirmed, models.BookingStatusPending,
	)
	if err == nil {
		return booking, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}

	// Distinguish a missing booking from one that left PENDING.
	if _, err := r.GetByID(bookingID); err != nil {
		return nil, err
	}
	return nil, models.ErrInvalidTransition
}

// CancelAndRelease cancels a booking and returns its seats to the
// schedule in one transaction. Cancelling an already-cancelled booking
// is a no-op and never releases seats twice: the status UPDATE only
// matches non-cancelled rows, and seats are released only when the
// row actually transitioned.
func (r *BookingRepository) CancelAndRelease(bookingID string, schedules *ScheduleRepository) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking := &models.Booking{}
	err = tx.Get(booking, `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		  AND status != $2
		RETURNING `+bookingColumns,
		bookingID, models.BookingStatusCancelled,
	)
	if err == sql.ErrNoRows {
		// Either missing or already cancelled. No seats move.
		return r.GetByID(bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if booking.ScheduleID != nil {
		if err := schedules.ReleaseTx(tx, *booking.ScheduleID, booking.PartySize()); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return booking, nil
}

// SetStatusAndRelease force-sets a booking's status regardless of the
// normal lifecycle rules. Seats are released only on a transition into
// CANCELLED; a transition out of CANCELLED never re-reserves, the
// operator is trusted to check availability.
func (r *BookingRepository) SetStatusAndRelease(bookingID string, status models.BookingStatus, schedules *ScheduleRepository) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var previous models.BookingStatus
	err = tx.QueryRow(`SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, bookingID).Scan(&previous)
	if err == sql.ErrNoRows {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock booking: %w", err)
	}

	booking := &models.Booking{}
	err = tx.Get(booking, `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+bookingColumns,
		bookingID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	released := previous != models.BookingStatusCancelled && status == models.BookingStatusCancelled
	if released && booking.ScheduleID != nil {
		if err := schedules.ReleaseTx(tx, *booking.ScheduleID, booking.PartySize()); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return booking, nil
}

// GetForReview fetches the booking fields the review eligibility gate
// needs. Kept separate from GetByID to avoid the tour join.
func (r *BookingRepository) GetForReview(bookingID string) (*models.Booking, error) {
	booking := &models.Booking{}
	err := r.db.Get(booking, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, bookingID)
	if err == sql.ErrNoRows {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	return booking, nil
}

// CountActiveBySchedule counts non-cancelled bookings on a schedule
func (r *BookingRepository) CountActiveBySchedule(scheduleID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM bookings
		WHERE schedule_id = $1
		  AND status != $2
	`, scheduleID, models.BookingStatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}
