package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vntravel/booking-backend/internal/database"
	"github.com/vntravel/booking-backend/internal/models"
)

func newTestReviewService(t *testing.T) (*ReviewService, sqlmock.Sqlmock) {
	t.Helper()

	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })

	db := sqlx.NewDb(rawDB, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewReviewService(
		database.NewReviewRepository(db),
		database.NewBookingRepository(db),
		logger,
	)

	return svc, mock
}

var reviewBookingColumns = []string{
	"id", "user_id", "tour_id", "schedule_id", "departure_date",
	"customer_name", "customer_email", "customer_phone",
	"adult_count", "child_count", "total_price", "voucher_code",
	"status", "created_at", "updated_at",
}

func reviewableBookingRow(bookingID, userID, tourID string, status string, departure time.Time) *sqlmock.Rows {
	now := time.Now()
	scheduleID := uuid.New().String()
	return sqlmock.NewRows(reviewBookingColumns).AddRow(
		bookingID, userID, tourID, scheduleID, departure,
		"Nguyen Van A", "nguyenvana@example.com", "+84901234567",
		2, 0, 2000000.0, nil,
		status, now, now,
	)
}

func TestSubmitReview(t *testing.T) {
	req := &models.SubmitReviewRequest{Rating: 5, Comment: "Wonderful trip"}

	t.Run("Success", func(t *testing.T) {
		svc, mock := newTestReviewService(t)
		bookingID := uuid.New().String()
		userID := uuid.New().String()
		tourID := uuid.New().String()
		departed := time.Now().Add(-7 * 24 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WithArgs(bookingID).
			WillReturnRows(reviewableBookingRow(bookingID, userID, tourID, "CONFIRMED", departed))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`INSERT INTO reviews`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		review, err := svc.SubmitReview(userID, bookingID, req)
		require.NoError(t, err)
		assert.Equal(t, bookingID, review.BookingID)
		assert.Equal(t, tourID, review.TourID)
		assert.Equal(t, 5, review.Rating)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Owner", func(t *testing.T) {
		svc, mock := newTestReviewService(t)
		bookingID := uuid.New().String()
		departed := time.Now().Add(-7 * 24 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WithArgs(bookingID).
			WillReturnRows(reviewableBookingRow(bookingID, uuid.New().String(), uuid.New().String(), "CONFIRMED", departed))

		_, err := svc.SubmitReview(uuid.New().String(), bookingID, req)
		assert.ErrorIs(t, err, models.ErrForbidden)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Pending Booking Not Eligible", func(t *testing.T) {
		svc, mock := newTestReviewService(t)
		bookingID := uuid.New().String()
		userID := uuid.New().String()
		departed := time.Now().Add(-7 * 24 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WithArgs(bookingID).
			WillReturnRows(reviewableBookingRow(bookingID, userID, uuid.New().String(), "PENDING", departed))

		_, err := svc.SubmitReview(userID, bookingID, req)
		assert.ErrorIs(t, err, models.ErrNotEligible)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cancelled Booking Not Eligible", func(t *testing.T) {
		svc, mock := newTestReviewService(t)
		bookingID := uuid.New().String()
		userID := uuid.New().String()
		departed := time.Now().Add(-7 * 24 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WithArgs(bookingID).
			WillReturnRows(reviewableBookingRow(bookingID, userID, uuid.New().String(), "CANCELLED", departed))

		_, err := svc.SubmitReview(userID, bookingID, req)
		assert.ErrorIs(t, err, models.ErrNotEligible)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Reviewed", func(t *testing.T) {
		svc, mock := newTestReviewService(t)
		bookingID := uuid.New().String()
		userID := uuid.New().String()
		departed := time.Now().Add(-7 * 24 * time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM bookings`).
			WithArgs(bookingID).
			WillReturnRows(reviewableBookingRow(bookingID, userID, uuid.New().String(), "CONFIRMED", departed))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := svc.SubmitReview(userID, bookingID, req)
		assert.ErrorIs(t, err, models.ErrAlreadyReviewed)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Rating", func(t *testing.T) {
		svc, _ := newTestReviewService(t)

		_, err := svc.SubmitReview(uuid.New().String(), uuid.New().String(), &models.SubmitReviewRequest{Rating: 6})
		assert.ErrorIs(t, err, models.ErrInvalidRating)
	})
}
