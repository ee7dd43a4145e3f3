package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vntravel/booking-backend/internal/config"
	"github.com/vntravel/booking-backend/internal/database"
	"github.com/vntravel/booking-backend/internal/models"
)

type recordedMail struct {
	to      string
	subject string
}

// captureMailer records sends so tests can assert on them.
type captureMailer struct {
	sent chan recordedMail
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{sent: make(chan recordedMail, 8)}
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.sent <- recordedMail{to: to, subject: subject}
	return nil
}

func (m *captureMailer) GetName() string { return "capture" }

func newTestBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock, *captureMailer) {
	t.Helper()

	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })

	db := sqlx.NewDb(rawDB, "sqlmock")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mailer := newCaptureMailer()
	svc := NewBookingService(
		database.NewBookingRepository(db),
		database.NewTourRepository(db),
		database.NewScheduleRepository(db),
		database.NewVoucherRepository(db),
		mailer,
		config.BookingConfig{MaxTxRetries: 3, MaxPartySize: 20},
		logger,
	)

	return svc, mock, mailer
}

var voucherTestColumns = []string{
	"id", "code", "discount_type", "value", "max_discount",
	"expires_at", "usage_limit", "used_count", "is_active", "created_at",
}

func tourRow(tourID string, price float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "price", "duration", "created_at"}).
		AddRow(tourID, "Ha Long Bay Cruise", price, "3 days 2 nights", time.Now())
}

func scheduleRow(scheduleID, tourID string, available, total int) *sqlmock.Rows {
	departure := time.Now().Add(30 * 24 * time.Hour)
	return sqlmock.NewRows([]string{
		"id", "tour_id", "departure_date", "return_date", "price",
		"available_seats", "total_seats", "created_at",
	}).AddRow(scheduleID, tourID, departure, departure.Add(48*time.Hour), nil, available, total, time.Now())
}

func validRequest(tourID string, scheduleID *string) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		TourID:        tourID,
		ScheduleID:    scheduleID,
		CustomerName:  "Nguyen Van A",
		CustomerEmail: "nguyenvana@example.com",
		CustomerPhone: "+84901234567",
		AdultCount:    2,
		ChildCount:    1,
	}
}

func TestCreateBooking(t *testing.T) {
	t.Run("Success With Schedule", func(t *testing.T) {
		svc, mock, mailer := newTestBookingService(t)
		tourID := uuid.New().String()
		scheduleID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM tours`).
			WithArgs(tourID).
			WillReturnRows(tourRow(tourID, 1000000))
		mock.ExpectQuery(`SELECT (.+) FROM tour_schedules`).
			WithArgs(scheduleID).
			WillReturnRows(scheduleRow(scheduleID, tourID, 10, 30))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE tour_schedules`).
			WithArgs(scheduleID, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		booking, err := svc.CreateBooking(uuid.New().String(), validRequest(tourID, &scheduleID))
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.InDelta(t, 2700000, booking.TotalPrice, 0.01)

		select {
		case msg := <-mailer.sent:
			assert.Equal(t, "nguyenvana@example.com", msg.to)
		case <-time.After(time.Second):
			t.Fatal("confirmation email was not sent")
		}

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Schedule From Another Tour Rejected", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)
		tourID := uuid.New().String()
		scheduleID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM tours`).
			WithArgs(tourID).
			WillReturnRows(tourRow(tourID, 1000000))
		mock.ExpectQuery(`SELECT (.+) FROM tour_schedules`).
			WithArgs(scheduleID).
			WillReturnRows(scheduleRow(scheduleID, uuid.New().String(), 10, 30))

		booking, err := svc.CreateBooking(uuid.New().String(), validRequest(tourID, &scheduleID))
		assert.ErrorIs(t, err, models.ErrScheduleMismatch)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Schedule Required When Tour Has Departures", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)
		tourID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM tours`).
			WithArgs(tourID).
			WillReturnRows(tourRow(tourID, 1000000))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(tourID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		booking, err := svc.CreateBooking(uuid.New().String(), validRequest(tourID, nil))
		assert.ErrorIs(t, err, models.ErrScheduleRequired)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unscheduled Tour Books Without Inventory", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)
		tourID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM tours`).
			WithArgs(tourID).
			WillReturnRows(tourRow(tourID, 1000000))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(tourID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		booking, err := svc.CreateBooking(uuid.New().String(), validRequest(tourID, nil))
		require.NoError(t, err)
		assert.Nil(t, booking.ScheduleID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Voucher Rejected Before Transaction", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)
		tourID := uuid.New().String()
		scheduleID := uuid.New().String()
		code := "EXPIRED"
		expired := time.Now().Add(-time.Hour)

		mock.ExpectQuery(`SELECT (.+) FROM tours`).
			WithArgs(tourID).
			WillReturnRows(tourRow(tourID, 1000000))
		mock.ExpectQuery(`SELECT (.+) FROM tour_schedules`).
			WithArgs(scheduleID).
			WillReturnRows(scheduleRow(scheduleID, tourID, 10, 30))
		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("EXPIRED").
			WillReturnRows(sqlmock.NewRows(voucherTestColumns).AddRow(
				uuid.New().String(), "EXPIRED", "FIXED", 50000.0, nil,
				expired, nil, 0, true, time.Now(),
			))

		req := validRequest(tourID, &scheduleID)
		req.VoucherCode = &code

		booking, err := svc.CreateBooking(uuid.New().String(), req)
		assert.ErrorIs(t, err, models.ErrVoucherExpired)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Retries On Serialization Failure", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)
		tourID := uuid.New().String()
		scheduleID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM tours`).
			WithArgs(tourID).
			WillReturnRows(tourRow(tourID, 1000000))
		mock.ExpectQuery(`SELECT (.+) FROM tour_schedules`).
			WithArgs(scheduleID).
			WillReturnRows(scheduleRow(scheduleID, tourID, 10, 30))

		// First attempt deadlocks, second succeeds.
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE tour_schedules`).
			WithArgs(scheduleID, 3).
			WillReturnError(&pq.Error{Code: "40001"})
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE tour_schedules`).
			WithArgs(scheduleID, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectCommit()

		booking, err := svc.CreateBooking(uuid.New().String(), validRequest(tourID, &scheduleID))
		require.NoError(t, err)
		assert.NotEmpty(t, booking.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Conflict Surfaces After Retries Exhausted", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)
		tourID := uuid.New().String()
		scheduleID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM tours`).
			WithArgs(tourID).
			WillReturnRows(tourRow(tourID, 1000000))
		mock.ExpectQuery(`SELECT (.+) FROM tour_schedules`).
			WithArgs(scheduleID).
			WillReturnRows(scheduleRow(scheduleID, tourID, 10, 30))

		for i := 0; i < 3; i++ {
			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE tour_schedules`).
				WithArgs(scheduleID, 3).
				WillReturnError(&pq.Error{Code: "40P01"})
			mock.ExpectRollback()
		}

		booking, err := svc.CreateBooking(uuid.New().String(), validRequest(tourID, &scheduleID))
		assert.ErrorIs(t, err, models.ErrConflict)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Party Too Large", func(t *testing.T) {
		svc, _, _ := newTestBookingService(t)

		req := validRequest(uuid.New().String(), nil)
		req.AdultCount = 25

		_, err := svc.CreateBooking(uuid.New().String(), req)
		assert.ErrorIs(t, err, models.ErrInvalidParty)
	})

	t.Run("Missing Contact", func(t *testing.T) {
		svc, _, _ := newTestBookingService(t)

		req := validRequest(uuid.New().String(), nil)
		req.CustomerEmail = "   "

		_, err := svc.CreateBooking(uuid.New().String(), req)
		assert.ErrorIs(t, err, models.ErrMissingContact)
	})
}

func TestPreviewVoucher(t *testing.T) {
	t.Run("Valid Voucher", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)
		maxDiscount := 300000.0

		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("SUMMER2024").
			WillReturnRows(sqlmock.NewRows(voucherTestColumns).AddRow(
				uuid.New().String(), "SUMMER2024", "PERCENT", 15.0, maxDiscount,
				nil, 100, 10, true, time.Now(),
			))

		preview, err := svc.PreviewVoucher("summer2024")
		require.NoError(t, err)
		assert.True(t, preview.Valid)
		require.NotNil(t, preview.Voucher)
		assert.Equal(t, "SUMMER2024", preview.Voucher.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Code Is Invalid Not Error", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)

		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("MISSING").
			WillReturnRows(sqlmock.NewRows(voucherTestColumns))

		preview, err := svc.PreviewVoucher("missing")
		require.NoError(t, err)
		assert.False(t, preview.Valid)
		assert.Nil(t, preview.Voucher)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exhausted Voucher Is Invalid", func(t *testing.T) {
		svc, mock, _ := newTestBookingService(t)

		mock.ExpectQuery(`SELECT (.+) FROM vouchers`).
			WithArgs("FULL").
			WillReturnRows(sqlmock.NewRows(voucherTestColumns).AddRow(
				uuid.New().String(), "FULL", "PERCENT", 10.0, nil,
				nil, 100, 100, true, time.Now(),
			))

		preview, err := svc.PreviewVoucher("FULL")
		require.NoError(t, err)
		assert.False(t, preview.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
