package services

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vntravel/booking-backend/internal/config"
	"github.com/vntravel/booking-backend/internal/database"
	"github.com/vntravel/booking-backend/internal/models"
	"github.com/vntravel/booking-backend/pkg/mail"
)

// BookingService orchestrates the booking lifecycle: pricing,
// voucher redemption, seat reservation, status transitions and the
// confirmation email. All inventory writes happen in the repository's
// compound transaction; this layer decides what the transaction must
// claim and retries it on transient conflicts.
type BookingService struct {
	bookingRepo  *database.BookingRepository
	tourRepo     *database.TourRepository
	scheduleRepo *database.ScheduleRepository
	voucherRepo  *database.VoucherRepository
	mailer       mail.Mailer
	config       config.BookingConfig
	logger       *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	tourRepo *database.TourRepository,
	scheduleRepo *database.ScheduleRepository,
	voucherRepo *database.VoucherRepository,
	mailer mail.Mailer,
	cfg config.BookingConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		tourRepo:     tourRepo,
		scheduleRepo: scheduleRepo,
		voucherRepo:  voucherRepo,
		mailer:       mailer,
		config:       cfg,
		logger:       logger,
	}
}

// CreateBooking validates the request, prices the party and runs the
// compound creation transaction. On a lock or serialization conflict
// the transaction is retried up to the configured bound before
// surfacing ErrConflict.
func (s *BookingService) CreateBooking(userID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.PartySize() > s.config.MaxPartySize {
		return nil, models.ErrInvalidParty
	}

	tour, err := s.tourRepo.GetByID(req.TourID)
	if err != nil {
		return nil, err
	}

	// Resolve the schedule and per-adult price. Tours that have
	// departures require one; tours without any bypass inventory.
	var schedule *models.Schedule
	var departure *time.Time
	unitPrice := tour.Price
	if req.ScheduleID != nil {
		schedule, err = s.scheduleRepo.GetByID(*req.ScheduleID)
		if err != nil {
			return nil, err
		}
		if schedule.TourID != tour.ID {
			return nil, models.ErrScheduleMismatch
		}
		unitPrice = schedule.EffectivePrice(tour)
		departure = &schedule.DepartureDate
	} else {
		hasSchedules, err := s.scheduleRepo.TourHasSchedules(tour.ID)
		if err != nil {
			return nil, err
		}
		if hasSchedules {
			return nil, models.ErrScheduleRequired
		}
	}

	// Price against the voucher before the transaction. The read is
	// advisory; the transaction re-checks and consumes atomically.
	now := time.Now()
	var voucher *models.Voucher
	var voucherCode *string
	if req.VoucherCode != nil && *req.VoucherCode != "" {
		voucher, err = s.voucherRepo.GetByCode(*req.VoucherCode)
		if err != nil {
			return nil, err
		}
		if err := voucher.Validity(now); err != nil {
			return nil, err
		}
		voucherCode = &voucher.Code
	}

	quote := Quote(unitPrice, req.AdultCount, req.ChildCount, voucher)

	booking := &models.Booking{
		UserID:        userID,
		TourID:        tour.ID,
		ScheduleID:    req.ScheduleID,
		DepartureDate: departure,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		AdultCount:    req.AdultCount,
		ChildCount:    req.ChildCount,
		TotalPrice:    quote.Total,
		VoucherCode:   voucherCode,
		Status:        models.BookingStatusPending,
	}

	if err := s.createWithRetry(booking, now); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"tour_id":     booking.TourID,
		"party_size":  booking.PartySize(),
		"total_price": booking.TotalPrice,
	}).Info("Booking created")

	s.sendConfirmation(booking, tour.Name)

	return booking, nil
}

// createWithRetry runs the compound transaction, retrying on deadlock
// and serialization failures.
func (s *BookingService) createWithRetry(booking *models.Booking, now time.Time) error {
	var err error
	for attempt := 1; attempt <= s.config.MaxTxRetries; attempt++ {
		err = s.bookingRepo.CreateWithInventory(booking, s.scheduleRepo, s.voucherRepo, now)
		if err == nil {
			return nil
		}
		if !database.IsRetryableConflict(err) && !errors.Is(err, models.ErrConflict) {
			return err
		}

		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Booking transaction conflict, retrying")
	}

	return models.ErrConflict
}

// sendConfirmation emails the customer in the background. Delivery
// failures are logged and never affect the booking.
func (s *BookingService) sendConfirmation(booking *models.Booking, tourName string) {
	go func() {
		subject, body := mail.ConfirmationMessage(
			booking.CustomerName, tourName, booking.DepartureDate,
			booking.PartySize(), booking.TotalPrice,
		)
		if err := s.mailer.Send(booking.CustomerEmail, subject, body); err != nil {
			s.logger.WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"error":      err.Error(),
			}).Error("Failed to send confirmation email")
		}
	}()
}

// GetBooking returns a booking the caller may see. Non-admin callers
// only see their own bookings.
func (s *BookingService) GetBooking(bookingID, userID string, isAdmin bool) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && booking.UserID != userID {
		return nil, models.ErrForbidden
	}
	return booking, nil
}

// ListUserBookings returns the caller's bookings, newest first
func (s *BookingService) ListUserBookings(userID string) ([]models.Booking, error) {
	return s.bookingRepo.ListByUser(userID)
}

// ListAllBookings returns every booking, optionally filtered by status
func (s *BookingService) ListAllBookings(status *models.BookingStatus) ([]models.Booking, error) {
	if status != nil && !models.ValidBookingStatus(*status) {
		return nil, models.ErrInvalidStatus
	}
	return s.bookingRepo.ListAll(status)
}

// ConfirmBooking transitions a booking PENDING -> CONFIRMED, typically
// after the customer completes payment. Non-admin callers may only
// confirm their own bookings.
func (s *BookingService) ConfirmBooking(bookingID, userID string, isAdmin bool) (*models.Booking, error) {
	if !isAdmin {
		booking, err := s.bookingRepo.GetByID(bookingID)
		if err != nil {
			return nil, err
		}
		if booking.UserID != userID {
			return nil, models.ErrForbidden
		}
	}

	booking, err := s.bookingRepo.Confirm(bookingID)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("booking_id", booking.ID).Info("Booking confirmed")
	return booking, nil
}

// CancelBooking cancels a booking and releases its seats. Cancelling
// twice is a no-op. Non-admin callers may only cancel their own
// bookings.
func (s *BookingService) CancelBooking(bookingID, userID string, isAdmin bool) (*models.Booking, error) {
	if !isAdmin {
		booking, err := s.bookingRepo.GetByID(bookingID)
		if err != nil {
			return nil, err
		}
		if booking.UserID != userID {
			return nil, models.ErrForbidden
		}
	}

	booking, err := s.bookingRepo.CancelAndRelease(bookingID, s.scheduleRepo)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"status":     booking.Status,
	}).Info("Booking cancelled")

	return booking, nil
}

// SetBookingStatus is the admin override. It bypasses the lifecycle
// rules; seats are released on a transition into CANCELLED but a
// transition out of CANCELLED never re-reserves them.
func (s *BookingService) SetBookingStatus(bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if !models.ValidBookingStatus(status) {
		return nil, models.ErrInvalidStatus
	}

	booking, err := s.bookingRepo.SetStatusAndRelease(bookingID, status, s.scheduleRepo)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"status":     booking.Status,
	}).Info("Booking status overridden")

	return booking, nil
}

// PreviewVoucher validates a voucher without consuming a use
func (s *BookingService) PreviewVoucher(code string) (*models.VoucherPreview, error) {
	voucher, err := s.voucherRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, models.ErrVoucherNotFound) {
			return &models.VoucherPreview{Valid: false}, nil
		}
		return nil, err
	}

	if err := voucher.Validity(time.Now()); err != nil {
		return &models.VoucherPreview{Valid: false}, nil
	}

	return &models.VoucherPreview{Valid: true, Voucher: voucher.Summary()}, nil
}
