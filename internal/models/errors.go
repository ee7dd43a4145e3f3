package models

import "errors"

// Validation errors. Caller-fixable, never retried.
var (
	ErrInvalidParty     = errors.New("adult_count must be at least 1")
	ErrMissingContact   = errors.New("customer name, email and phone are required")
	ErrScheduleRequired = errors.New("this tour requires a departure schedule")
	ErrInvalidStatus    = errors.New("invalid booking status")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)

// Not-found errors.
var (
	ErrTourNotFound     = errors.New("tour not found")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrVoucherNotFound  = errors.New("voucher not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrReviewNotFound   = errors.New("review not found")
)

// State conflicts. Terminal for this request, but the caller may retry
// with fresh data.
var (
	ErrInsufficientSeats = errors.New("schedule does not have enough seats")
	ErrVoucherInactive   = errors.New("voucher has been deactivated")
	ErrVoucherExpired    = errors.New("voucher has expired")
	ErrVoucherExhausted  = errors.New("voucher usage limit reached")
	ErrInvalidTransition = errors.New("booking status does not allow this transition")
	ErrAlreadyReviewed   = errors.New("booking has already been reviewed")
	ErrNotEligible       = errors.New("only confirmed bookings can be reviewed")
	ErrScheduleMismatch  = errors.New("schedule does not belong to this tour")
	ErrScheduleInUse     = errors.New("schedule has active bookings and cannot be deleted")
	ErrVoucherCodeTaken  = errors.New("voucher code already exists")
)

// ErrConflict is returned after the bounded internal retry on lock or
// serialization conflicts is exhausted. The caller should retry the
// whole request.
var ErrConflict = errors.New("concurrent update conflict, please retry")

// ErrForbidden is returned when the acting user does not own the resource.
var ErrForbidden = errors.New("not allowed to act on this resource")

// ErrDuplicateRequest is returned when an idempotency key has already
// been consumed by an earlier request.
var ErrDuplicateRequest = errors.New("duplicate request")
