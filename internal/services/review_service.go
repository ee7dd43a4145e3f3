package services

import (
	"github.com/sirupsen/logrus"
	"github.com/vntravel/booking-backend/internal/database"
	"github.com/vntravel/booking-backend/internal/models"
)

// ReviewService enforces the review eligibility gate: only the owner
// of a confirmed booking may review it, once.
type ReviewService struct {
	reviewRepo  *database.ReviewRepository
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	reviewRepo *database.ReviewRepository,
	bookingRepo *database.BookingRepository,
	logger *logrus.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// SubmitReview creates a review for a booking after checking
// eligibility. The duplicate check is advisory; the unique index on
// booking_id is what actually prevents a double submit.
func (s *ReviewService) SubmitReview(userID, bookingID string, req *models.SubmitReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetForReview(bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != userID {
		return nil, models.ErrForbidden
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, models.ErrNotEligible
	}

	reviewed, err := s.reviewRepo.ExistsForBooking(booking.ID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, models.ErrAlreadyReviewed
	}

	review := &models.Review{
		BookingID: booking.ID,
		TourID:    booking.TourID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"review_id":  review.ID,
		"booking_id": review.BookingID,
		"rating":     review.Rating,
	}).Info("Review submitted")

	return review, nil
}

// ListTourReviews returns a tour's reviews, newest first
func (s *ReviewService) ListTourReviews(tourID string) ([]models.Review, error) {
	return s.reviewRepo.ListByTour(tourID)
}

// ListAllReviews returns every review with its tour name
func (s *ReviewService) ListAllReviews() ([]models.Review, error) {
	return s.reviewRepo.ListAll()
}

// DeleteReview removes a review
func (s *ReviewService) DeleteReview(reviewID string) error {
	if err := s.reviewRepo.Delete(reviewID); err != nil {
		return err
	}

	s.logger.WithField("review_id", reviewID).Info("Review deleted")
	return nil
}
