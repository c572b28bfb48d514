package trip

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/core/datamodel/booking"
	"github.com/pendakian/trip-service/internal/core/datamodel/payment"
	"github.com/pendakian/trip-service/internal/core/datamodel/trip"
)

type RepositoryAPI interface {
	GetByID(id int64) (*trip.Trip, error)
	// Close marks the trip closed with a completion timestamp; guarded to
	// only move open or full trips.
	Close(id int64, completedAt time.Time) (bool, error)
}

type BookingStore interface {
	ListConfirmedByTrip(tripID int64) ([]*booking.Booking, error)
}

type PaymentStore interface {
	GetByBookingID(bookingID int64) (*payment.Payment, error)
}

// EarningRecognizer is the same idempotent guard settlement uses; the sweep
// below can safely retry payments that were already credited.
type EarningRecognizer interface {
	RecognizeFromPayment(ctx context.Context, p *payment.Payment) error
}

type FinishResult struct {
	TripID           int64 `json:"trip_id"`
	BookingsSwept    int   `json:"bookings_swept"`
	EarningsRecorded int   `json:"earnings_recorded"`
}

type Service struct {
	repo     RepositoryAPI
	bookings BookingStore
	payments PaymentStore
	earnings EarningRecognizer
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo RepositoryAPI, bookings BookingStore, payments PaymentStore, earnings EarningRecognizer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		payments: payments,
		earnings: earnings,
		logger:   logger,
		now:      time.Now,
	}
}

// Finish closes a trip after it ended and sweeps its confirmed, paid bookings
// through earning recognition. The sweep is a safety net for settlements
// whose recognition was lost; the unique ledger constraint makes re-sweeping
// already-credited payments a no-op.
func (s *Service) Finish(ctx context.Context, tripID, guideID int64) (*FinishResult, error) {
	t, err := s.repo.GetByID(tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	if t.GuideID != guideID {
		return nil, errors.NewForbiddenError("trip belongs to another guide", errors.ErrCodeTripNotFinishable)
	}
	if t.Status == trip.StatusClosed {
		return nil, errors.NewInvalidStateError("trip is already finished", errors.ErrCodeTripNotFinishable)
	}
	if !t.Ended(s.now()) {
		return nil, errors.NewInvalidStateError("trip has not ended yet", errors.ErrCodeTripNotFinishable)
	}

	closed, err := s.repo.Close(tripID, s.now())
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	if !closed {
		return nil, errors.NewInvalidStateError("trip is already finished", errors.ErrCodeTripNotFinishable)
	}

	s.logger.Info("trip finished", "trip_id", tripID, "guide_id", guideID)

	result := &FinishResult{TripID: tripID}

	bookings, err := s.bookings.ListConfirmedByTrip(tripID)
	if err != nil {
		s.logger.Error("failed to list bookings for earnings sweep", "error", err, "trip_id", tripID)
		return result, nil
	}

	for _, b := range bookings {
		pay, err := s.payments.GetByBookingID(b.ID)
		if err != nil || !pay.IsPaid() {
			continue
		}
		result.BookingsSwept++
		if err := s.earnings.RecognizeFromPayment(ctx, pay); err != nil {
			s.logger.Error("earnings sweep failed for payment",
				"error", err,
				"trip_id", tripID,
				"payment_id", pay.ID)
			continue
		}
		result.EarningsRecorded++
	}

	s.logger.Info("earnings sweep completed",
		"trip_id", tripID,
		"bookings_swept", result.BookingsSwept,
		"earnings_recorded", result.EarningsRecorded)

	return result, nil
}

func (s *Service) GetByID(ctx context.Context, tripID int64) (*trip.Trip, error) {
	t, err := s.repo.GetByID(tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	return t, nil
}
