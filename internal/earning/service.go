package earning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/core/datamodel/booking"
	"github.com/pendakian/trip-service/internal/core/datamodel/earning"
	"github.com/pendakian/trip-service/internal/core/datamodel/payment"
	"github.com/pendakian/trip-service/internal/core/datamodel/trip"
	"github.com/pendakian/trip-service/internal/core/datamodel/withdrawal"
	"github.com/pendakian/trip-service/internal/core/events"
)

// RepositoryAPI defines earning ledger operations.
type RepositoryAPI interface {
	// CreateIfAbsent inserts the entry unless one already exists for the same
	// (guide_id, payment_id). Reports whether a row was inserted.
	CreateIfAbsent(e *earning.GuideEarning) (bool, error)
	ListByGuide(guideID int64, limit int) ([]*earning.GuideEarning, error)
	SumProcessedByGuide(guideID int64) (int64, error)
}

// WithdrawalLedger is the slice of the withdrawal store the balance
// calculator reads.
type WithdrawalLedger interface {
	SumProcessedByGuide(guideID int64) (int64, error)
	// SumReservedByGuide covers pending and processing rows: money already
	// promised or already at the gateway stays reserved.
	SumReservedByGuide(guideID int64) (int64, error)
	ListByGuide(guideID int64, limit int) ([]*withdrawal.GuideWithdrawal, error)
}

type BookingStore interface {
	GetByID(id int64) (*booking.Booking, error)
}

type TripStore interface {
	GetByID(id int64) (*trip.Trip, error)
}

type Service struct {
	repo            RepositoryAPI
	withdrawals     WithdrawalLedger
	bookings        BookingStore
	trips           TripStore
	eventBus        *events.EventBus
	sharePercentage int64
	logger          *slog.Logger
	now             func() time.Time
}

func NewService(repo RepositoryAPI, withdrawals WithdrawalLedger, bookings BookingStore, trips TripStore, eventBus *events.EventBus, sharePercentage int64, logger *slog.Logger) *Service {
	if sharePercentage <= 0 || sharePercentage > 100 {
		sharePercentage = errors.DefaultGuideSharePercentage
	}
	return &Service{
		repo:            repo,
		withdrawals:     withdrawals,
		bookings:        bookings,
		trips:           trips,
		eventBus:        eventBus,
		sharePercentage: sharePercentage,
		logger:          logger,
		now:             time.Now,
	}
}

// RecognizeFromPayment credits the owning guide for a paid payment. A broken
// attribution chain (booking or trip missing) is logged and swallowed: the
// customer's payment already settled and must never be rolled back over a
// bookkeeping gap. The unique (guide_id, payment_id) constraint makes retries
// converge on a single ledger entry.
func (s *Service) RecognizeFromPayment(ctx context.Context, p *payment.Payment) error {
	b, err := s.bookings.GetByID(p.BookingID)
	if err != nil {
		s.logger.Error("attribution gap: booking not found for paid payment",
			"payment_id", p.ID,
			"booking_id", p.BookingID,
			"error", err)
		return nil
	}

	t, err := s.trips.GetByID(b.TripID)
	if err != nil {
		s.logger.Error("attribution gap: trip not found for paid payment",
			"payment_id", p.ID,
			"booking_id", b.ID,
			"trip_id", b.TripID,
			"error", err)
		return nil
	}

	guideAmount, platformFee := GuideShare(p.Amount, s.sharePercentage)
	processedAt := s.now()

	entry := &earning.GuideEarning{
		GuideID:     t.GuideID,
		TripID:      t.ID,
		BookingID:   b.ID,
		PaymentID:   p.ID,
		Amount:      guideAmount,
		PlatformFee: platformFee,
		Status:      earning.StatusProcessed,
		Description: fmt.Sprintf("Earning from trip: %s", t.Title),
		ProcessedAt: &processedAt,
	}

	created, err := s.repo.CreateIfAbsent(entry)
	if err != nil {
		s.logger.Error("failed to record earning", "error", err, "payment_id", p.ID, "guide_id", t.GuideID)
		return errors.NewDatabaseError(err)
	}
	if !created {
		s.logger.Info("earning already recognized for payment, skipping",
			"payment_id", p.ID,
			"guide_id", t.GuideID)
		return nil
	}

	s.logger.Info("earning recognized",
		"earning_id", entry.ID,
		"guide_id", t.GuideID,
		"payment_id", p.ID,
		"amount", guideAmount,
		"platform_fee", platformFee)

	s.eventBus.Publish(ctx, events.NewEarningRecordedEvent(entry.ID, t.GuideID, p.ID, guideAmount, platformFee))
	return nil
}

// ComputeBalance derives a guide's current balance from the ledgers.
func (s *Service) ComputeBalance(ctx context.Context, guideID int64) (*Balance, error) {
	total, err := s.repo.SumProcessedByGuide(guideID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	withdrawn, err := s.withdrawals.SumProcessedByGuide(guideID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	reserved, err := s.withdrawals.SumReservedByGuide(guideID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	available := total - withdrawn - reserved
	if available < 0 {
		s.logger.Warn("computed negative available balance, clamping to zero",
			"guide_id", guideID,
			"total_earnings", total,
			"withdrawn", withdrawn,
			"reserved", reserved)
		available = 0
	}

	return &Balance{
		TotalEarnings:      total,
		WithdrawnAmount:    withdrawn,
		PendingWithdrawals: reserved,
		AvailableBalance:   available,
	}, nil
}

// EarningsOverview assembles the guide dashboard: balance plus recent ledger
// activity.
func (s *Service) EarningsOverview(ctx context.Context, guideID int64) (*OverviewResponse, error) {
	balance, err := s.ComputeBalance(ctx, guideID)
	if err != nil {
		return nil, err
	}

	earnings, err := s.repo.ListByGuide(guideID, 20)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	withdrawals, err := s.withdrawals.ListByGuide(guideID, 20)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	return &OverviewResponse{
		Balance:     *balance,
		Earnings:    earnings,
		Withdrawals: withdrawals,
	}, nil
}
