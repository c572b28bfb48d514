package withdrawal

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/core/datamodel/gateway"
	"github.com/pendakian/trip-service/internal/core/datamodel/guide"
	"github.com/pendakian/trip-service/internal/core/datamodel/withdrawal"
	"github.com/pendakian/trip-service/internal/core/events"
	"github.com/pendakian/trip-service/internal/earning"
)

// RepositoryAPI defines withdrawal ledger operations. The Mark* methods carry
// status guards in their WHERE clauses as a second line of defense behind the
// service-level state machine checks.
type RepositoryAPI interface {
	Create(w *withdrawal.GuideWithdrawal) error
	GetByID(id int64) (*withdrawal.GuideWithdrawal, error)
	ListByGuide(guideID int64, limit int) ([]*withdrawal.GuideWithdrawal, error)
	ListByStatus(status string) ([]*withdrawal.GuideWithdrawal, error)
	SetReference(id int64, referenceNumber string) error
	MarkProcessing(id int64, transactionID string) error
	MarkProcessed(id int64, processedAt time.Time, processedBy *int64, referenceNumber *string) error
	MarkFailed(id int64, reason string) error
	MarkRejected(id int64, rejectedAt time.Time, rejectedBy int64, reason string) error
}

// PayoutAPI is the slice of the gateway client the pipeline uses.
type PayoutAPI interface {
	CreatePayout(ctx context.Context, req *gateway.PayoutRequest) (*gateway.PayoutResult, error)
	PayoutStatus(ctx context.Context, payoutID string) (*gateway.PayoutResult, error)
}

// BalanceAPI is implemented by the earning service.
type BalanceAPI interface {
	ComputeBalance(ctx context.Context, guideID int64) (*earning.Balance, error)
}

type GuideStore interface {
	GetByID(id int64) (*guide.Guide, error)
}

type Service struct {
	repo          RepositoryAPI
	balances      BalanceAPI
	guides        GuideStore
	gatewayClient PayoutAPI
	eventBus      *events.EventBus
	minimum       int64
	locks         *guideLocks
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(repo RepositoryAPI, balances BalanceAPI, guides GuideStore, gatewayClient PayoutAPI, eventBus *events.EventBus, minimum int64, logger *slog.Logger) *Service {
	if minimum <= 0 {
		minimum = errors.DefaultMinimumWithdrawal
	}
	return &Service{
		repo:          repo,
		balances:      balances,
		guides:        guides,
		gatewayClient: gatewayClient,
		eventBus:      eventBus,
		minimum:       minimum,
		locks:         newGuideLocks(),
		logger:        logger,
		now:           time.Now,
	}
}

// Request validates, reserves and submits a withdrawal. The per-guide lock
// covers the whole validate-then-insert-then-submit window so two concurrent
// requests can never both pass the balance check against the same funds.
func (s *Service) Request(ctx context.Context, guideID int64, req *WithdrawalRequest) (*withdrawal.GuideWithdrawal, error) {
	if err := req.Validate(s.minimum); err != nil {
		return nil, err
	}

	g, err := s.guides.GetByID(guideID)
	if err != nil {
		return nil, errors.ErrGuideNotFound
	}

	lock := s.locks.forGuide(guideID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := s.balances.ComputeBalance(ctx, guideID)
	if err != nil {
		return nil, err
	}
	if req.Amount > balance.AvailableBalance {
		s.logger.Warn("withdrawal rejected: insufficient balance",
			"guide_id", guideID,
			"requested", req.Amount,
			"available", balance.AvailableBalance)
		return nil, errors.NewInsufficientBalanceError(balance.AvailableBalance)
	}

	rec := &withdrawal.GuideWithdrawal{
		GuideID:       guideID,
		Amount:        req.Amount,
		Status:        withdrawal.StatusPending,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(rec); err != nil {
		s.logger.Error("failed to create withdrawal", "error", err, "guide_id", guideID)
		return nil, errors.NewDatabaseError(err)
	}

	s.logger.Info("withdrawal requested",
		"withdrawal_id", rec.ID,
		"guide_id", guideID,
		"amount", req.Amount)

	if err := s.submitPayout(ctx, rec, g.Email); err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, events.NewWithdrawalSubmittedEvent(rec.ID, guideID, rec.Amount, rec.Status))
	return rec, nil
}

// submitPayout pushes a pending withdrawal to the disbursement API and maps
// the result onto the internal state machine. A transport failure is terminal:
// without a payout id there is nothing to reconcile against later, so the row
// goes to failed and the guide's funds are released.
func (s *Service) submitPayout(ctx context.Context, rec *withdrawal.GuideWithdrawal, guideEmail string) error {
	reference := GenerateReferenceNumber(rec.ID, s.now())
	if err := s.repo.SetReference(rec.ID, reference); err != nil {
		return errors.NewDatabaseError(err)
	}
	rec.ReferenceNumber = &reference

	notes := "Guide earnings withdrawal"
	if rec.Notes != nil && *rec.Notes != "" {
		notes = *rec.Notes
	}

	result, err := s.gatewayClient.CreatePayout(ctx, &gateway.PayoutRequest{
		ReferenceNo:        reference,
		BeneficiaryName:    rec.AccountName,
		BeneficiaryAccount: rec.AccountNumber,
		BeneficiaryBank:    rec.BankName,
		BeneficiaryEmail:   guideEmail,
		Amount:             rec.Amount,
		Notes:              notes,
	})
	if err != nil {
		s.logger.Error("payout submission failed",
			"error", err,
			"withdrawal_id", rec.ID,
			"reference_no", reference)
		if markErr := s.repo.MarkFailed(rec.ID, "payout submission failed: "+err.Error()); markErr != nil {
			s.logger.Error("failed to mark withdrawal failed", "error", markErr, "withdrawal_id", rec.ID)
		}
		rec.Status = withdrawal.StatusFailed
		return err
	}

	switch result.Status {
	case gateway.PayoutStatusQueued, gateway.PayoutStatusProcessing:
		if err := s.repo.MarkProcessing(rec.ID, result.PayoutID); err != nil {
			return errors.NewDatabaseError(err)
		}
		rec.Status = withdrawal.StatusProcessing
		rec.TransactionID = &result.PayoutID

	case gateway.PayoutStatusCompleted:
		processedAt := s.now()
		if err := s.repo.MarkProcessed(rec.ID, processedAt, nil, &reference); err != nil {
			return errors.NewDatabaseError(err)
		}
		rec.Status = withdrawal.StatusProcessed
		rec.ProcessedAt = &processedAt

	default:
		s.logger.Warn("payout rejected by gateway",
			"withdrawal_id", rec.ID,
			"payout_status", result.Status)
		if err := s.repo.MarkFailed(rec.ID, "payout rejected: "+result.Status); err != nil {
			return errors.NewDatabaseError(err)
		}
		rec.Status = withdrawal.StatusFailed
	}

	s.logger.Info("payout submitted",
		"withdrawal_id", rec.ID,
		"reference_no", reference,
		"payout_id", result.PayoutID,
		"status", rec.Status)

	return nil
}

// CheckStatus returns a withdrawal, reconciling in-flight ones against the
// payout API first. Polling failures degrade to the stored state.
func (s *Service) CheckStatus(ctx context.Context, withdrawalID, guideID int64) (*withdrawal.GuideWithdrawal, error) {
	rec, err := s.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, errors.ErrWithdrawalNotFound
	}
	if rec.GuideID != guideID {
		return nil, errors.ErrWithdrawalNotFound
	}

	if rec.Status != withdrawal.StatusProcessing || rec.TransactionID == nil {
		return rec, nil
	}

	result, err := s.gatewayClient.PayoutStatus(ctx, *rec.TransactionID)
	if err != nil {
		s.logger.Warn("payout status check failed, returning stored state",
			"error", err,
			"withdrawal_id", rec.ID)
		return rec, nil
	}

	switch result.Status {
	case gateway.PayoutStatusCompleted:
		processedAt := s.now()
		if err := s.repo.MarkProcessed(rec.ID, processedAt, nil, rec.ReferenceNumber); err != nil {
			return nil, errors.NewDatabaseError(err)
		}
		rec.Status = withdrawal.StatusProcessed
		rec.ProcessedAt = &processedAt
		s.eventBus.Publish(ctx, events.NewWithdrawalResolvedEvent(rec.ID, rec.GuideID, rec.Amount, rec.Status))

	case gateway.PayoutStatusFailed:
		if err := s.repo.MarkFailed(rec.ID, "payout failed at gateway"); err != nil {
			return nil, errors.NewDatabaseError(err)
		}
		rec.Status = withdrawal.StatusFailed
		s.eventBus.Publish(ctx, events.NewWithdrawalResolvedEvent(rec.ID, rec.GuideID, rec.Amount, rec.Status))
	}

	return rec, nil
}

// AdminProcess marks a pending withdrawal as paid out manually.
func (s *Service) AdminProcess(ctx context.Context, withdrawalID, adminID int64, referenceNumber string) (*withdrawal.GuideWithdrawal, error) {
	rec, err := s.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, errors.ErrWithdrawalNotFound
	}
	if rec.Status != withdrawal.StatusPending {
		return nil, errors.NewInvalidStateError(
			"withdrawal can only be processed from pending status",
			errors.ErrCodeInvalidWithdrawalState)
	}

	processedAt := s.now()
	var reference *string
	if referenceNumber != "" {
		reference = &referenceNumber
	} else {
		reference = rec.ReferenceNumber
	}

	if err := s.repo.MarkProcessed(rec.ID, processedAt, &adminID, reference); err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	rec.Status = withdrawal.StatusProcessed
	rec.ProcessedAt = &processedAt
	rec.ProcessedBy = &adminID
	rec.ReferenceNumber = reference

	s.logger.Info("withdrawal processed by admin",
		"withdrawal_id", rec.ID,
		"admin_id", adminID,
		"amount", rec.Amount)

	s.eventBus.Publish(ctx, events.NewWithdrawalResolvedEvent(rec.ID, rec.GuideID, rec.Amount, rec.Status))
	return rec, nil
}

// AdminReject declines a pending withdrawal and releases the reserved funds.
func (s *Service) AdminReject(ctx context.Context, withdrawalID, adminID int64, reason string) (*withdrawal.GuideWithdrawal, error) {
	rec, err := s.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, errors.ErrWithdrawalNotFound
	}
	if rec.Status != withdrawal.StatusPending {
		return nil, errors.NewInvalidStateError(
			"withdrawal can only be rejected from pending status",
			errors.ErrCodeInvalidWithdrawalState)
	}

	rejectedAt := s.now()
	if err := s.repo.MarkRejected(rec.ID, rejectedAt, adminID, reason); err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	rec.Status = withdrawal.StatusRejected
	rec.RejectedAt = &rejectedAt
	rec.RejectedBy = &adminID
	rec.RejectReason = &reason

	s.logger.Info("withdrawal rejected by admin",
		"withdrawal_id", rec.ID,
		"admin_id", adminID,
		"reason", reason)

	s.eventBus.Publish(ctx, events.NewWithdrawalResolvedEvent(rec.ID, rec.GuideID, rec.Amount, rec.Status))
	return rec, nil
}

func (s *Service) History(ctx context.Context, guideID int64) ([]*withdrawal.GuideWithdrawal, error) {
	records, err := s.repo.ListByGuide(guideID, 0)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return records, nil
}

func (s *Service) ListPending(ctx context.Context) ([]*withdrawal.GuideWithdrawal, error) {
	records, err := s.repo.ListByStatus(withdrawal.StatusPending)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return records, nil
}
