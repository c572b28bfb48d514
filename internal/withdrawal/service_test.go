package withdrawal_test

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/core/datamodel/gateway"
	"github.com/pendakian/trip-service/internal/core/datamodel/guide"
	"github.com/pendakian/trip-service/internal/core/datamodel/withdrawal"
	"github.com/pendakian/trip-service/internal/core/events"
	"github.com/pendakian/trip-service/internal/earning"
	withdrawalPkg "github.com/pendakian/trip-service/internal/withdrawal"
)

func TestWithdrawalService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Withdrawal Service Suite")
}

type mockWithdrawalRepository struct {
	mu      sync.Mutex
	records map[int64]*withdrawal.GuideWithdrawal
	nextID  int64
}

func newMockWithdrawalRepository() *mockWithdrawalRepository {
	return &mockWithdrawalRepository{
		records: make(map[int64]*withdrawal.GuideWithdrawal),
		nextID:  1,
	}
}

func (m *mockWithdrawalRepository) Create(w *withdrawal.GuideWithdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = m.nextID
	m.nextID++
	w.CreatedAt = time.Now()
	cp := *w
	m.records[w.ID] = &cp
	return nil
}

func (m *mockWithdrawalRepository) GetByID(id int64) (*withdrawal.GuideWithdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.records[id]
	if !ok {
		return nil, stderrors.New("withdrawal not found")
	}
	cp := *w
	return &cp, nil
}

func (m *mockWithdrawalRepository) ListByGuide(guideID int64, limit int) ([]*withdrawal.GuideWithdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*withdrawal.GuideWithdrawal
	for _, w := range m.records {
		if w.GuideID == guideID {
			out = append(out, w)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockWithdrawalRepository) ListByStatus(status string) ([]*withdrawal.GuideWithdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*withdrawal.GuideWithdrawal
	for _, w := range m.records {
		if w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockWithdrawalRepository) SetReference(id int64, referenceNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.records[id]
	if !ok {
		return stderrors.New("withdrawal not found")
	}
	w.ReferenceNumber = &referenceNumber
	return nil
}

func (m *mockWithdrawalRepository) MarkProcessing(id int64, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.records[id]
	if !ok || w.Status != withdrawal.StatusPending {
		return stderrors.New("no pending withdrawal")
	}
	w.Status = withdrawal.StatusProcessing
	w.TransactionID = &transactionID
	return nil
}

func (m *mockWithdrawalRepository) MarkProcessed(id int64, processedAt time.Time, processedBy *int64, referenceNumber *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.records[id]
	if !ok || (w.Status != withdrawal.StatusPending && w.Status != withdrawal.StatusProcessing) {
		return stderrors.New("withdrawal not in a processable state")
	}
	w.Status = withdrawal.StatusProcessed
	w.ProcessedAt = &processedAt
	w.ProcessedBy = processedBy
	if referenceNumber != nil {
		w.ReferenceNumber = referenceNumber
	}
	return nil
}

func (m *mockWithdrawalRepository) MarkFailed(id int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.records[id]
	if !ok {
		return stderrors.New("withdrawal not found")
	}
	w.Status = withdrawal.StatusFailed
	w.RejectReason = &reason
	return nil
}

func (m *mockWithdrawalRepository) MarkRejected(id int64, rejectedAt time.Time, rejectedBy int64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.records[id]
	if !ok || w.Status != withdrawal.StatusPending {
		return stderrors.New("no pending withdrawal")
	}
	w.Status = withdrawal.StatusRejected
	w.RejectedAt = &rejectedAt
	w.RejectedBy = &rejectedBy
	w.RejectReason = &reason
	return nil
}

// mockBalances reports a fixed total and derives reservations from the
// repository so concurrent requests see each other's holds.
type mockBalances struct {
	repo  *mockWithdrawalRepository
	total int64
	err   error
}

func (m *mockBalances) ComputeBalance(ctx context.Context, guideID int64) (*earning.Balance, error) {
	if m.err != nil {
		return nil, m.err
	}
	var withdrawn, reserved int64
	m.repo.mu.Lock()
	for _, w := range m.repo.records {
		if w.GuideID != guideID {
			continue
		}
		switch w.Status {
		case withdrawal.StatusProcessed:
			withdrawn += w.Amount
		case withdrawal.StatusPending, withdrawal.StatusProcessing:
			reserved += w.Amount
		}
	}
	m.repo.mu.Unlock()

	available := m.total - withdrawn - reserved
	if available < 0 {
		available = 0
	}
	return &earning.Balance{
		TotalEarnings:      m.total,
		WithdrawnAmount:    withdrawn,
		PendingWithdrawals: reserved,
		AvailableBalance:   available,
	}, nil
}

type mockGuideStore struct {
	guides map[int64]*guide.Guide
}

func (m *mockGuideStore) GetByID(id int64) (*guide.Guide, error) {
	g, ok := m.guides[id]
	if !ok {
		return nil, stderrors.New("guide not found")
	}
	return g, nil
}

type mockPayoutGateway struct {
	mu            sync.Mutex
	payoutCalls   int
	payoutStatus  string
	payoutError   error
	statusResults map[string]*gateway.PayoutResult
	statusError   error
}

func (m *mockPayoutGateway) CreatePayout(ctx context.Context, req *gateway.PayoutRequest) (*gateway.PayoutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payoutCalls++
	if m.payoutError != nil {
		return nil, m.payoutError
	}
	status := m.payoutStatus
	if status == "" {
		status = gateway.PayoutStatusQueued
	}
	return &gateway.PayoutResult{PayoutID: "po-" + req.ReferenceNo, Status: status}, nil
}

func (m *mockPayoutGateway) PayoutStatus(ctx context.Context, payoutID string) (*gateway.PayoutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusError != nil {
		return nil, m.statusError
	}
	if r, ok := m.statusResults[payoutID]; ok {
		return r, nil
	}
	return &gateway.PayoutResult{PayoutID: payoutID, Status: gateway.PayoutStatusProcessing}, nil
}

var _ = Describe("WithdrawalService", func() {
	var (
		service  *withdrawalPkg.Service
		repo     *mockWithdrawalRepository
		balances *mockBalances
		guides   *mockGuideStore
		gw       *mockPayoutGateway
		ctx      context.Context
	)

	BeforeEach(func() {
		repo = newMockWithdrawalRepository()
		balances = &mockBalances{repo: repo, total: 1000000}
		guides = &mockGuideStore{guides: map[int64]*guide.Guide{
			5: {ID: 5, UserID: 3, Name: "Bayu", Email: "bayu@mail.com"},
		}}
		gw = &mockPayoutGateway{statusResults: make(map[string]*gateway.PayoutResult)}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		eventBus := events.NewEventBus(logger)
		service = withdrawalPkg.NewService(repo, balances, guides, gw, eventBus, 100000, logger)
		ctx = context.Background()
	})

	validRequest := func(amount int64) *withdrawalPkg.WithdrawalRequest {
		return &withdrawalPkg.WithdrawalRequest{
			Amount:        amount,
			BankName:      "BCA",
			AccountNumber: "1234567890",
			AccountName:   "Bayu Aji",
		}
	}

	Describe("Request", func() {
		It("submits the payout and leaves the withdrawal processing", func() {
			rec, err := service.Request(ctx, 5, validRequest(500000))
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.Status).To(Equal(withdrawal.StatusProcessing))
			Expect(rec.ReferenceNumber).ToNot(BeNil())
			Expect(*rec.ReferenceNumber).To(HavePrefix("WD-"))
			Expect(rec.TransactionID).ToNot(BeNil())
		})

		It("records an immediately completed payout as processed", func() {
			gw.payoutStatus = gateway.PayoutStatusCompleted

			rec, err := service.Request(ctx, 5, validRequest(500000))
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.Status).To(Equal(withdrawal.StatusProcessed))
			Expect(rec.ProcessedAt).ToNot(BeNil())
		})

		It("rejects amounts below the minimum", func() {
			_, err := service.Request(ctx, 5, validRequest(50000))
			Expect(err).To(HaveOccurred())
			Expect(gw.payoutCalls).To(BeZero())
		})

		It("rejects requests exceeding the available balance", func() {
			_, err := service.Request(ctx, 5, validRequest(2000000))
			Expect(err).To(HaveOccurred())

			var appErr *apperrors.AppError
			Expect(stderrors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInsufficientBalance))
			Expect(gw.payoutCalls).To(BeZero())
		})

		It("rejects an unknown guide", func() {
			_, err := service.Request(ctx, 404, validRequest(500000))
			Expect(err).To(Equal(apperrors.ErrGuideNotFound))
		})

		It("marks the withdrawal failed when the payout call errors", func() {
			gw.payoutError = stderrors.New("connection reset")

			_, err := service.Request(ctx, 5, validRequest(500000))
			Expect(err).To(HaveOccurred())

			stored, getErr := repo.GetByID(1)
			Expect(getErr).ToNot(HaveOccurred())
			Expect(stored.Status).To(Equal(withdrawal.StatusFailed))
			Expect(stored.RejectReason).ToNot(BeNil())
			Expect(*stored.RejectReason).To(ContainSubstring("connection reset"))
		})

		It("marks the withdrawal failed when the gateway rejects the payout", func() {
			gw.payoutStatus = gateway.PayoutStatusFailed

			rec, err := service.Request(ctx, 5, validRequest(500000))
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.Status).To(Equal(withdrawal.StatusFailed))
		})

		It("serializes concurrent requests so reserved funds are not spent twice", func() {
			var wg sync.WaitGroup
			results := make([]error, 2)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, results[i] = service.Request(ctx, 5, validRequest(700000))
				}(i)
			}
			wg.Wait()

			var succeeded, failed int
			for _, err := range results {
				if err == nil {
					succeeded++
				} else {
					failed++
				}
			}
			Expect(succeeded).To(Equal(1))
			Expect(failed).To(Equal(1))
			Expect(gw.payoutCalls).To(Equal(1))
		})
	})

	Describe("CheckStatus", func() {
		submitProcessing := func() *withdrawal.GuideWithdrawal {
			rec, err := service.Request(ctx, 5, validRequest(500000))
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.Status).To(Equal(withdrawal.StatusProcessing))
			return rec
		}

		It("resolves a completed payout to processed", func() {
			rec := submitProcessing()
			gw.statusResults[*rec.TransactionID] = &gateway.PayoutResult{
				PayoutID: *rec.TransactionID,
				Status:   gateway.PayoutStatusCompleted,
			}

			got, err := service.CheckStatus(ctx, rec.ID, 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Status).To(Equal(withdrawal.StatusProcessed))

			stored, _ := repo.GetByID(rec.ID)
			Expect(stored.Status).To(Equal(withdrawal.StatusProcessed))
		})

		It("resolves a failed payout to failed", func() {
			rec := submitProcessing()
			gw.statusResults[*rec.TransactionID] = &gateway.PayoutResult{
				PayoutID: *rec.TransactionID,
				Status:   gateway.PayoutStatusFailed,
			}

			got, err := service.CheckStatus(ctx, rec.ID, 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Status).To(Equal(withdrawal.StatusFailed))
		})

		It("returns the stored state when the status poll fails", func() {
			rec := submitProcessing()
			gw.statusError = stderrors.New("timeout")

			got, err := service.CheckStatus(ctx, rec.ID, 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Status).To(Equal(withdrawal.StatusProcessing))
		})

		It("hides other guides' withdrawals", func() {
			rec := submitProcessing()

			_, err := service.CheckStatus(ctx, rec.ID, 99)
			Expect(err).To(Equal(apperrors.ErrWithdrawalNotFound))
		})
	})

	Describe("AdminProcess", func() {
		seedPending := func() *withdrawal.GuideWithdrawal {
			rec := &withdrawal.GuideWithdrawal{
				GuideID:       5,
				Amount:        300000,
				Status:        withdrawal.StatusPending,
				BankName:      "BCA",
				AccountNumber: "1234567890",
				AccountName:   "Bayu Aji",
			}
			Expect(repo.Create(rec)).To(Succeed())
			return rec
		}

		It("marks a pending withdrawal processed with the admin on record", func() {
			rec := seedPending()

			got, err := service.AdminProcess(ctx, rec.ID, 42, "TRF/2026/08/001")
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Status).To(Equal(withdrawal.StatusProcessed))
			Expect(got.ProcessedBy).ToNot(BeNil())
			Expect(*got.ProcessedBy).To(Equal(int64(42)))
			Expect(*got.ReferenceNumber).To(Equal("TRF/2026/08/001"))
		})

		It("refuses a withdrawal that already left pending", func() {
			rec, err := service.Request(ctx, 5, validRequest(500000))
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.Status).To(Equal(withdrawal.StatusProcessing))

			_, err = service.AdminProcess(ctx, rec.ID, 42, "")
			Expect(err).To(HaveOccurred())

			var appErr *apperrors.AppError
			Expect(stderrors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidWithdrawalState))
		})

		It("returns not found for an unknown withdrawal", func() {
			_, err := service.AdminProcess(ctx, 404, 42, "")
			Expect(err).To(Equal(apperrors.ErrWithdrawalNotFound))
		})
	})

	Describe("AdminReject", func() {
		It("rejects a pending withdrawal with a reason", func() {
			rec := &withdrawal.GuideWithdrawal{
				GuideID: 5, Amount: 300000, Status: withdrawal.StatusPending,
				BankName: "BCA", AccountNumber: "1234567890", AccountName: "Bayu Aji",
			}
			Expect(repo.Create(rec)).To(Succeed())

			got, err := service.AdminReject(ctx, rec.ID, 42, "account name mismatch")
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Status).To(Equal(withdrawal.StatusRejected))
			Expect(*got.RejectReason).To(Equal("account name mismatch"))
			Expect(*got.RejectedBy).To(Equal(int64(42)))
		})

		It("refuses to reject a processing withdrawal", func() {
			rec, err := service.Request(ctx, 5, validRequest(500000))
			Expect(err).ToNot(HaveOccurred())

			_, err = service.AdminReject(ctx, rec.ID, 42, "too late")
			Expect(err).To(HaveOccurred())
		})
	})
})
