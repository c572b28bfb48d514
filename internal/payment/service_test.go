package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pendakian/trip-service/internal/core/datamodel/booking"
	"github.com/pendakian/trip-service/internal/core/datamodel/gateway"
	"github.com/pendakian/trip-service/internal/core/datamodel/payment"
	"github.com/pendakian/trip-service/internal/core/datamodel/trip"
	"github.com/pendakian/trip-service/internal/core/datamodel/user"
	"github.com/pendakian/trip-service/internal/core/events"
	paymentPkg "github.com/pendakian/trip-service/internal/payment"
)

func TestPaymentService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Service Suite")
}

// Mock repository for testing
type mockPaymentRepository struct {
	mu       sync.Mutex
	payments map[int64]*payment.Payment
	nextID   int64

	createError error
	getError    error
	markError   error
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{
		payments: make(map[int64]*payment.Payment),
		nextID:   1,
	}
}

func (m *mockPaymentRepository) Create(p *payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepository) GetByID(id int64) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	p, ok := m.payments[id]
	if !ok {
		return nil, errors.New("payment not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepository) GetByInvoiceNumber(invoiceNumber string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	for _, p := range m.payments {
		if p.InvoiceNumber == invoiceNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("payment not found")
}

func (m *mockPaymentRepository) GetByTransactionID(transactionID string) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("payment not found")
}

func (m *mockPaymentRepository) GetByBookingID(bookingID int64) (*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.BookingID == bookingID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("payment not found")
}

func (m *mockPaymentRepository) SaveCheckout(id int64, paymentURL string, gatewayResponse json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return errors.New("payment not found")
	}
	p.PaymentURL = &paymentURL
	p.GatewayResponse = gatewayResponse
	return nil
}

func (m *mockPaymentRepository) RecordTransactionID(id int64, transactionID string, gatewayResponse json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return errors.New("payment not found")
	}
	if p.Status != payment.StatusPending {
		return nil
	}
	p.TransactionID = &transactionID
	p.GatewayResponse = gatewayResponse
	return nil
}

func (m *mockPaymentRepository) MarkPaid(id int64, transactionID string, gatewayResponse json.RawMessage, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markError != nil {
		return false, m.markError
	}
	p, ok := m.payments[id]
	if !ok {
		return false, errors.New("payment not found")
	}
	if p.Status != payment.StatusPending {
		return false, nil
	}
	p.Status = payment.StatusPaid
	p.PaidAt = &paidAt
	if transactionID != "" {
		p.TransactionID = &transactionID
	}
	p.GatewayResponse = gatewayResponse
	return true, nil
}

func (m *mockPaymentRepository) MarkTerminal(id int64, status string, gatewayResponse json.RawMessage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markError != nil {
		return false, m.markError
	}
	p, ok := m.payments[id]
	if !ok {
		return false, errors.New("payment not found")
	}
	if p.Status != payment.StatusPending {
		return false, nil
	}
	p.Status = status
	if gatewayResponse != nil {
		p.GatewayResponse = gatewayResponse
	}
	return true, nil
}

type mockGateway struct {
	checkoutResp  *gateway.ChargeResponse
	checkoutError error
	statusResp    *gateway.TransactionStatus
	statusError   error
	statusCalls   int
}

func (m *mockGateway) CreateCheckout(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResponse, error) {
	if m.checkoutError != nil {
		return nil, m.checkoutError
	}
	if m.checkoutResp != nil {
		return m.checkoutResp, nil
	}
	return &gateway.ChargeResponse{Token: "tok", RedirectURL: "https://pay.example.com/" + req.OrderID}, nil
}

func (m *mockGateway) TransactionStatus(ctx context.Context, orderID string) (*gateway.TransactionStatus, error) {
	m.statusCalls++
	if m.statusError != nil {
		return nil, m.statusError
	}
	return m.statusResp, nil
}

type mockEarnings struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (m *mockEarnings) RecognizeFromPayment(ctx context.Context, p *payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, p.ID)
	return m.err
}

type mockConfirmer struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (m *mockConfirmer) ConfirmBooking(bookingID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, bookingID)
	return m.err
}

var _ = Describe("PaymentService", func() {
	var (
		service   *paymentPkg.Service
		repo      *mockPaymentRepository
		gw        *mockGateway
		earnings  *mockEarnings
		confirmer *mockConfirmer
		logger    *slog.Logger
		ctx       context.Context
	)

	BeforeEach(func() {
		repo = newMockPaymentRepository()
		gw = &mockGateway{}
		earnings = &mockEarnings{}
		confirmer = &mockConfirmer{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		eventBus := events.NewEventBus(logger)
		service = paymentPkg.NewService(repo, gw, earnings, confirmer, eventBus, 24*time.Hour, "http://localhost/callback", logger)
		ctx = context.Background()
	})

	seedPending := func(invoice string) *payment.Payment {
		p := &payment.Payment{
			BookingID:     7,
			InvoiceNumber: invoice,
			Amount:        1000000,
			Status:        payment.StatusPending,
		}
		Expect(repo.Create(p)).To(Succeed())
		return p
	}

	Describe("CreateForBooking", func() {
		var (
			b *booking.Booking
			t *trip.Trip
			u *user.User
		)

		BeforeEach(func() {
			b = &booking.Booking{ID: 7, UserID: 1, TripID: 3, Status: booking.StatusPending}
			t = &trip.Trip{ID: 3, GuideID: 5, Title: "Rinjani Summit", Price: 1500000}
			u = &user.User{ID: 1, Name: "Raka", Email: "raka@mail.com"}
		})

		It("creates a pending payment with a checkout URL", func() {
			p, err := service.CreateForBooking(ctx, b, t, u)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Status).To(Equal(payment.StatusPending))
			Expect(p.InvoiceNumber).To(HavePrefix("INV-"))
			Expect(p.Amount).To(Equal(int64(1500000)))
			Expect(p.PaymentURL).ToNot(BeNil())
			Expect(p.ExpiredAt).ToNot(BeNil())
		})

		It("marks the payment failed when checkout creation fails", func() {
			gw.checkoutError = errors.New("gateway down")

			_, err := service.CreateForBooking(ctx, b, t, u)
			Expect(err).To(HaveOccurred())

			stored, getErr := repo.GetByBookingID(7)
			Expect(getErr).ToNot(HaveOccurred())
			Expect(stored.Status).To(Equal(payment.StatusFailed))
		})
	})

	Describe("HandleNotification", func() {
		It("settles a pending payment and triggers downstream effects", func() {
			p := seedPending("INV-1-7")

			err := service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionID:     "txn-1",
				TransactionStatus: gateway.TxnStatusSettlement,
			})
			Expect(err).ToNot(HaveOccurred())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusPaid))
			Expect(stored.PaidAt).ToNot(BeNil())
			Expect(stored.TransactionID).ToNot(BeNil())
			Expect(confirmer.calls).To(ContainElement(int64(7)))
			Expect(earnings.calls).To(ContainElement(p.ID))
		})

		It("converges on the same state for duplicate settlement notifications", func() {
			p := seedPending("INV-1-7")

			notif := &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionID:     "txn-1",
				TransactionStatus: gateway.TxnStatusSettlement,
			}
			Expect(service.HandleNotification(ctx, notif)).To(Succeed())
			Expect(service.HandleNotification(ctx, notif)).To(Succeed())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusPaid))
			// downstream effects ran twice but are idempotent by contract
			Expect(earnings.calls).To(HaveLen(2))
		})

		It("surfaces a booking confirmation failure so the gateway redelivers", func() {
			p := seedPending("INV-1-7")
			confirmer.err = errors.New("bookings table unavailable")

			notif := &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionID:     "txn-1",
				TransactionStatus: gateway.TxnStatusSettlement,
			}
			Expect(service.HandleNotification(ctx, notif)).ToNot(Succeed())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusPaid))

			// the redelivery resumes from booking confirmation and converges
			confirmer.err = nil
			Expect(service.HandleNotification(ctx, notif)).To(Succeed())
			Expect(confirmer.calls).To(HaveLen(2))
			Expect(earnings.calls).To(ContainElement(p.ID))
		})

		It("surfaces an earning storage failure after settlement", func() {
			p := seedPending("INV-1-7")
			earnings.err = errors.New("insert failed")

			err := service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionStatus: gateway.TxnStatusSettlement,
			})
			Expect(err).To(HaveOccurred())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusPaid))
			Expect(confirmer.calls).To(HaveLen(1))
		})

		It("records the transaction id for a pending notification", func() {
			p := seedPending("INV-1-7")

			err := service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionID:     "txn-9",
				TransactionStatus: gateway.TxnStatusPending,
			})
			Expect(err).ToNot(HaveOccurred())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusPending))
			Expect(stored.TransactionID).ToNot(BeNil())
			Expect(*stored.TransactionID).To(Equal("txn-9"))
			Expect(earnings.calls).To(BeEmpty())
		})

		It("marks the payment failed on a deny notification", func() {
			p := seedPending("INV-1-7")

			err := service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionStatus: gateway.TxnStatusDeny,
			})
			Expect(err).ToNot(HaveOccurred())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusFailed))
			Expect(confirmer.calls).To(BeEmpty())
		})

		It("marks the payment expired on an expire notification", func() {
			p := seedPending("INV-1-7")

			err := service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionStatus: gateway.TxnStatusExpire,
			})
			Expect(err).ToNot(HaveOccurred())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusExpired))
		})

		It("never moves a settled payment back out of paid", func() {
			p := seedPending("INV-1-7")
			Expect(service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionStatus: gateway.TxnStatusSettlement,
			})).To(Succeed())

			Expect(service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionStatus: gateway.TxnStatusExpire,
			})).To(Succeed())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusPaid))
		})

		It("ignores unrecognized gateway statuses", func() {
			p := seedPending("INV-1-7")

			err := service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "INV-1-7",
				TransactionStatus: "refund_in_review",
			})
			Expect(err).ToNot(HaveOccurred())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusPending))
		})

		It("falls back to transaction id lookup when the order id misses", func() {
			p := seedPending("INV-1-7")
			Expect(repo.RecordTransactionID(p.ID, "txn-55", nil)).To(Succeed())

			err := service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "unknown-order",
				TransactionID:     "txn-55",
				TransactionStatus: gateway.TxnStatusSettlement,
			})
			Expect(err).ToNot(HaveOccurred())

			stored, _ := repo.GetByID(p.ID)
			Expect(stored.Status).To(Equal(payment.StatusPaid))
		})

		It("returns not found when nothing matches", func() {
			err := service.HandleNotification(ctx, &paymentPkg.GatewayNotification{
				OrderID:           "nope",
				TransactionID:     "nope",
				TransactionStatus: gateway.TxnStatusSettlement,
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("VerifyStatus", func() {
		It("expires a pending payment past its checkout window without polling", func() {
			p := seedPending("INV-1-7")
			past := time.Now().Add(-time.Hour)
			repo.payments[p.ID].ExpiredAt = &past

			resp, err := service.VerifyStatus(ctx, "INV-1-7")
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Status).To(Equal(payment.StatusExpired))
			Expect(gw.statusCalls).To(BeZero())
		})

		It("applies the gateway status for an in-window pending payment", func() {
			seedPending("INV-1-7")
			future := time.Now().Add(time.Hour)
			repo.payments[1].ExpiredAt = &future
			gw.statusResp = &gateway.TransactionStatus{
				OrderID:           "INV-1-7",
				TransactionID:     "txn-3",
				TransactionStatus: gateway.TxnStatusSettlement,
			}

			resp, err := service.VerifyStatus(ctx, "INV-1-7")
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Status).To(Equal(payment.StatusPaid))
			Expect(confirmer.calls).To(ContainElement(int64(7)))
		})

		It("returns the local state when the gateway is unreachable", func() {
			seedPending("INV-1-7")
			future := time.Now().Add(time.Hour)
			repo.payments[1].ExpiredAt = &future
			gw.statusError = errors.New("timeout")

			resp, err := service.VerifyStatus(ctx, "INV-1-7")
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Status).To(Equal(payment.StatusPending))
		})

		It("does not poll for a payment already in a terminal state", func() {
			p := seedPending("INV-1-7")
			repo.payments[p.ID].Status = payment.StatusPaid

			resp, err := service.VerifyStatus(ctx, "INV-1-7")
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Status).To(Equal(payment.StatusPaid))
			Expect(gw.statusCalls).To(BeZero())
		})
	})

	Describe("MapGatewayStatus", func() {
		It("maps the full gateway vocabulary", func() {
			for txn, want := range map[string]string{
				gateway.TxnStatusSettlement: payment.StatusPaid,
				gateway.TxnStatusCapture:    payment.StatusPaid,
				gateway.TxnStatusSuccess:    payment.StatusPaid,
				gateway.TxnStatusPending:    payment.StatusPending,
				gateway.TxnStatusDeny:       payment.StatusFailed,
				gateway.TxnStatusCancel:     payment.StatusFailed,
				gateway.TxnStatusFailure:    payment.StatusFailed,
				gateway.TxnStatusExpire:     payment.StatusExpired,
			} {
				got, ok := paymentPkg.MapGatewayStatus(txn)
				Expect(ok).To(BeTrue(), txn)
				Expect(got).To(Equal(want), txn)
			}

			_, ok := paymentPkg.MapGatewayStatus("chargeback")
			Expect(ok).To(BeFalse())
		})
	})
})
