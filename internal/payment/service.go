package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/core/datamodel/booking"
	"github.com/pendakian/trip-service/internal/core/datamodel/gateway"
	"github.com/pendakian/trip-service/internal/core/datamodel/payment"
	"github.com/pendakian/trip-service/internal/core/datamodel/trip"
	"github.com/pendakian/trip-service/internal/core/datamodel/user"
	"github.com/pendakian/trip-service/internal/core/events"
)

// RepositoryAPI defines payment database operations.
type RepositoryAPI interface {
	Create(p *payment.Payment) error
	GetByID(id int64) (*payment.Payment, error)
	GetByInvoiceNumber(invoiceNumber string) (*payment.Payment, error)
	GetByTransactionID(transactionID string) (*payment.Payment, error)
	GetByBookingID(bookingID int64) (*payment.Payment, error)
	SaveCheckout(id int64, paymentURL string, gatewayResponse json.RawMessage) error
	RecordTransactionID(id int64, transactionID string, gatewayResponse json.RawMessage) error
	// MarkPaid moves a pending payment to paid and reports whether this call
	// won the transition. A false return with nil error means another writer
	// already moved the row out of pending.
	MarkPaid(id int64, transactionID string, gatewayResponse json.RawMessage, paidAt time.Time) (bool, error)
	// MarkTerminal moves a pending payment to failed or expired, same
	// compare-and-swap contract as MarkPaid.
	MarkTerminal(id int64, status string, gatewayResponse json.RawMessage) (bool, error)
}

// GatewayAPI is the slice of the gateway client the settlement engine uses.
type GatewayAPI interface {
	CreateCheckout(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResponse, error)
	TransactionStatus(ctx context.Context, orderID string) (*gateway.TransactionStatus, error)
}

// EarningRecognizer credits a guide for a paid payment. Implementations must
// be idempotent: recognizing the same payment twice leaves one ledger entry.
type EarningRecognizer interface {
	RecognizeFromPayment(ctx context.Context, p *payment.Payment) error
}

// BookingConfirmer flips a booking to confirmed and updates trip capacity.
// Must be idempotent for already-confirmed bookings.
type BookingConfirmer interface {
	ConfirmBooking(bookingID int64) error
}

// ServiceAPI is the surface handlers depend on.
type ServiceAPI interface {
	HandleNotification(ctx context.Context, notif *GatewayNotification) error
	VerifyStatus(ctx context.Context, orderID string) (*PaymentStatusResponse, error)
	GetByBookingID(bookingID int64) (*payment.Payment, error)
}

type Service struct {
	repo          RepositoryAPI
	gatewayClient GatewayAPI
	earnings      EarningRecognizer
	bookings      BookingConfirmer
	eventBus      *events.EventBus
	checkoutTTL   time.Duration
	callbackURL   string
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(repo RepositoryAPI, gatewayClient GatewayAPI, earnings EarningRecognizer, bookings BookingConfirmer, eventBus *events.EventBus, checkoutExpiry time.Duration, callbackURL string, logger *slog.Logger) *Service {
	ttl := checkoutExpiry
	if ttl <= 0 {
		ttl = errors.DefaultCheckoutExpiry
	}
	return &Service{
		repo:          repo,
		gatewayClient: gatewayClient,
		earnings:      earnings,
		bookings:      bookings,
		eventBus:      eventBus,
		checkoutTTL:   ttl,
		callbackURL:   callbackURL,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateForBooking opens a gateway checkout session for a fresh booking and
// persists the pending payment. A checkout failure leaves the payment in
// failed so the booking can be retried with a new invoice.
func (s *Service) CreateForBooking(ctx context.Context, b *booking.Booking, t *trip.Trip, u *user.User) (*payment.Payment, error) {
	now := s.now()
	invoice := GenerateInvoiceNumber(b.ID, now)
	expiredAt := now.Add(s.checkoutTTL)

	rec := &payment.Payment{
		BookingID:     b.ID,
		InvoiceNumber: invoice,
		OrderID:       &invoice,
		Amount:        t.Price,
		Status:        payment.StatusPending,
		ExpiredAt:     &expiredAt,
	}
	if err := s.repo.Create(rec); err != nil {
		s.logger.Error("failed to create payment record", "error", err, "booking_id", b.ID)
		return nil, errors.NewDatabaseError(err)
	}

	chargeReq := &gateway.ChargeRequest{
		OrderID:       invoice,
		GrossAmount:   t.Price,
		CustomerName:  u.Name,
		CustomerEmail: u.Email,
		Items: []gateway.ChargeItem{
			{
				ID:       invoice,
				Name:     t.Title,
				Price:    t.Price,
				Quantity: 1,
			},
		},
		ExpiryHours: int(s.checkoutTTL / time.Hour),
		CallbackURL: s.callbackURL,
	}

	checkout, err := s.gatewayClient.CreateCheckout(ctx, chargeReq)
	if err != nil {
		s.logger.Error("checkout session creation failed",
			"error", err,
			"booking_id", b.ID,
			"invoice_number", invoice)
		if _, termErr := s.repo.MarkTerminal(rec.ID, payment.StatusFailed, nil); termErr != nil {
			s.logger.Error("failed to mark payment failed after checkout error", "error", termErr, "payment_id", rec.ID)
		}
		return nil, errors.NewCheckoutError(err)
	}

	raw, _ := json.Marshal(checkout)
	if err := s.repo.SaveCheckout(rec.ID, checkout.RedirectURL, raw); err != nil {
		s.logger.Error("failed to store checkout session", "error", err, "payment_id", rec.ID)
		return nil, errors.NewDatabaseError(err)
	}
	rec.PaymentURL = &checkout.RedirectURL

	s.logger.Info("payment created",
		"payment_id", rec.ID,
		"booking_id", b.ID,
		"invoice_number", invoice,
		"amount", t.Price)

	return rec, nil
}

// HandleNotification reconciles a gateway callback against the payment ledger.
// The whole path is idempotent: retried or duplicated notifications converge
// on the same final state.
func (s *Service) HandleNotification(ctx context.Context, notif *GatewayNotification) error {
	rec, err := s.lookup(notif)
	if err != nil {
		return err
	}

	raw, _ := json.Marshal(notif)
	return s.applyStatus(ctx, rec, notif.TransactionStatus, notif.TransactionID, raw)
}

// VerifyStatus reconciles a payment against the gateway on demand. A local
// checkout window that already lapsed expires the payment without a gateway
// round trip; a gateway transport failure degrades to the last known local
// state rather than an error.
func (s *Service) VerifyStatus(ctx context.Context, orderID string) (*PaymentStatusResponse, error) {
	rec, err := s.repo.GetByInvoiceNumber(orderID)
	if err != nil {
		return nil, errors.ErrPaymentNotFound
	}

	if rec.CheckoutExpired(s.now()) {
		moved, termErr := s.repo.MarkTerminal(rec.ID, payment.StatusExpired, nil)
		if termErr != nil {
			return nil, errors.NewDatabaseError(termErr)
		}
		if moved {
			rec.Status = payment.StatusExpired
			s.logger.Info("payment expired past checkout window", "payment_id", rec.ID, "invoice_number", rec.InvoiceNumber)
		}
		return statusResponse(rec), nil
	}

	if rec.IsTerminal() {
		return statusResponse(rec), nil
	}

	txn, err := s.gatewayClient.TransactionStatus(ctx, orderID)
	if err != nil {
		s.logger.Warn("gateway status check failed, returning local state",
			"error", err,
			"invoice_number", orderID,
			"status", rec.Status)
		return statusResponse(rec), nil
	}

	raw, _ := json.Marshal(txn)
	if err := s.applyStatus(ctx, rec, txn.TransactionStatus, txn.TransactionID, raw); err != nil {
		return nil, err
	}

	fresh, err := s.repo.GetByID(rec.ID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	return statusResponse(fresh), nil
}

func (s *Service) GetByBookingID(bookingID int64) (*payment.Payment, error) {
	rec, err := s.repo.GetByBookingID(bookingID)
	if err != nil {
		return nil, errors.ErrPaymentNotFound
	}
	return rec, nil
}

func (s *Service) lookup(notif *GatewayNotification) (*payment.Payment, error) {
	if notif.OrderID != "" {
		if rec, err := s.repo.GetByInvoiceNumber(notif.OrderID); err == nil {
			return rec, nil
		}
	}
	if notif.TransactionID != "" {
		if rec, err := s.repo.GetByTransactionID(notif.TransactionID); err == nil {
			return rec, nil
		}
	}
	s.logger.Error("notification matched no payment",
		"order_id", notif.OrderID,
		"transaction_id", notif.TransactionID)
	return nil, errors.ErrPaymentNotFound
}

// applyStatus is the single transition point shared by callback handling and
// on-demand verification.
func (s *Service) applyStatus(ctx context.Context, rec *payment.Payment, txnStatus, txnID string, raw json.RawMessage) error {
	mapped, ok := MapGatewayStatus(txnStatus)
	if !ok {
		s.logger.Warn("unrecognized gateway transaction status, ignoring",
			"transaction_status", txnStatus,
			"payment_id", rec.ID,
			"invoice_number", rec.InvoiceNumber)
		return nil
	}

	switch mapped {
	case payment.StatusPaid:
		return s.settle(ctx, rec, txnID, raw)

	case payment.StatusPending:
		if rec.Status != payment.StatusPending {
			s.logger.Info("pending notification for non-pending payment, ignoring",
				"payment_id", rec.ID, "status", rec.Status)
			return nil
		}
		if txnID != "" {
			if err := s.repo.RecordTransactionID(rec.ID, txnID, raw); err != nil {
				return errors.NewDatabaseError(err)
			}
		}
		return nil

	default: // failed or expired
		moved, err := s.repo.MarkTerminal(rec.ID, mapped, raw)
		if err != nil {
			return errors.NewDatabaseError(err)
		}
		if !moved {
			s.logger.Info("terminal notification for already-settled payment, ignoring",
				"payment_id", rec.ID, "status", rec.Status, "gateway_status", txnStatus)
			return nil
		}
		s.logger.Info("payment marked terminal",
			"payment_id", rec.ID,
			"invoice_number", rec.InvoiceNumber,
			"status", mapped,
			"gateway_status", txnStatus)
		s.eventBus.Publish(ctx, events.NewPaymentFailedEvent(rec.ID, rec.BookingID, rec.InvoiceNumber, txnStatus))
		return nil
	}
}

// settle moves a payment to paid and runs the downstream effects. Losing the
// compare-and-swap race degrades to the resume path: the booking confirmation
// and earning recognition below are themselves idempotent, so retried
// settlements repair any partially applied earlier attempt. A downstream
// failure bubbles up so the caller answers non-2xx and the gateway redelivers;
// the paid row stays put and the retry resumes from booking confirmation.
func (s *Service) settle(ctx context.Context, rec *payment.Payment, txnID string, raw json.RawMessage) error {
	moved, err := s.repo.MarkPaid(rec.ID, txnID, raw, s.now())
	if err != nil {
		return errors.NewDatabaseError(err)
	}

	if !moved {
		fresh, err := s.repo.GetByID(rec.ID)
		if err != nil {
			return errors.NewDatabaseError(err)
		}
		if !fresh.IsPaid() {
			s.logger.Warn("settlement notification for payment in terminal state, ignoring",
				"payment_id", rec.ID,
				"status", fresh.Status)
			return nil
		}
		rec = fresh
	} else {
		rec.Status = payment.StatusPaid
		s.logger.Info("payment settled",
			"payment_id", rec.ID,
			"booking_id", rec.BookingID,
			"invoice_number", rec.InvoiceNumber,
			"amount", rec.Amount)
		s.eventBus.Publish(ctx, events.NewPaymentPaidEvent(rec.ID, rec.BookingID, rec.InvoiceNumber, rec.Amount))
	}

	if err := s.bookings.ConfirmBooking(rec.BookingID); err != nil {
		s.logger.Error("failed to confirm booking after settlement",
			"error", err,
			"payment_id", rec.ID,
			"booking_id", rec.BookingID)
		return fmt.Errorf("confirm booking %d after settlement: %w", rec.BookingID, err)
	}

	if err := s.earnings.RecognizeFromPayment(ctx, rec); err != nil {
		s.logger.Error("failed to recognize earning after settlement",
			"error", err,
			"payment_id", rec.ID)
		return fmt.Errorf("recognize earning for payment %d: %w", rec.ID, err)
	}

	return nil
}

func statusResponse(rec *payment.Payment) *PaymentStatusResponse {
	return &PaymentStatusResponse{
		PaymentID:     rec.ID,
		BookingID:     rec.BookingID,
		InvoiceNumber: rec.InvoiceNumber,
		Status:        rec.Status,
		Amount:        rec.Amount,
		PaymentURL:    rec.PaymentURL,
		PaidAt:        rec.PaidAt,
		ExpiredAt:     rec.ExpiredAt,
	}
}
