// Package notification consumes settlement events for user-facing messaging.
// Delivery is best-effort: a missed notification never blocks or rolls back a
// ledger write. Actual channel integrations (email, push) hang off Notifier.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pendakian/trip-service/internal/core/events"
)

type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger: logger,
	}
}

func (n *Notifier) HandlePaymentPaid(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentPaidEvent)
	if !ok {
		return fmt.Errorf("expected PaymentPaidEvent, got %T", event)
	}

	n.logger.Info("notify: payment settled",
		"payment_id", e.PaymentID,
		"booking_id", e.BookingID,
		"invoice_number", e.InvoiceNumber,
		"amount", e.Amount,
		"event_id", e.EventID())

	return nil
}

func (n *Notifier) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	n.logger.Info("notify: payment failed",
		"payment_id", e.PaymentID,
		"booking_id", e.BookingID,
		"gateway_status", e.GatewayStatus,
		"event_id", e.EventID())

	return nil
}

func (n *Notifier) HandleEarningRecorded(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.EarningRecordedEvent)
	if !ok {
		return fmt.Errorf("expected EarningRecordedEvent, got %T", event)
	}

	n.logger.Info("notify: earning recorded",
		"earning_id", e.EarningID,
		"guide_id", e.GuideID,
		"amount", e.Amount,
		"event_id", e.EventID())

	return nil
}

func (n *Notifier) HandleWithdrawalSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.WithdrawalEvent)
	if !ok {
		return fmt.Errorf("expected WithdrawalEvent, got %T", event)
	}

	n.logger.Info("notify: withdrawal submitted",
		"withdrawal_id", e.WithdrawalID,
		"guide_id", e.GuideID,
		"amount", e.Amount,
		"event_id", e.EventID())

	return nil
}

func (n *Notifier) HandleWithdrawalResolved(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.WithdrawalEvent)
	if !ok {
		return fmt.Errorf("expected WithdrawalEvent, got %T", event)
	}

	n.logger.Info("notify: withdrawal resolved",
		"withdrawal_id", e.WithdrawalID,
		"guide_id", e.GuideID,
		"status", e.Status,
		"event_id", e.EventID())

	return nil
}

func (n *Notifier) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentPaid, n.HandlePaymentPaid)
	eventBus.Subscribe(events.EventTypePaymentFailed, n.HandlePaymentFailed)
	eventBus.Subscribe(events.EventTypeEarningRecorded, n.HandleEarningRecorded)
	eventBus.Subscribe(events.EventTypeWithdrawalSubmitted, n.HandleWithdrawalSubmitted)
	eventBus.Subscribe(events.EventTypeWithdrawalResolved, n.HandleWithdrawalResolved)

	n.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypePaymentPaid,
			events.EventTypePaymentFailed,
			events.EventTypeEarningRecorded,
			events.EventTypeWithdrawalSubmitted,
			events.EventTypeWithdrawalResolved,
		})
}
