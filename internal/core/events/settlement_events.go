package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentPaid         = "payment.paid"
	EventTypePaymentFailed       = "payment.failed"
	EventTypeEarningRecorded     = "earning.recorded"
	EventTypeWithdrawalSubmitted = "withdrawal.submitted"
	EventTypeWithdrawalResolved  = "withdrawal.resolved"
)

type PaymentPaidEvent struct {
	BaseEvent
	PaymentID     int64  `json:"payment_id"`
	BookingID     int64  `json:"booking_id"`
	InvoiceNumber string `json:"invoice_number"`
	Amount        int64  `json:"amount"`
}

func NewPaymentPaidEvent(paymentID, bookingID int64, invoiceNumber string, amount int64) *PaymentPaidEvent {
	return &PaymentPaidEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentPaid,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"booking_id":     bookingID,
				"invoice_number": invoiceNumber,
				"amount":         amount,
			},
		},
		PaymentID:     paymentID,
		BookingID:     bookingID,
		InvoiceNumber: invoiceNumber,
		Amount:        amount,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	PaymentID     int64  `json:"payment_id"`
	BookingID     int64  `json:"booking_id"`
	InvoiceNumber string `json:"invoice_number"`
	GatewayStatus string `json:"gateway_status"`
}

func NewPaymentFailedEvent(paymentID, bookingID int64, invoiceNumber, gatewayStatus string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"booking_id":     bookingID,
				"invoice_number": invoiceNumber,
				"gateway_status": gatewayStatus,
			},
		},
		PaymentID:     paymentID,
		BookingID:     bookingID,
		InvoiceNumber: invoiceNumber,
		GatewayStatus: gatewayStatus,
	}
}

type EarningRecordedEvent struct {
	BaseEvent
	EarningID   int64 `json:"earning_id"`
	GuideID     int64 `json:"guide_id"`
	PaymentID   int64 `json:"payment_id"`
	Amount      int64 `json:"amount"`
	PlatformFee int64 `json:"platform_fee"`
}

func NewEarningRecordedEvent(earningID, guideID, paymentID, amount, platformFee int64) *EarningRecordedEvent {
	return &EarningRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEarningRecorded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"earning_id":   earningID,
				"guide_id":     guideID,
				"payment_id":   paymentID,
				"amount":       amount,
				"platform_fee": platformFee,
			},
		},
		EarningID:   earningID,
		GuideID:     guideID,
		PaymentID:   paymentID,
		Amount:      amount,
		PlatformFee: platformFee,
	}
}

type WithdrawalEvent struct {
	BaseEvent
	WithdrawalID int64  `json:"withdrawal_id"`
	GuideID      int64  `json:"guide_id"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
}

func newWithdrawalEvent(eventType string, withdrawalID, guideID, amount int64, status string) *WithdrawalEvent {
	return &WithdrawalEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"withdrawal_id": withdrawalID,
				"guide_id":      guideID,
				"amount":        amount,
				"status":        status,
			},
		},
		WithdrawalID: withdrawalID,
		GuideID:      guideID,
		Amount:       amount,
		Status:       status,
	}
}

func NewWithdrawalSubmittedEvent(withdrawalID, guideID, amount int64, status string) *WithdrawalEvent {
	return newWithdrawalEvent(EventTypeWithdrawalSubmitted, withdrawalID, guideID, amount, status)
}

func NewWithdrawalResolvedEvent(withdrawalID, guideID, amount int64, status string) *WithdrawalEvent {
	return newWithdrawalEvent(EventTypeWithdrawalResolved, withdrawalID, guideID, amount, status)
}
