package payment

import (
	"encoding/json"
	"time"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
	StatusExpired = "expired"
)

// Payment tracks the monetary lifecycle of a single booking. InvoiceNumber is
// the merchant-generated order identifier sent to the gateway and the primary
// join key for reconciling gateway notifications.
type Payment struct {
	ID              int64           `gorm:"primaryKey"`
	BookingID       int64           `gorm:"column:booking_id;not null;uniqueIndex"`
	InvoiceNumber   string          `gorm:"column:invoice_number;not null;uniqueIndex"`
	OrderID         *string         `gorm:"column:order_id"`
	TransactionID   *string         `gorm:"column:transaction_id"`
	Amount          int64           `gorm:"column:amount;not null"`
	Status          string          `gorm:"column:status;default:pending"`
	PaymentURL      *string         `gorm:"column:payment_url"`
	GatewayResponse json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	PaidAt          *time.Time      `gorm:"column:paid_at"`
	ExpiredAt       *time.Time      `gorm:"column:expired_at"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (p *Payment) IsPaid() bool {
	return p.Status == StatusPaid
}

// IsTerminal reports whether the payment has reached a state that no gateway
// notification may move it out of.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusPaid, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// CheckoutExpired reports whether a still-pending payment outlived its
// checkout window.
func (p *Payment) CheckoutExpired(now time.Time) bool {
	return p.Status == StatusPending && p.ExpiredAt != nil && now.After(*p.ExpiredAt)
}
