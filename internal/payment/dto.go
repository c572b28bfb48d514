package payment

import (
	"time"

	"github.com/pendakian/trip-service/internal/core/common/validation"
)

// GatewayNotification is the callback payload the processor POSTs after a
// transaction changes state. GrossAmount arrives as a decimal string.
type GatewayNotification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	GrossAmount       string `json:"gross_amount,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionTime   string `json:"transaction_time,omitempty"`
	StatusMessage     string `json:"status_message,omitempty"`
}

func (n *GatewayNotification) Validate() error {
	validator := validation.NewValidator()

	validator.Field("transaction_status", n.TransactionStatus).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type PaymentStatusResponse struct {
	PaymentID     int64      `json:"payment_id"`
	BookingID     int64      `json:"booking_id"`
	InvoiceNumber string     `json:"invoice_number"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	PaymentURL    *string    `json:"payment_url,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	ExpiredAt     *time.Time `json:"expired_at,omitempty"`
}

type CallbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
