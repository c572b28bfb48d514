package gateway

import "errors"

// Transaction status vocabulary reported by the processor for charges.
// These are gateway-specific strings; the settlement engine owns the mapping
// into the internal payment status vocabulary.
const (
	TxnStatusSettlement = "settlement"
	TxnStatusCapture    = "capture"
	TxnStatusSuccess    = "success"
	TxnStatusPending    = "pending"
	TxnStatusDeny       = "deny"
	TxnStatusCancel     = "cancel"
	TxnStatusExpire     = "expire"
	TxnStatusFailure    = "failure"
)

// Payout status vocabulary reported by the processor's disbursement API.
const (
	PayoutStatusQueued     = "queued"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
)

type ChargeItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type ChargeRequest struct {
	OrderID       string       `json:"order_id"`
	GrossAmount   int64        `json:"gross_amount"`
	CustomerName  string       `json:"customer_name"`
	CustomerEmail string       `json:"customer_email"`
	Items         []ChargeItem `json:"items"`
	ExpiryHours   int          `json:"expiry_hours"`
	CallbackURL   string       `json:"callback_url,omitempty"`
}

func (r *ChargeRequest) Validate() error {
	if r.OrderID == "" {
		return errors.New("order_id is required")
	}
	if r.GrossAmount <= 0 {
		return errors.New("gross_amount must be greater than 0")
	}
	return nil
}

type ChargeResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type TransactionStatus struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	GrossAmount       int64  `json:"gross_amount"`
}

type PayoutRequest struct {
	ReferenceNo        string `json:"reference_no"`
	BeneficiaryName    string `json:"beneficiary_name"`
	BeneficiaryAccount string `json:"beneficiary_account"`
	BeneficiaryBank    string `json:"beneficiary_bank"`
	BeneficiaryEmail   string `json:"beneficiary_email,omitempty"`
	Amount             int64  `json:"amount"`
	Notes              string `json:"notes,omitempty"`
}

func (r *PayoutRequest) Validate() error {
	if r.ReferenceNo == "" {
		return errors.New("reference_no is required")
	}
	if r.BeneficiaryAccount == "" || r.BeneficiaryBank == "" {
		return errors.New("beneficiary bank and account are required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be greater than 0")
	}
	return nil
}

type PayoutResult struct {
	PayoutID string `json:"payout_id"`
	Status   string `json:"status"`
}
