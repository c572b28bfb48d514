package withdrawal

import (
	"github.com/pendakian/trip-service/internal/core/common/validation"
)

type WithdrawalRequest struct {
	Amount        int64   `json:"amount"`
	BankName      string  `json:"bank_name"`
	AccountNumber string  `json:"account_number"`
	AccountName   string  `json:"account_name"`
	Notes         *string `json:"notes,omitempty"`
}

func (r *WithdrawalRequest) Validate(minimum int64) error {
	if appErr := validation.ValidateWithdrawalAmount(r.Amount, minimum); appErr != nil {
		return appErr
	}
	if appErr := validation.ValidateBankAccount(r.BankName, r.AccountNumber, r.AccountName); appErr != nil {
		return appErr
	}
	return nil
}

type AdminProcessRequest struct {
	ReferenceNumber string `json:"reference_number,omitempty"`
}

type AdminRejectRequest struct {
	Reason string `json:"reason"`
}

func (r *AdminRejectRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("reason", r.Reason).Required().MaxLength(500)
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
