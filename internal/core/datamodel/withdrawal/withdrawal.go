package withdrawal

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusRejected   = "rejected"
	StatusFailed     = "failed"
)

// GuideWithdrawal is a payout request against a guide's earned balance.
// Lifecycle: pending -> processing -> {processed, failed} via the gateway,
// or pending -> {processed, rejected} via manual admin action.
type GuideWithdrawal struct {
	ID              int64      `gorm:"primaryKey"`
	GuideID         int64      `gorm:"column:guide_id;not null;index"`
	Amount          int64      `gorm:"column:amount;not null"`
	Status          string     `gorm:"column:status;default:pending"`
	BankName        string     `gorm:"column:bank_name;not null"`
	AccountNumber   string     `gorm:"column:account_number;not null"`
	AccountName     string     `gorm:"column:account_name;not null"`
	Notes           *string    `gorm:"column:notes"`
	TransactionID   *string    `gorm:"column:transaction_id"`
	ReferenceNumber *string    `gorm:"column:reference_number"`
	ProcessedAt     *time.Time `gorm:"column:processed_at"`
	ProcessedBy     *int64     `gorm:"column:processed_by"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`
	RejectedBy      *int64     `gorm:"column:rejected_by"`
	RejectReason    *string    `gorm:"column:reject_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (w *GuideWithdrawal) IsTerminal() bool {
	switch w.Status {
	case StatusProcessed, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo enforces the withdrawal state machine: processing is only
// reachable from pending, terminal states only from pending or processing,
// and nothing leaves a terminal state.
func (w *GuideWithdrawal) CanTransitionTo(next string) bool {
	switch w.Status {
	case StatusPending:
		switch next {
		case StatusProcessing, StatusProcessed, StatusRejected, StatusFailed:
			return true
		}
	case StatusProcessing:
		switch next {
		case StatusProcessed, StatusFailed:
			return true
		}
	}
	return false
}
