package earning

import "time"

const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// GuideEarning is one revenue-recognition ledger entry. The composite unique
// index on (guide_id, payment_id) is the idempotency guard that keeps a
// payment from ever being credited to a guide twice, no matter how many
// notification retries or manual triggers touch it.
type GuideEarning struct {
	ID          int64      `gorm:"primaryKey"`
	GuideID     int64      `gorm:"column:guide_id;not null;uniqueIndex:idx_earnings_guide_payment"`
	TripID      int64      `gorm:"column:trip_id;not null"`
	BookingID   int64      `gorm:"column:booking_id;not null"`
	PaymentID   int64      `gorm:"column:payment_id;not null;uniqueIndex:idx_earnings_guide_payment"`
	Amount      int64      `gorm:"column:amount;not null"`
	PlatformFee int64      `gorm:"column:platform_fee;not null"`
	Status      string     `gorm:"column:status;default:pending"`
	Description string     `gorm:"column:description"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}
