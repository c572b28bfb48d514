package trip

import "time"

const (
	StatusOpen   = "open"
	StatusFull   = "full"
	StatusClosed = "closed"
)

type Trip struct {
	ID          int64      `gorm:"primaryKey"`
	GuideID     int64      `gorm:"column:guide_id;not null;index"`
	MountainID  int64      `gorm:"column:mountain_id;not null"`
	Title       string     `gorm:"column:title;not null"`
	Price       int64      `gorm:"column:price;not null"`
	Capacity    int        `gorm:"column:capacity;not null"`
	Status      string     `gorm:"column:status;default:open"`
	StartDate   time.Time  `gorm:"column:start_date"`
	EndDate     time.Time  `gorm:"column:end_date"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (t *Trip) Ended(now time.Time) bool {
	return now.After(t.EndDate)
}
