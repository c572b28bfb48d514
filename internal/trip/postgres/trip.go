package postgres

import (
	"time"

	"github.com/pendakian/trip-service/internal/core/datamodel/guide"
	"github.com/pendakian/trip-service/internal/core/datamodel/trip"
	"gorm.io/gorm"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{
		db: db,
	}
}

func (r *TripRepository) GetByID(id int64) (*trip.Trip, error) {
	var t trip.Trip
	err := r.db.First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TripRepository) Close(id int64, completedAt time.Time) (bool, error) {
	res := r.db.Model(&trip.Trip{}).
		Where("id = ? AND status IN ?", id, []string{trip.StatusOpen, trip.StatusFull}).
		Updates(map[string]interface{}{
			"status":       trip.StatusClosed,
			"completed_at": completedAt,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GuideRepository lives alongside trips: every trip is led by a guide and the
// payout pipeline needs the guide's contact details.
type GuideRepository struct {
	db *gorm.DB
}

func NewGuideRepository(db *gorm.DB) *GuideRepository {
	return &GuideRepository{
		db: db,
	}
}

func (r *GuideRepository) GetByID(id int64) (*guide.Guide, error) {
	var g guide.Guide
	err := r.db.First(&g, id).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GuideRepository) GetByUserID(userID int64) (*guide.Guide, error) {
	var g guide.Guide
	err := r.db.Where("user_id = ?", userID).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}
