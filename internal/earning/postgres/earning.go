package postgres

import (
	"github.com/pendakian/trip-service/internal/core/datamodel/earning"
	earningpkg "github.com/pendakian/trip-service/internal/earning"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EarningRepository struct {
	db *gorm.DB
}

func NewEarningRepository(db *gorm.DB) earningpkg.RepositoryAPI {
	return &EarningRepository{
		db: db,
	}
}

// CreateIfAbsent relies on the unique (guide_id, payment_id) index: a
// conflicting insert is silently dropped and reported via RowsAffected.
func (r *EarningRepository) CreateIfAbsent(e *earning.GuideEarning) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guide_id"}, {Name: "payment_id"}},
		DoNothing: true,
	}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *EarningRepository) ListByGuide(guideID int64, limit int) ([]*earning.GuideEarning, error) {
	var entries []*earning.GuideEarning
	q := r.db.Where("guide_id = ?", guideID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}

func (r *EarningRepository) SumProcessedByGuide(guideID int64) (int64, error) {
	var total int64
	err := r.db.Model(&earning.GuideEarning{}).
		Where("guide_id = ? AND status = ?", guideID, earning.StatusProcessed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
