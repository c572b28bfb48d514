package postgres

import (
	"time"

	"github.com/pendakian/trip-service/internal/core/datamodel/withdrawal"
	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository returns the concrete repository: it backs both the
// withdrawal pipeline and the earning balance calculator's ledger view.
func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{
		db: db,
	}
}

func (r *WithdrawalRepository) Create(w *withdrawal.GuideWithdrawal) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id int64) (*withdrawal.GuideWithdrawal, error) {
	var w withdrawal.GuideWithdrawal
	err := r.db.First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) ListByGuide(guideID int64, limit int) ([]*withdrawal.GuideWithdrawal, error) {
	var records []*withdrawal.GuideWithdrawal
	q := r.db.Where("guide_id = ?", guideID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

func (r *WithdrawalRepository) ListByStatus(status string) ([]*withdrawal.GuideWithdrawal, error) {
	var records []*withdrawal.GuideWithdrawal
	err := r.db.Where("status = ?", status).Order("created_at ASC").Find(&records).Error
	return records, err
}

func (r *WithdrawalRepository) SetReference(id int64, referenceNumber string) error {
	return r.db.Model(&withdrawal.GuideWithdrawal{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reference_number": referenceNumber,
			"updated_at":       time.Now(),
		}).Error
}

func (r *WithdrawalRepository) MarkProcessing(id int64, transactionID string) error {
	return r.db.Model(&withdrawal.GuideWithdrawal{}).
		Where("id = ? AND status = ?", id, withdrawal.StatusPending).
		Updates(map[string]interface{}{
			"status":         withdrawal.StatusProcessing,
			"transaction_id": transactionID,
			"updated_at":     time.Now(),
		}).Error
}

func (r *WithdrawalRepository) MarkProcessed(id int64, processedAt time.Time, processedBy *int64, referenceNumber *string) error {
	updates := map[string]interface{}{
		"status":       withdrawal.StatusProcessed,
		"processed_at": processedAt,
		"updated_at":   time.Now(),
	}
	if processedBy != nil {
		updates["processed_by"] = *processedBy
	}
	if referenceNumber != nil {
		updates["reference_number"] = *referenceNumber
	}
	return r.db.Model(&withdrawal.GuideWithdrawal{}).
		Where("id = ? AND status IN ?", id, []string{withdrawal.StatusPending, withdrawal.StatusProcessing}).
		Updates(updates).Error
}

func (r *WithdrawalRepository) MarkFailed(id int64, reason string) error {
	return r.db.Model(&withdrawal.GuideWithdrawal{}).
		Where("id = ? AND status IN ?", id, []string{withdrawal.StatusPending, withdrawal.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":        withdrawal.StatusFailed,
			"reject_reason": reason,
			"updated_at":    time.Now(),
		}).Error
}

func (r *WithdrawalRepository) MarkRejected(id int64, rejectedAt time.Time, rejectedBy int64, reason string) error {
	return r.db.Model(&withdrawal.GuideWithdrawal{}).
		Where("id = ? AND status = ?", id, withdrawal.StatusPending).
		Updates(map[string]interface{}{
			"status":        withdrawal.StatusRejected,
			"rejected_at":   rejectedAt,
			"rejected_by":   rejectedBy,
			"reject_reason": reason,
			"updated_at":    time.Now(),
		}).Error
}

// SumProcessedByGuide and SumReservedByGuide feed the balance calculator.

func (r *WithdrawalRepository) SumProcessedByGuide(guideID int64) (int64, error) {
	var total int64
	err := r.db.Model(&withdrawal.GuideWithdrawal{}).
		Where("guide_id = ? AND status = ?", guideID, withdrawal.StatusProcessed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *WithdrawalRepository) SumReservedByGuide(guideID int64) (int64, error) {
	var total int64
	err := r.db.Model(&withdrawal.GuideWithdrawal{}).
		Where("guide_id = ? AND status IN ?", guideID, []string{withdrawal.StatusPending, withdrawal.StatusProcessing}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
