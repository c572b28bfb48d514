package postgres

import (
	"encoding/json"
	"time"

	"github.com/pendakian/trip-service/internal/core/datamodel/payment"
	paymentpkg "github.com/pendakian/trip-service/internal/payment"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

func (r *PaymentRepository) Create(p *payment.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByInvoiceNumber(invoiceNumber string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.Where("invoice_number = ?", invoiceNumber).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByTransactionID(transactionID string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.Where("transaction_id = ?", transactionID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByBookingID(bookingID int64) (*payment.Payment, error) {
	var p payment.Payment
	err := r.db.Where("booking_id = ?", bookingID).Order("created_at DESC").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) SaveCheckout(id int64, paymentURL string, gatewayResponse json.RawMessage) error {
	updates := map[string]interface{}{
		"payment_url": paymentURL,
		"updated_at":  time.Now(),
	}
	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}
	return r.db.Model(&payment.Payment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *PaymentRepository) RecordTransactionID(id int64, transactionID string, gatewayResponse json.RawMessage) error {
	updates := map[string]interface{}{
		"transaction_id": transactionID,
		"updated_at":     time.Now(),
	}
	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}
	return r.db.Model(&payment.Payment{}).
		Where("id = ? AND status = ?", id, payment.StatusPending).
		Updates(updates).Error
}

// MarkPaid is the compare-and-swap that guards against duplicate settlement:
// the WHERE clause only matches while the row is still pending, so exactly
// one concurrent writer observes RowsAffected == 1.
func (r *PaymentRepository) MarkPaid(id int64, transactionID string, gatewayResponse json.RawMessage, paidAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     payment.StatusPaid,
		"paid_at":    paidAt,
		"updated_at": time.Now(),
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}

	res := r.db.Model(&payment.Payment{}).
		Where("id = ? AND status = ?", id, payment.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentRepository) MarkTerminal(id int64, status string, gatewayResponse json.RawMessage) (bool, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if gatewayResponse != nil {
		updates["gateway_response"] = gatewayResponse
	}

	res := r.db.Model(&payment.Payment{}).
		Where("id = ? AND status = ?", id, payment.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
