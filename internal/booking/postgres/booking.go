package postgres

import (
	"time"

	"github.com/pendakian/trip-service/internal/core/datamodel/booking"
	"github.com/pendakian/trip-service/internal/core/datamodel/trip"
	"github.com/pendakian/trip-service/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{
		db: db,
	}
}

func (r *BookingRepository) Create(b *booking.Booking) error {
	return r.db.Create(b).Error
}

func (r *BookingRepository) GetByID(id int64) (*booking.Booking, error) {
	var b booking.Booking
	err := r.db.First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetByUserAndTrip(userID, tripID int64) (*booking.Booking, error) {
	var b booking.Booking
	err := r.db.Where("user_id = ? AND trip_id = ?", userID, tripID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) ListByUser(userID int64) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) ListConfirmedByTrip(tripID int64) ([]*booking.Booking, error) {
	var bookings []*booking.Booking
	err := r.db.Where("trip_id = ? AND status = ?", tripID, booking.StatusConfirmed).Find(&bookings).Error
	return bookings, err
}

// ConfirmBooking flips a booking to confirmed and marks the trip full once
// confirmed bookings reach capacity, in one transaction. Idempotent for
// already-confirmed bookings.
func (r *BookingRepository) ConfirmBooking(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var b booking.Booking
		if err := tx.First(&b, id).Error; err != nil {
			return err
		}
		if b.Status == booking.StatusConfirmed {
			return nil
		}

		if err := tx.Model(&booking.Booking{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     booking.StatusConfirmed,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		var t trip.Trip
		if err := tx.First(&t, b.TripID).Error; err != nil {
			return err
		}

		var confirmed int64
		if err := tx.Model(&booking.Booking{}).
			Where("trip_id = ? AND status = ?", b.TripID, booking.StatusConfirmed).
			Count(&confirmed).Error; err != nil {
			return err
		}

		if t.Status == trip.StatusOpen && confirmed >= int64(t.Capacity) {
			if err := tx.Model(&trip.Trip{}).
				Where("id = ?", t.ID).
				Updates(map[string]interface{}{
					"status":     trip.StatusFull,
					"updated_at": time.Now(),
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// UserRepository serves the customer lookups checkout needs.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}
