package booking

import (
	"context"
	"log/slog"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/core/datamodel/booking"
	"github.com/pendakian/trip-service/internal/core/datamodel/payment"
	"github.com/pendakian/trip-service/internal/core/datamodel/trip"
	"github.com/pendakian/trip-service/internal/core/datamodel/user"
)

// RepositoryAPI defines booking database operations. ConfirmBooking also
// flips the trip to full when confirmed bookings reach capacity, inside one
// transaction.
type RepositoryAPI interface {
	Create(b *booking.Booking) error
	GetByID(id int64) (*booking.Booking, error)
	GetByUserAndTrip(userID, tripID int64) (*booking.Booking, error)
	ListByUser(userID int64) ([]*booking.Booking, error)
	ConfirmBooking(id int64) error
}

type TripStore interface {
	GetByID(id int64) (*trip.Trip, error)
}

type UserStore interface {
	GetByID(id int64) (*user.User, error)
}

// PaymentCreator opens the checkout session for a fresh booking. Implemented
// by the settlement service.
type PaymentCreator interface {
	CreateForBooking(ctx context.Context, b *booking.Booking, t *trip.Trip, u *user.User) (*payment.Payment, error)
	GetByBookingID(bookingID int64) (*payment.Payment, error)
}

type Service struct {
	repo     RepositoryAPI
	trips    TripStore
	users    UserStore
	payments PaymentCreator
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, trips TripStore, users UserStore, payments PaymentCreator, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		trips:    trips,
		users:    users,
		payments: payments,
		logger:   logger,
	}
}

// BookTrip creates a booking and its checkout session. A repeat booking for
// the same trip returns the existing booking and payment URL as a conflict
// instead of opening a second checkout.
func (s *Service) BookTrip(ctx context.Context, userID, tripID int64) (*BookTripResponse, error) {
	t, err := s.trips.GetByID(tripID)
	if err != nil {
		return nil, errors.ErrTripNotFound
	}
	if t.Status != trip.StatusOpen {
		return nil, errors.NewInvalidStateError("trip is not open for booking", errors.ErrCodeTripNotBookable)
	}

	if existing, err := s.repo.GetByUserAndTrip(userID, tripID); err == nil && existing != nil {
		details := map[string]interface{}{
			"booking_id": existing.ID,
			"status":     existing.Status,
		}
		if pay, payErr := s.payments.GetByBookingID(existing.ID); payErr == nil {
			details["payment_status"] = pay.Status
			if pay.PaymentURL != nil {
				details["payment_url"] = *pay.PaymentURL
			}
		}
		s.logger.Info("duplicate booking attempt",
			"user_id", userID,
			"trip_id", tripID,
			"booking_id", existing.ID)
		return nil, errors.NewConflictError("you already booked this trip", errors.ErrCodeDuplicateBooking).
			WithDetails(details)
	}

	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, errors.NewInternalError("user record not found", err)
	}

	b := &booking.Booking{
		UserID: userID,
		TripID: tripID,
		Status: booking.StatusPending,
	}
	if err := s.repo.Create(b); err != nil {
		s.logger.Error("failed to create booking", "error", err, "user_id", userID, "trip_id", tripID)
		return nil, errors.NewDatabaseError(err)
	}

	pay, err := s.payments.CreateForBooking(ctx, b, t, u)
	if err != nil {
		return nil, err
	}

	s.logger.Info("trip booked",
		"booking_id", b.ID,
		"user_id", userID,
		"trip_id", tripID,
		"invoice_number", pay.InvoiceNumber)

	return &BookTripResponse{
		BookingID:     b.ID,
		TripID:        tripID,
		Status:        b.Status,
		InvoiceNumber: pay.InvoiceNumber,
		Amount:        pay.Amount,
		PaymentURL:    pay.PaymentURL,
	}, nil
}

// UserBookings lists a user's bookings with their payment state.
func (s *Service) UserBookings(ctx context.Context, userID int64) ([]*BookingInfo, error) {
	bookings, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}

	infos := make([]*BookingInfo, 0, len(bookings))
	for _, b := range bookings {
		info := &BookingInfo{
			BookingID: b.ID,
			TripID:    b.TripID,
			Status:    b.Status,
			CreatedAt: b.CreatedAt,
		}
		if t, err := s.trips.GetByID(b.TripID); err == nil {
			info.TripTitle = t.Title
		}
		if pay, err := s.payments.GetByBookingID(b.ID); err == nil {
			info.PaymentStatus = pay.Status
			info.PaymentURL = pay.PaymentURL
			info.Amount = pay.Amount
			info.PaidAt = pay.PaidAt
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// PaymentStatus returns the payment state of one of the user's bookings.
func (s *Service) PaymentStatus(ctx context.Context, bookingID, userID int64) (*PaymentStatusInfo, error) {
	b, err := s.repo.GetByID(bookingID)
	if err != nil {
		return nil, errors.ErrBookingNotFound
	}
	if b.UserID != userID {
		return nil, errors.ErrBookingNotFound
	}

	pay, err := s.payments.GetByBookingID(bookingID)
	if err != nil {
		return nil, errors.ErrPaymentNotFound
	}

	return &PaymentStatusInfo{
		BookingID:     bookingID,
		InvoiceNumber: pay.InvoiceNumber,
		Status:        pay.Status,
		Amount:        pay.Amount,
		PaymentURL:    pay.PaymentURL,
		PaidAt:        pay.PaidAt,
		ExpiredAt:     pay.ExpiredAt,
	}, nil
}
