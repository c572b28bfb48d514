package booking

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/auth"
	"github.com/pendakian/trip-service/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	BookTrip(ctx context.Context, userID, tripID int64) (*BookTripResponse, error)
	UserBookings(ctx context.Context, userID int64) ([]*BookingInfo, error)
	PaymentStatus(ctx context.Context, bookingID, userID int64) (*PaymentStatusInfo, error)
}

type Handler struct {
	*transport.BaseHandler
	BookingService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, bookingService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:    baseHandler,
		BookingService: bookingService,
		Logger:         logger,
	}
}

// BookTrip handles POST /api/v1/trips/{id}/book
func (h *Handler) BookTrip(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	tripID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid trip id", errors.ErrCodeValidationFailed))
		return
	}

	resp, err := h.BookingService.BookTrip(r.Context(), user.ID, tripID)
	if err != nil {
		h.Logger.Error("BookTrip: service error", "error", err, "user_id", user.ID, "trip_id", tripID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, resp)
}

// UserBookings handles GET /api/v1/bookings
func (h *Handler) UserBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	bookings, err := h.BookingService.UserBookings(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

// PaymentStatus handles GET /api/v1/bookings/{id}/payment-status
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	bookingID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid booking id", errors.ErrCodeValidationFailed))
		return
	}

	status, err := h.BookingService.PaymentStatus(r.Context(), bookingID, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, status)
}
