package payment

import (
	"log/slog"
	"net/http"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	PaymentService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:    baseHandler,
		PaymentService: paymentService,
		Logger:         logger,
	}
}

// VerifyStatus handles GET /api/v1/payments/{orderId}/verify
func (h *Handler) VerifyStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		h.HandleError(w, errors.NewValidationError("order id is required", errors.ErrCodeValidationFailed))
		return
	}

	status, err := h.PaymentService.VerifyStatus(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("VerifyStatus: service error", "error", err, "order_id", orderID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, status)
}
