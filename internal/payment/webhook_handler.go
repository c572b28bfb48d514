package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/transport"
)

// WebhookHandler receives gateway-initiated requests: asynchronous settlement
// callbacks and the synchronous browser return after checkout.
type WebhookHandler struct {
	*transport.BaseHandler
	paymentService ServiceAPI
	logger         *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, paymentService ServiceAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:    baseHandler,
		paymentService: paymentService,
		logger:         logger,
	}
}

// HandleCallback handles POST /api/v1/payments/callback. The gateway retries
// callbacks until it sees a 2xx, so any response here must be safe to repeat.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	var notif GatewayNotification
	if err := json.NewDecoder(r.Body).Decode(&notif); err != nil {
		h.logger.Error("invalid gateway callback payload", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.logger.Info("received gateway callback",
		"order_id", notif.OrderID,
		"transaction_id", notif.TransactionID,
		"transaction_status", notif.TransactionStatus)

	if err := notif.Validate(); err != nil {
		h.logger.Error("gateway callback validation failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	if notif.OrderID == "" && notif.TransactionID == "" {
		h.WriteError(w, http.StatusBadRequest, "order_id or transaction_id is required")
		return
	}

	if err := h.paymentService.HandleNotification(r.Context(), &notif); err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodePaymentNotFound {
			// 404 keeps the gateway from retrying a callback that can never match.
			h.HandleServiceError(w, err)
			return
		}
		h.logger.Error("failed to process gateway callback",
			"error", err,
			"order_id", notif.OrderID,
			"transaction_status", notif.TransactionStatus)
		h.WriteError(w, http.StatusInternalServerError, "failed to process callback")
		return
	}

	h.WriteJSON(w, http.StatusOK, CallbackResponse{
		Status:  "success",
		Message: "callback processed",
	})
}

// HandleReturn handles POST /api/v1/payments/return: the browser redirect
// after hosted checkout. It runs the same reconciliation as a callback but
// reports the resulting payment state back to the caller.
func (h *WebhookHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("invalid payment return payload", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		h.WriteError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	status, err := h.paymentService.VerifyStatus(r.Context(), req.OrderID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, status)
}
