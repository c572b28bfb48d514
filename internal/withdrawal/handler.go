package withdrawal

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/auth"
	"github.com/pendakian/trip-service/internal/core/datamodel/withdrawal"
	"github.com/pendakian/trip-service/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Request(ctx context.Context, guideID int64, req *WithdrawalRequest) (*withdrawal.GuideWithdrawal, error)
	CheckStatus(ctx context.Context, withdrawalID, guideID int64) (*withdrawal.GuideWithdrawal, error)
	AdminProcess(ctx context.Context, withdrawalID, adminID int64, referenceNumber string) (*withdrawal.GuideWithdrawal, error)
	AdminReject(ctx context.Context, withdrawalID, adminID int64, reason string) (*withdrawal.GuideWithdrawal, error)
	History(ctx context.Context, guideID int64) ([]*withdrawal.GuideWithdrawal, error)
	ListPending(ctx context.Context) ([]*withdrawal.GuideWithdrawal, error)
}

type Handler struct {
	*transport.BaseHandler
	WithdrawalService ServiceAPI
	Logger            *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, withdrawalService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:       baseHandler,
		WithdrawalService: withdrawalService,
		Logger:            logger,
	}
}

// Request handles POST /api/v1/guide/withdrawals/request
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.GuideID == 0 {
		h.HandleError(w, errors.ErrGuideNotFound)
		return
	}

	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("Request: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	rec, err := h.WithdrawalService.Request(r.Context(), user.GuideID, &req)
	if err != nil {
		h.Logger.Error("Request: service error", "error", err, "guide_id", user.GuideID, "amount", req.Amount)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rec)
}

// History handles GET /api/v1/guide/withdrawals
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.GuideID == 0 {
		h.HandleError(w, errors.ErrGuideNotFound)
		return
	}

	records, err := h.WithdrawalService.History(r.Context(), user.GuideID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"withdrawals": records})
}

// CheckStatus handles GET /api/v1/guide/withdrawals/{id}/status
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.GuideID == 0 {
		h.HandleError(w, errors.ErrGuideNotFound)
		return
	}

	withdrawalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid withdrawal id", errors.ErrCodeValidationFailed))
		return
	}

	rec, err := h.WithdrawalService.CheckStatus(r.Context(), withdrawalID, user.GuideID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rec)
}

// ListPending handles GET /api/v1/admin/withdrawals
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	records, err := h.WithdrawalService.ListPending(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"withdrawals": records})
}

// AdminProcess handles POST /api/v1/admin/withdrawals/{id}/process
func (h *Handler) AdminProcess(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	withdrawalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid withdrawal id", errors.ErrCodeValidationFailed))
		return
	}

	var req AdminProcessRequest
	if r.Body != nil {
		// reference number is optional, an empty body is fine
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	rec, err := h.WithdrawalService.AdminProcess(r.Context(), withdrawalID, user.ID, req.ReferenceNumber)
	if err != nil {
		h.Logger.Error("AdminProcess: service error", "error", err, "withdrawal_id", withdrawalID, "admin_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rec)
}

// AdminReject handles POST /api/v1/admin/withdrawals/{id}/reject
func (h *Handler) AdminReject(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	withdrawalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid withdrawal id", errors.ErrCodeValidationFailed))
		return
	}

	var req AdminRejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rec, err := h.WithdrawalService.AdminReject(r.Context(), withdrawalID, user.ID, req.Reason)
	if err != nil {
		h.Logger.Error("AdminReject: service error", "error", err, "withdrawal_id", withdrawalID, "admin_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rec)
}
