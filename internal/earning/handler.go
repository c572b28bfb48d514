package earning

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
	ComputeBalance(ctx context.Context, guideID int64) (*Balance, error)
	EarningsOverview(ctx context.Context, guideID int64) (*OverviewResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	EarningService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, earningService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:    baseHandler,
		EarningService: earningService,
		Logger:         logger,
	}
}

// Overview handles GET /api/v1/guide/earnings
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.GuideID == 0 {
		h.HandleError(w, errors.ErrGuideNotFound)
		return
	}

	overview, err := h.EarningService.EarningsOverview(r.Context(), user.GuideID)
	if err != nil {
		h.Logger.Error("Overview: service error", "error", err, "guide_id", user.GuideID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, overview)
}

// Summary handles GET /api/v1/guide/earnings/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.GuideID == 0 {
		h.HandleError(w, errors.ErrGuideNotFound)
		return
	}

	balance, err := h.EarningService.ComputeBalance(r.Context(), user.GuideID)
	if err != nil {
		h.Logger.Error("Summary: service error", "error", err, "guide_id", user.GuideID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, balance)
}

// GuideBalance handles GET /api/v1/admin/guides/{id}/balance
func (h *Handler) GuideBalance(w http.ResponseWriter, r *http.Request) {
	guideID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid guide id", errors.ErrCodeValidationFailed))
		return
	}

	balance, err := h.EarningService.ComputeBalance(r.Context(), guideID)
	if err != nil {
		h.Logger.Error("GuideBalance: service error", "error", err, "guide_id", guideID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, balance)
}
