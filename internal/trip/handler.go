package trip

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
	Finish(ctx context.Context, tripID, guideID int64) (*FinishResult, error)
}

type Handler struct {
	*transport.BaseHandler
	TripService ServiceAPI
	Logger      *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, tripService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		TripService: tripService,
		Logger:      logger,
	}
}

// Finish handles POST /api/v1/guide/trips/{id}/finish
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user.GuideID == 0 {
		h.HandleError(w, errors.ErrGuideNotFound)
		return
	}

	tripID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid trip id", errors.ErrCodeValidationFailed))
		return
	}

	result, err := h.TripService.Finish(r.Context(), tripID, user.GuideID)
	if err != nil {
		h.Logger.Error("Finish: service error", "error", err, "trip_id", tripID, "guide_id", user.GuideID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
