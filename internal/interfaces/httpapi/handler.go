package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/strideline/gridiron-live/internal/platform/logging"
	"github.com/strideline/gridiron-live/internal/usecase"
)

// PollerControl is the slice of the poller the API needs: a manual trigger
// and a status snapshot.
type PollerControl interface {
	PollOnce(ctx context.Context)
	Status() usecase.PollerStatus
}

type Handler struct {
	queryService *usecase.QueryService
	poller       PollerControl
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(queryService *usecase.QueryService, poller PollerControl, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		queryService: queryService,
		poller:       poller,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type recentGamesQuery struct {
	Minutes int `validate:"required,gt=0,lte=10080"`
}

type playsQuery struct {
	Limit int `validate:"gte=0,lte=500"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListGames returns all stored games, optionally filtered by a
// comma-separated status list.
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	rawStatuses := strings.TrimSpace(r.URL.Query().Get("status"))
	if rawStatuses != "" {
		games, err := h.queryService.ListGamesByStatuses(ctx, strings.Split(rawStatuses, ","))
		if err != nil {
			h.logger.WarnContext(ctx, "list games by status failed", "statuses", rawStatuses, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, games)
		return
	}

	games, err := h.queryService.ListGames(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list games failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, games)
}

func (h *Handler) ListLiveGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveGames")
	defer span.End()

	games, err := h.queryService.ListLiveGames(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list live games failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, games)
}

func (h *Handler) ListRecentGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRecentGames")
	defer span.End()

	minutes, err := intQueryParam(r, "minutes", 5)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, recentGamesQuery{Minutes: minutes}); err != nil {
		writeError(ctx, w, err)
		return
	}

	games, err := h.queryService.ListRecentGames(ctx, minutes)
	if err != nil {
		h.logger.WarnContext(ctx, "list recent games failed", "minutes", minutes, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, games)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGame")
	defer span.End()

	gameID := r.PathValue("gameID")
	update, err := h.queryService.GetGame(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "get game failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, update)
}

func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamStats")
	defer span.End()

	gameID := r.PathValue("gameID")
	side := r.PathValue("side")
	team, err := h.queryService.GetTeamStats(ctx, gameID, side)
	if err != nil {
		h.logger.WarnContext(ctx, "get team stats failed", "game_id", gameID, "side", side, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, team)
}

func (h *Handler) ListGamePlays(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGamePlays")
	defer span.End()

	gameID := r.PathValue("gameID")
	limit, err := intQueryParam(r, "limit", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, playsQuery{Limit: limit}); err != nil {
		writeError(ctx, w, err)
		return
	}

	plays, err := h.queryService.GetPlays(ctx, gameID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list game plays failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, plays)
}

func (h *Handler) PollerStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PollerStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.poller.Status())
}

// TriggerPoll runs one poll cycle inline. If a background cycle is already
// running the trigger is counted as a skip, same as an overlapping timer
// tick.
func (h *Handler) TriggerPoll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerPoll")
	defer span.End()

	h.poller.PollOnce(ctx)

	writeSuccess(ctx, w, http.StatusAccepted, h.poller.Status())
}

func intQueryParam(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", usecase.ErrInvalidInput, name, raw)
	}
	return value, nil
}
