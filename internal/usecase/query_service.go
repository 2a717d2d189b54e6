package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/strideline/gridiron-live/internal/domain/gameupdate"
)

type QueryConfig struct {
	// LiveStatuses are the human-readable status values that count as an
	// in-progress game, e.g. "In Progress" and "Halftime".
	LiveStatuses []string
}

// QueryService answers read requests over stored game records. It never
// touches the feed; everything it serves was written by the poller.
type QueryService struct {
	repo         gameupdate.Repository
	liveStatuses []string
}

func NewQueryService(repo gameupdate.Repository, cfg QueryConfig) (*QueryService, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}

	liveStatuses := cfg.LiveStatuses
	if len(liveStatuses) == 0 {
		liveStatuses = []string{"In Progress", "Halftime"}
	}

	return &QueryService{repo: repo, liveStatuses: liveStatuses}, nil
}

func (s *QueryService) ListGames(ctx context.Context) ([]gameupdate.Summary, error) {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return summaries, nil
}

func (s *QueryService) ListGamesByStatuses(ctx context.Context, statuses []string) ([]gameupdate.Summary, error) {
	cleaned := make([]string, 0, len(statuses))
	for _, status := range statuses {
		status = strings.TrimSpace(status)
		if status != "" {
			cleaned = append(cleaned, status)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one status is required", ErrInvalidInput)
	}

	summaries, err := s.repo.ListByStatuses(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("list games by status: %w", err)
	}
	return summaries, nil
}

// ListLiveGames returns games whose stored status matches the configured
// live statuses.
func (s *QueryService) ListLiveGames(ctx context.Context) ([]gameupdate.Summary, error) {
	summaries, err := s.repo.ListByStatuses(ctx, s.liveStatuses)
	if err != nil {
		return nil, fmt.Errorf("list live games: %w", err)
	}
	return summaries, nil
}

// ListRecentGames returns games updated within the trailing window.
func (s *QueryService) ListRecentGames(ctx context.Context, minutes int) ([]gameupdate.Summary, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive", ErrInvalidInput)
	}

	since := time.Now().UTC().Add(-time.Duration(minutes) * time.Minute)
	summaries, err := s.repo.ListUpdatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list recent games: %w", err)
	}
	return summaries, nil
}

func (s *QueryService) GetGame(ctx context.Context, gameID string) (gameupdate.Update, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return gameupdate.Update{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	update, found, err := s.repo.GetByGameID(ctx, gameID)
	if err != nil {
		return gameupdate.Update{}, fmt.Errorf("get game %s: %w", gameID, err)
	}
	if !found {
		return gameupdate.Update{}, fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	return update, nil
}

// GetTeamStats returns one side's team block for a game. side accepts
// "home" or "away" in any casing.
func (s *QueryService) GetTeamStats(ctx context.Context, gameID, side string) (gameupdate.Team, error) {
	normalized, ok := gameupdate.NormalizeSide(side)
	if !ok {
		return gameupdate.Team{}, fmt.Errorf("%w: side must be home or away, got %q", ErrInvalidInput, side)
	}

	update, err := s.GetGame(ctx, gameID)
	if err != nil {
		return gameupdate.Team{}, err
	}

	if normalized == gameupdate.SideHome {
		return update.Game.HomeTeam, nil
	}
	return update.Game.AwayTeam, nil
}

// GetPlays returns a game's recent events, oldest first. limit bounds the
// result from the newest end; zero means all stored events.
func (s *QueryService) GetPlays(ctx context.Context, gameID string, limit int) ([]gameupdate.Event, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}

	update, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	events := update.Events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	out := make([]gameupdate.Event, len(events))
	copy(out, events)
	return out, nil
}
