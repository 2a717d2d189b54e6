package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/strideline/gridiron-live/internal/domain/gameupdate"
)

// GameUpdateRepository keeps canonical game records in process memory. It
// backs the read API when no database is configured.
type GameUpdateRepository struct {
	mu     sync.RWMutex
	byGame map[string]gameupdate.Update
}

func NewGameUpdateRepository() *GameUpdateRepository {
	return &GameUpdateRepository{byGame: make(map[string]gameupdate.Update)}
}

func (r *GameUpdateRepository) Upsert(_ context.Context, update gameupdate.Update) error {
	if err := update.Validate(); err != nil {
		return fmt.Errorf("validate game update: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byGame[update.Game.GameID] = update
	return nil
}

func (r *GameUpdateRepository) List(_ context.Context) ([]gameupdate.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(gameupdate.Update) bool { return true }), nil
}

func (r *GameUpdateRepository) GetByGameID(_ context.Context, gameID string) (gameupdate.Update, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	update, ok := r.byGame[gameID]
	return update, ok, nil
}

func (r *GameUpdateRepository) ListByStatuses(_ context.Context, statuses []string) ([]gameupdate.Summary, error) {
	wanted := make(map[string]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(update gameupdate.Update) bool {
		_, ok := wanted[update.Game.Status]
		return ok
	}), nil
}

func (r *GameUpdateRepository) ListUpdatedSince(_ context.Context, since time.Time) ([]gameupdate.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(update gameupdate.Update) bool {
		return !update.Timestamp.Before(since)
	}), nil
}

// collect filters under the caller's read lock and returns summaries newest
// first, matching the database ordering.
func (r *GameUpdateRepository) collect(keep func(gameupdate.Update) bool) []gameupdate.Summary {
	out := make([]gameupdate.Summary, 0, len(r.byGame))
	for _, update := range r.byGame {
		if keep(update) {
			out = append(out, update.ToSummary())
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].GameID < out[j].GameID
	})

	return out
}
