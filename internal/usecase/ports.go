package usecase

import (
	"context"

	"github.com/strideline/gridiron-live/internal/domain/feed"
)

// GameFeed is the fetch port the poller depends on. The concrete
// implementation lives in external/espn.
type GameFeed interface {
	// FetchScoreboard retrieves the live listing document. Errors wrap
	// ErrFetchFailed (or ErrDependencyUnavailable when the circuit is open).
	FetchScoreboard(ctx context.Context) (feed.Scoreboard, error)
	// FetchGameSummary retrieves the detail document for one game.
	FetchGameSummary(ctx context.Context, gameID string) (feed.GameSummary, error)
	// LiveGameIDs filters the listing down to ids whose status is one of the
	// configured live status codes, preserving listing order.
	LiveGameIDs(scoreboard feed.Scoreboard) []string
}
