package gameupdate

import (
	"context"
	"time"
)

// Repository persists game updates keyed by game id with last-write-wins
// semantics. No transactionality is required across games.
type Repository interface {
	Upsert(ctx context.Context, update Update) error
	List(ctx context.Context) ([]Summary, error)
	GetByGameID(ctx context.Context, gameID string) (Update, bool, error)
	ListByStatuses(ctx context.Context, statuses []string) ([]Summary, error)
	ListUpdatedSince(ctx context.Context, cutoff time.Time) ([]Summary, error)
}
