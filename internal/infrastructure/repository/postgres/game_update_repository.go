package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/strideline/gridiron-live/internal/domain/gameupdate"
	qb "github.com/strideline/gridiron-live/internal/platform/querybuilder"
	"github.com/valyala/bytebufferpool"
)

// GameUpdateRepository persists canonical game records. The flattened
// columns serve list queries; the full record rides along as JSONB.
type GameUpdateRepository struct {
	db *sqlx.DB
}

func NewGameUpdateRepository(db *sqlx.DB) *GameUpdateRepository {
	return &GameUpdateRepository{db: db}
}

func (r *GameUpdateRepository) Upsert(ctx context.Context, update gameupdate.Update) error {
	if err := update.Validate(); err != nil {
		return fmt.Errorf("validate game update: %w", err)
	}

	payload, err := encodeGameUpdatePayload(update)
	if err != nil {
		return fmt.Errorf("encode game update payload: %w", err)
	}

	insertModel := gameUpdateInsertModel{
		GameID:    update.Game.GameID,
		Status:    update.Game.Status,
		Quarter:   update.Game.Quarter,
		Clock:     update.Game.Clock,
		HomeScore: update.Game.HomeTeam.Score,
		AwayScore: update.Game.AwayTeam.Score,
		Payload:   payload,
		UpdatedAt: update.Timestamp.UTC(),
	}
	query, args, err := qb.InsertModel("game_updates", insertModel, `ON CONFLICT (game_id)
DO UPDATE SET
    status = EXCLUDED.status,
    quarter = EXCLUDED.quarter,
    clock = EXCLUDED.clock,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    payload = EXCLUDED.payload,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert game update query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert game update: %w", err)
	}
	return nil
}

func (r *GameUpdateRepository) List(ctx context.Context) ([]gameupdate.Summary, error) {
	query, args, err := qb.Select("*").From("game_updates").
		OrderBy("updated_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list game updates query: %w", err)
	}

	var rows []gameUpdateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list game updates: %w", err)
	}

	return mapRowsToSummaries(rows), nil
}

func (r *GameUpdateRepository) GetByGameID(ctx context.Context, gameID string) (gameupdate.Update, bool, error) {
	query, args, err := qb.Select("*").From("game_updates").
		Where(qb.Eq("game_id", gameID)).
		ToSQL()
	if err != nil {
		return gameupdate.Update{}, false, fmt.Errorf("build get game update query: %w", err)
	}

	var row gameUpdateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
			return r.getByGameIDLiteral(ctx, gameID)
		}
		if isNotFound(err) {
			return gameupdate.Update{}, false, nil
		}
		return gameupdate.Update{}, false, fmt.Errorf("get game update: %w", err)
	}

	return decodeGameUpdateRow(row, gameID)
}

// getByGameIDLiteral inlines the game ID so poolers running in transaction
// mode that lose the unnamed prepared statement can still serve the read.
func (r *GameUpdateRepository) getByGameIDLiteral(ctx context.Context, gameID string) (gameupdate.Update, bool, error) {
	query, _, err := qb.Select("*").From("game_updates").
		Where(qb.EqLiteral("game_id", gameID)).
		ToSQL()
	if err != nil {
		return gameupdate.Update{}, false, fmt.Errorf("build get game update literal fallback query: %w", err)
	}

	var row gameUpdateTableModel
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if isNotFound(err) {
			return gameupdate.Update{}, false, nil
		}
		return gameupdate.Update{}, false, fmt.Errorf("get game update fallback: %w", err)
	}

	return decodeGameUpdateRow(row, gameID)
}

func decodeGameUpdateRow(row gameUpdateTableModel, gameID string) (gameupdate.Update, bool, error) {
	var update gameupdate.Update
	if err := sonic.Unmarshal(row.Payload, &update); err != nil {
		return gameupdate.Update{}, false, fmt.Errorf("decode game update payload game_id=%s: %w", gameID, err)
	}

	return update, true, nil
}

func (r *GameUpdateRepository) ListByStatuses(ctx context.Context, statuses []string) ([]gameupdate.Summary, error) {
	values := make([]any, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, status)
	}

	query, args, err := qb.Select("*").From("game_updates").
		Where(qb.In("status", values)).
		OrderBy("updated_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list game updates by status query: %w", err)
	}

	var rows []gameUpdateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list game updates by status: %w", err)
	}

	return mapRowsToSummaries(rows), nil
}

func (r *GameUpdateRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]gameupdate.Summary, error) {
	query, args, err := qb.Select("*").From("game_updates").
		Where(qb.Expr("updated_at >= ?", since.UTC())).
		OrderBy("updated_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list recent game updates query: %w", err)
	}

	var rows []gameUpdateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list recent game updates: %w", err)
	}

	return mapRowsToSummaries(rows), nil
}

func mapRowsToSummaries(rows []gameUpdateTableModel) []gameupdate.Summary {
	out := make([]gameupdate.Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameupdate.Summary{
			GameID:    row.GameID,
			Status:    row.Status,
			Quarter:   row.Quarter,
			Clock:     row.Clock,
			HomeScore: row.HomeScore,
			AwayScore: row.AwayScore,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out
}

func encodeGameUpdatePayload(update gameupdate.Update) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(update); err != nil {
		return nil, err
	}

	payload := make([]byte, buf.Len())
	copy(payload, buf.Bytes())
	return payload, nil
}
