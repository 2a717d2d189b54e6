package postgres

import "time"

type gameUpdateTableModel struct {
	ID        int64     `db:"id"`
	GameID    string    `db:"game_id"`
	Status    string    `db:"status"`
	Quarter   int       `db:"quarter"`
	Clock     string    `db:"clock"`
	HomeScore int       `db:"home_score"`
	AwayScore int       `db:"away_score"`
	Payload   []byte    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
	CreatedAt time.Time `db:"created_at"`
}

type gameUpdateInsertModel struct {
	GameID    string    `db:"game_id"`
	Status    string    `db:"status"`
	Quarter   int       `db:"quarter"`
	Clock     string    `db:"clock"`
	HomeScore int       `db:"home_score"`
	AwayScore int       `db:"away_score"`
	Payload   []byte    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}
