package gameupdate

import (
	"fmt"
	"strings"
	"time"
)

const (
	// TypeGameUpdate is the record type tag carried by every Update.
	TypeGameUpdate = "game_update"
	// SourceESPNLive tags the upstream feed the record was built from.
	SourceESPNLive = "espn_live"

	// EventTypePlay is the only event kind emitted today.
	EventTypePlay = "play"

	SideHome = "home"
	SideAway = "away"
)

// Update is the canonical, versioned record produced from one scoreboard
// event plus one game summary. Its shape is decoupled from the raw feed
// documents: downstream consumers only ever see this.
type Update struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Game      Game      `json:"game"`
	Events    []Event   `json:"events"`
}

type Game struct {
	GameID   string `json:"game_id"`
	Status   string `json:"status"`
	Quarter  int    `json:"quarter"`
	Clock    string `json:"clock"`
	HomeTeam Team   `json:"home_team"`
	AwayTeam Team   `json:"away_team"`
}

type Team struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Score int               `json:"score"`
	Stats map[string]string `json:"stats"`
}

type Event struct {
	EventID        string   `json:"event_id"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Quarter        int      `json:"quarter"`
	Clock          string   `json:"clock"`
	Possession     string   `json:"possession"`
	WinProbability *float64 `json:"win_probability,omitempty"`
}

// Summary is the flattened row view used by list queries; the full payload
// stays behind GetByGameID.
type Summary struct {
	GameID    string    `json:"game_id"`
	Status    string    `json:"status"`
	Quarter   int       `json:"quarter"`
	Clock     string    `json:"clock"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u Update) Validate() error {
	if strings.TrimSpace(u.Game.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if u.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	return nil
}

// ToSummary projects the flattened row view persisted alongside the payload.
func (u Update) ToSummary() Summary {
	return Summary{
		GameID:    u.Game.GameID,
		Status:    u.Game.Status,
		Quarter:   u.Game.Quarter,
		Clock:     u.Game.Clock,
		HomeScore: u.Game.HomeTeam.Score,
		AwayScore: u.Game.AwayTeam.Score,
		UpdatedAt: u.Timestamp,
	}
}

// NormalizeSide lowercases a side selector and reports whether it is one of
// the two known side labels.
func NormalizeSide(value string) (string, bool) {
	side := strings.ToLower(strings.TrimSpace(value))
	switch side {
	case SideHome, SideAway:
		return side, true
	default:
		return "", false
	}
}
