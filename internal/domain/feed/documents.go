package feed

import (
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

// Scoreboard is the raw listing document fetched once per poll cycle. It is
// transient: held only for the duration of the cycle that fetched it.
type Scoreboard struct {
	Events []ScoreboardEvent `json:"events"`
}

type ScoreboardEvent struct {
	ID           string        `json:"id"`
	Competitions []Competition `json:"competitions"`
}

type Competition struct {
	Competitors []Competitor `json:"competitors"`
	Status      GameStatus   `json:"status"`
}

// Competitor is one side of a game. Sides are tagged by the HomeAway label;
// the provider does not guarantee array order.
type Competitor struct {
	HomeAway string   `json:"homeAway"`
	Score    string   `json:"score"`
	Team     TeamInfo `json:"team"`
}

type TeamInfo struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Abbreviation string `json:"abbreviation"`
}

type GameStatus struct {
	Type         StatusType `json:"type"`
	Period       int        `json:"period"`
	DisplayClock string     `json:"displayClock"`
}

type StatusType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GameSummary is the raw per-game detail document.
type GameSummary struct {
	Boxscore       Boxscore              `json:"boxscore"`
	Drives         Drives                `json:"drives"`
	WinProbability []WinProbabilityEntry `json:"winprobability"`
}

type Boxscore struct {
	Teams []BoxscoreTeam `json:"teams"`
}

// BoxscoreTeam carries per-side statistics, tagged by HomeAway like a
// Competitor. The block may be empty pre-game.
type BoxscoreTeam struct {
	HomeAway   string      `json:"homeAway"`
	Statistics []Statistic `json:"statistics"`
}

type Statistic struct {
	Name         string `json:"name"`
	DisplayValue string `json:"displayValue"`
}

// Drives groups the play history: at most one live drive plus the already
// completed drives in oldest-first order.
type Drives struct {
	Current  *Drive  `json:"current"`
	Previous []Drive `json:"previous"`
}

type Drive struct {
	Plays []Play `json:"plays"`
}

type Play struct {
	ID     FlexibleID `json:"id"`
	Text   string     `json:"text"`
	Period PlayPeriod `json:"period"`
	Clock  PlayClock  `json:"clock"`
	Start  PlayStart  `json:"start"`
}

type PlayPeriod struct {
	Number int `json:"number"`
}

type PlayClock struct {
	DisplayValue string `json:"displayValue"`
}

type PlayStart struct {
	Team TeamRef `json:"team"`
}

type TeamRef struct {
	ID FlexibleID `json:"id"`
}

type WinProbabilityEntry struct {
	PlayID            FlexibleID `json:"playId"`
	HomeWinPercentage *float64   `json:"homeWinPercentage"`
}

// FlexibleID accepts the provider's habit of sending identifiers as either a
// JSON string or a number and normalizes both to a string.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*f = ""
		return nil
	}

	if raw[0] == '"' {
		var value string
		if err := sonic.Unmarshal(data, &value); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(value))
		return nil
	}

	var value float64
	if err := sonic.Unmarshal(data, &value); err != nil {
		return err
	}
	*f = FlexibleID(strconv.FormatInt(int64(value), 10))
	return nil
}

func (f FlexibleID) String() string {
	return string(f)
}
