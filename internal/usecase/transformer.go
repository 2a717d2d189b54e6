package usecase

import (
	"fmt"
	"strconv"
	"time"

	"github.com/strideline/gridiron-live/internal/domain/feed"
	"github.com/strideline/gridiron-live/internal/domain/gameupdate"
)

// statKeys is the closed set of team statistic names copied into a canonical
// record. Anything else the provider sends is dropped.
var statKeys = map[string]struct{}{
	"totalYards":          {},
	"netPassingYards":     {},
	"rushingYards":        {},
	"turnovers":           {},
	"fumblesLost":         {},
	"interceptions":       {},
	"firstDowns":          {},
	"thirdDownEff":        {},
	"fourthDownEff":       {},
	"totalPenaltiesYards": {},
	"possessionTime":      {},
	"completionAttempts":  {},
	"sacksYardsLost":      {},
	"rushingAttempts":     {},
	"passingFirstDowns":   {},
	"rushingFirstDowns":   {},
	"totalDrives":         {},
}

// buildGameUpdate merges one scoreboard event with its game summary into a
// canonical Update. Sides are resolved by their homeAway label, never by
// array position, and the event window keeps the most recent maxEvents plays
// in chronological order.
func buildGameUpdate(event feed.ScoreboardEvent, summary feed.GameSummary, maxEvents int, now time.Time) (gameupdate.Update, error) {
	if len(event.Competitions) == 0 {
		return gameupdate.Update{}, fmt.Errorf("%w: game %s has no competitions", ErrTransformFailed, event.ID)
	}

	competition := event.Competitions[0]

	homeComp, err := findCompetitor(competition.Competitors, gameupdate.SideHome)
	if err != nil {
		return gameupdate.Update{}, err
	}
	awayComp, err := findCompetitor(competition.Competitors, gameupdate.SideAway)
	if err != nil {
		return gameupdate.Update{}, err
	}

	teamAbbrByID := buildTeamAbbrIndex(competition.Competitors)

	homeTeam, err := extractTeam(homeComp, summary.Boxscore.Teams)
	if err != nil {
		return gameupdate.Update{}, err
	}
	awayTeam, err := extractTeam(awayComp, summary.Boxscore.Teams)
	if err != nil {
		return gameupdate.Update{}, err
	}

	winProbByPlayID := buildWinProbIndex(summary.WinProbability)
	plays := recentPlays(summary.Drives, maxEvents)

	events := make([]gameupdate.Event, 0, len(plays))
	for _, play := range plays {
		events = append(events, playToEvent(play, teamAbbrByID, winProbByPlayID))
	}

	return gameupdate.Update{
		Type:      gameupdate.TypeGameUpdate,
		Source:    gameupdate.SourceESPNLive,
		Timestamp: now,
		Game: gameupdate.Game{
			GameID:   event.ID,
			Status:   competition.Status.Type.Description,
			Quarter:  competition.Status.Period,
			Clock:    clockOrDefault(competition.Status.DisplayClock),
			HomeTeam: homeTeam,
			AwayTeam: awayTeam,
		},
		Events: events,
	}, nil
}

// findCompetitor scans for the side with the given label. Provider order is
// not guaranteed, and more than two entries have been observed on malformed
// documents, so the scan never assumes a fixed count.
func findCompetitor(competitors []feed.Competitor, side string) (feed.Competitor, error) {
	for _, comp := range competitors {
		if comp.HomeAway == side {
			return comp, nil
		}
	}

	return feed.Competitor{}, fmt.Errorf("%w: no competitor with homeAway=%q", ErrTransformFailed, side)
}

// buildTeamAbbrIndex maps team id to abbreviation for possession lookups.
// Entries missing either field are skipped.
func buildTeamAbbrIndex(competitors []feed.Competitor) map[string]string {
	index := make(map[string]string, len(competitors))
	for _, comp := range competitors {
		teamID := comp.Team.ID
		abbr := comp.Team.Abbreviation
		if teamID == "" || abbr == "" {
			continue
		}
		index[teamID] = abbr
	}

	return index
}

func extractTeam(competitor feed.Competitor, boxscoreTeams []feed.BoxscoreTeam) (gameupdate.Team, error) {
	side := competitor.HomeAway

	// Boxscore sides are matched by label too; a missing block (pre-game)
	// just means no stats yet.
	stats := make(map[string]string)
	for _, bt := range boxscoreTeams {
		if bt.HomeAway != side {
			continue
		}
		for _, stat := range bt.Statistics {
			if _, ok := statKeys[stat.Name]; ok {
				stats[stat.Name] = stat.DisplayValue
			}
		}
		break
	}

	// A score that does not parse is a malformed document, not a zero:
	// defaulting silently would mask upstream schema drift.
	score, err := strconv.Atoi(scoreOrDefault(competitor.Score))
	if err != nil {
		return gameupdate.Team{}, fmt.Errorf("%w: %s score %q is not numeric", ErrTransformFailed, side, competitor.Score)
	}

	return gameupdate.Team{
		ID:    competitor.Team.ID,
		Name:  competitor.Team.DisplayName,
		Score: score,
		Stats: stats,
	}, nil
}

// recentPlays collects the most recent maxEvents plays across the current
// drive and the previous drives, returned oldest first. Previous drives are
// stored oldest-first and each drive's plays run oldest-first, so the walk
// goes: current drive plays in order, then previous drives newest to oldest
// with each drive's plays taken from its last play backward. That yields a
// newest-first accumulation which is truncated and reversed.
func recentPlays(drives feed.Drives, maxEvents int) []feed.Play {
	if maxEvents < 0 {
		maxEvents = 0
	}

	collected := make([]feed.Play, 0, maxEvents)
	if drives.Current != nil {
		collected = append(collected, drives.Current.Plays...)
	}

	for i := len(drives.Previous) - 1; i >= 0 && len(collected) < maxEvents; i-- {
		plays := drives.Previous[i].Plays
		for j := len(plays) - 1; j >= 0; j-- {
			collected = append(collected, plays[j])
		}
	}

	if len(collected) > maxEvents {
		collected = collected[:maxEvents]
	}

	// Reverse in place: accumulation order is newest-first.
	for left, right := 0, len(collected)-1; left < right; left, right = left+1, right-1 {
		collected[left], collected[right] = collected[right], collected[left]
	}

	return collected
}

func buildWinProbIndex(entries []feed.WinProbabilityEntry) map[string]float64 {
	index := make(map[string]float64, len(entries))
	for _, entry := range entries {
		playID := entry.PlayID.String()
		if playID == "" || entry.HomeWinPercentage == nil {
			continue
		}
		index[playID] = *entry.HomeWinPercentage
	}

	return index
}

func playToEvent(play feed.Play, teamAbbrByID map[string]string, winProbByPlayID map[string]float64) gameupdate.Event {
	playID := play.ID.String()

	event := gameupdate.Event{
		EventID:     playID,
		Type:        gameupdate.EventTypePlay,
		Description: play.Text,
		Quarter:     play.Period.Number,
		Clock:       clockOrDefault(play.Clock.DisplayValue),
		Possession:  teamAbbrByID[play.Start.Team.ID.String()],
	}

	if pct, ok := winProbByPlayID[playID]; ok {
		event.WinProbability = &pct
	}

	return event
}

func clockOrDefault(value string) string {
	if value == "" {
		return "0:00"
	}
	return value
}

func scoreOrDefault(value string) string {
	if value == "" {
		return "0"
	}
	return value
}
