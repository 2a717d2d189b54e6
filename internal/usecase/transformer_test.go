package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/strideline/gridiron-live/internal/domain/feed"
	"github.com/strideline/gridiron-live/internal/domain/gameupdate"
)

func floatPtr(v float64) *float64 {
	return &v
}

func sampleEvent() feed.ScoreboardEvent {
	// Away listed first on purpose: sides must resolve by label, not index.
	return feed.ScoreboardEvent{
		ID: "401547400",
		Competitions: []feed.Competition{
			{
				Competitors: []feed.Competitor{
					{
						HomeAway: "away",
						Score:    "17",
						Team: feed.TeamInfo{
							ID:           "12",
							DisplayName:  "Kansas City Chiefs",
							Abbreviation: "KC",
						},
					},
					{
						HomeAway: "home",
						Score:    "24",
						Team: feed.TeamInfo{
							ID:           "7",
							DisplayName:  "Denver Broncos",
							Abbreviation: "DEN",
						},
					},
				},
				Status: feed.GameStatus{
					Type:         feed.StatusType{Name: "STATUS_IN_PROGRESS", Description: "In Progress"},
					Period:       3,
					DisplayClock: "8:42",
				},
			},
		},
	}
}

func sampleSummary() feed.GameSummary {
	return feed.GameSummary{
		Boxscore: feed.Boxscore{
			Teams: []feed.BoxscoreTeam{
				{
					HomeAway: "home",
					Statistics: []feed.Statistic{
						{Name: "totalYards", DisplayValue: "312"},
						{Name: "turnovers", DisplayValue: "1"},
						{Name: "uniformColor", DisplayValue: "orange"},
					},
				},
				{
					HomeAway: "away",
					Statistics: []feed.Statistic{
						{Name: "totalYards", DisplayValue: "255"},
						{Name: "thirdDownEff", DisplayValue: "4-9"},
					},
				},
			},
		},
		Drives: feed.Drives{
			Current: &feed.Drive{
				Plays: []feed.Play{
					{
						ID:     "5001",
						Text:   "Pass complete for 12 yards",
						Period: feed.PlayPeriod{Number: 3},
						Clock:  feed.PlayClock{DisplayValue: "9:01"},
						Start:  feed.PlayStart{Team: feed.TeamRef{ID: "7"}},
					},
					{
						ID:     "5002",
						Text:   "Rush up the middle for 3 yards",
						Period: feed.PlayPeriod{Number: 3},
						Start:  feed.PlayStart{Team: feed.TeamRef{ID: "12"}},
					},
				},
			},
		},
		WinProbability: []feed.WinProbabilityEntry{
			{PlayID: "5001", HomeWinPercentage: floatPtr(0.72)},
			{PlayID: "4000", HomeWinPercentage: floatPtr(0.65)},
		},
	}
}

func TestBuildGameUpdate_MergesScoreboardAndSummary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 2, 20, 15, 0, 0, time.UTC)
	update, err := buildGameUpdate(sampleEvent(), sampleSummary(), 10, now)
	if err != nil {
		t.Fatalf("buildGameUpdate error: %v", err)
	}

	if update.Type != gameupdate.TypeGameUpdate {
		t.Fatalf("expected type %q, got=%q", gameupdate.TypeGameUpdate, update.Type)
	}
	if update.Source != gameupdate.SourceESPNLive {
		t.Fatalf("expected source %q, got=%q", gameupdate.SourceESPNLive, update.Source)
	}
	if !update.Timestamp.Equal(now) {
		t.Fatalf("expected timestamp %v, got=%v", now, update.Timestamp)
	}

	if update.Game.GameID != "401547400" {
		t.Fatalf("unexpected game id: %q", update.Game.GameID)
	}
	if update.Game.Status != "In Progress" {
		t.Fatalf("unexpected status: %q", update.Game.Status)
	}
	if update.Game.Quarter != 3 || update.Game.Clock != "8:42" {
		t.Fatalf("unexpected quarter/clock: %d %q", update.Game.Quarter, update.Game.Clock)
	}

	home := update.Game.HomeTeam
	if home.ID != "7" || home.Name != "Denver Broncos" || home.Score != 24 {
		t.Fatalf("home side resolved wrong: %+v", home)
	}
	away := update.Game.AwayTeam
	if away.ID != "12" || away.Name != "Kansas City Chiefs" || away.Score != 17 {
		t.Fatalf("away side resolved wrong: %+v", away)
	}

	if home.Stats["totalYards"] != "312" || home.Stats["turnovers"] != "1" {
		t.Fatalf("home stats missing whitelisted keys: %v", home.Stats)
	}
	if _, ok := home.Stats["uniformColor"]; ok {
		t.Fatalf("non-whitelisted stat leaked through: %v", home.Stats)
	}
	if away.Stats["thirdDownEff"] != "4-9" {
		t.Fatalf("away stats wrong: %v", away.Stats)
	}

	if len(update.Events) != 2 {
		t.Fatalf("expected 2 events, got=%d", len(update.Events))
	}

	first := update.Events[0]
	if first.EventID != "5001" || first.Type != gameupdate.EventTypePlay {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.Possession != "DEN" {
		t.Fatalf("expected possession DEN, got=%q", first.Possession)
	}
	if first.WinProbability == nil || *first.WinProbability != 0.72 {
		t.Fatalf("expected win probability 0.72, got=%v", first.WinProbability)
	}

	second := update.Events[1]
	if second.Possession != "KC" {
		t.Fatalf("expected possession KC, got=%q", second.Possession)
	}
	if second.WinProbability != nil {
		t.Fatalf("expected no win probability for play without an entry, got=%v", *second.WinProbability)
	}
	if second.Clock != "0:00" {
		t.Fatalf("expected default clock, got=%q", second.Clock)
	}
}

func TestBuildGameUpdate_CompetitorOrderDoesNotMatter(t *testing.T) {
	t.Parallel()

	event := sampleEvent()
	reversed := sampleEvent()
	comps := reversed.Competitions[0].Competitors
	comps[0], comps[1] = comps[1], comps[0]

	a, err := buildGameUpdate(event, sampleSummary(), 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildGameUpdate error: %v", err)
	}
	b, err := buildGameUpdate(reversed, sampleSummary(), 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildGameUpdate error: %v", err)
	}

	if a.Game.HomeTeam.ID != b.Game.HomeTeam.ID || a.Game.AwayTeam.ID != b.Game.AwayTeam.ID {
		t.Fatalf("side resolution depends on array order: %+v vs %+v", a.Game, b.Game)
	}
	if a.Game.HomeTeam.Score != 24 || b.Game.HomeTeam.Score != 24 {
		t.Fatalf("home score wrong after reorder: %d vs %d", a.Game.HomeTeam.Score, b.Game.HomeTeam.Score)
	}
}

func TestBuildGameUpdate_MissingSide(t *testing.T) {
	t.Parallel()

	event := sampleEvent()
	event.Competitions[0].Competitors = event.Competitions[0].Competitors[:1] // away only

	_, err := buildGameUpdate(event, sampleSummary(), 10, time.Now().UTC())
	if !errors.Is(err, ErrTransformFailed) {
		t.Fatalf("expected ErrTransformFailed, got=%v", err)
	}
}

func TestBuildGameUpdate_NoCompetitions(t *testing.T) {
	t.Parallel()

	event := sampleEvent()
	event.Competitions = nil

	_, err := buildGameUpdate(event, sampleSummary(), 10, time.Now().UTC())
	if !errors.Is(err, ErrTransformFailed) {
		t.Fatalf("expected ErrTransformFailed, got=%v", err)
	}
}

func TestBuildGameUpdate_NonNumericScore(t *testing.T) {
	t.Parallel()

	event := sampleEvent()
	event.Competitions[0].Competitors[1].Score = "n/a"

	_, err := buildGameUpdate(event, sampleSummary(), 10, time.Now().UTC())
	if !errors.Is(err, ErrTransformFailed) {
		t.Fatalf("expected ErrTransformFailed for non-numeric score, got=%v", err)
	}
}

func TestBuildGameUpdate_EmptyScoreDefaultsToZero(t *testing.T) {
	t.Parallel()

	event := sampleEvent()
	event.Competitions[0].Competitors[0].Score = ""
	event.Competitions[0].Competitors[1].Score = ""

	update, err := buildGameUpdate(event, sampleSummary(), 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildGameUpdate error: %v", err)
	}
	if update.Game.HomeTeam.Score != 0 || update.Game.AwayTeam.Score != 0 {
		t.Fatalf("expected 0-0, got=%d-%d", update.Game.HomeTeam.Score, update.Game.AwayTeam.Score)
	}
}

func TestBuildGameUpdate_EmptyBoxscoreAndDrives(t *testing.T) {
	t.Parallel()

	update, err := buildGameUpdate(sampleEvent(), feed.GameSummary{}, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildGameUpdate error: %v", err)
	}
	if len(update.Game.HomeTeam.Stats) != 0 {
		t.Fatalf("expected no stats, got=%v", update.Game.HomeTeam.Stats)
	}
	if len(update.Events) != 0 {
		t.Fatalf("expected no events, got=%d", len(update.Events))
	}
}

func drive(playIDs ...string) feed.Drive {
	d := feed.Drive{}
	for _, id := range playIDs {
		d.Plays = append(d.Plays, feed.Play{ID: feed.FlexibleID(id)})
	}
	return d
}

func playIDs(plays []feed.Play) []string {
	ids := make([]string, len(plays))
	for i, p := range plays {
		ids[i] = p.ID.String()
	}
	return ids
}

func TestRecentPlays_WindowAcrossDrives(t *testing.T) {
	t.Parallel()

	current := drive("c1", "c2")
	drives := feed.Drives{
		Current:  &current,
		Previous: []feed.Drive{drive("p1", "p2"), drive("p3", "p4", "p5")},
	}

	// Accumulation runs current first, then previous drives newest to
	// oldest with each drive's plays newest first, then truncates and
	// reverses. For a window of 4: [c1 c2 p5 p4] -> reversed [p4 p5 c2 c1].
	got := playIDs(recentPlays(drives, 4))
	want := []string{"p4", "p5", "c2", "c1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d plays, got=%v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got=%v", want, got)
		}
	}
}

func TestRecentPlays_WindowLargerThanAvailable(t *testing.T) {
	t.Parallel()

	current := drive("c1")
	drives := feed.Drives{
		Current:  &current,
		Previous: []feed.Drive{drive("p1", "p2")},
	}

	got := recentPlays(drives, 50)
	if len(got) != 3 {
		t.Fatalf("expected all 3 plays, got=%d", len(got))
	}
}

func TestRecentPlays_ZeroWindow(t *testing.T) {
	t.Parallel()

	current := drive("c1", "c2")
	drives := feed.Drives{Current: &current}

	if got := recentPlays(drives, 0); len(got) != 0 {
		t.Fatalf("expected empty window, got=%v", playIDs(got))
	}
	if got := recentPlays(drives, -3); len(got) != 0 {
		t.Fatalf("expected empty window for negative max, got=%v", playIDs(got))
	}
}

func TestRecentPlays_NoCurrentDrive(t *testing.T) {
	t.Parallel()

	drives := feed.Drives{Previous: []feed.Drive{drive("p1", "p2", "p3")}}

	got := playIDs(recentPlays(drives, 2))
	want := []string{"p2", "p3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got=%v", want, got)
		}
	}
}

func TestPlayToEvent_UnknownPossessionTeam(t *testing.T) {
	t.Parallel()

	summary := sampleSummary()
	summary.Drives.Current.Plays[0].Start.Team.ID = "999"

	update, err := buildGameUpdate(sampleEvent(), summary, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildGameUpdate error: %v", err)
	}
	if update.Events[0].Possession != "" {
		t.Fatalf("expected empty possession for unknown team, got=%q", update.Events[0].Possession)
	}
}

func TestBuildWinProbIndex_SkipsSparseEntries(t *testing.T) {
	t.Parallel()

	index := buildWinProbIndex([]feed.WinProbabilityEntry{
		{PlayID: "1", HomeWinPercentage: floatPtr(0.5)},
		{PlayID: "2"},
		{HomeWinPercentage: floatPtr(0.9)},
	})

	if len(index) != 1 {
		t.Fatalf("expected 1 entry, got=%d", len(index))
	}
	if index["1"] != 0.5 {
		t.Fatalf("expected 0.5 for play 1, got=%v", index["1"])
	}
}
