package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/strideline/gridiron-live/internal/domain/gameupdate"
	"github.com/strideline/gridiron-live/internal/infrastructure/repository/memory"
	"github.com/strideline/gridiron-live/internal/platform/logging"
	"github.com/strideline/gridiron-live/internal/usecase"
)

type stubPollerControl struct {
	polls atomic.Int64
}

func (p *stubPollerControl) PollOnce(context.Context) {
	p.polls.Add(1)
}

func (p *stubPollerControl) Status() usecase.PollerStatus {
	return usecase.PollerStatus{Running: true, TrackedGames: 2}
}

func seedRepo(t *testing.T) *memory.GameUpdateRepository {
	t.Helper()

	repo := memory.NewGameUpdateRepository()
	now := time.Now().UTC()

	updates := []gameupdate.Update{
		{
			Type:      gameupdate.TypeGameUpdate,
			Source:    gameupdate.SourceESPNLive,
			Timestamp: now,
			Game: gameupdate.Game{
				GameID:  "g-live",
				Status:  "In Progress",
				Quarter: 4,
				Clock:   "2:00",
				HomeTeam: gameupdate.Team{
					ID: "7", Name: "Denver Broncos", Score: 27,
					Stats: map[string]string{"totalYards": "390"},
				},
				AwayTeam: gameupdate.Team{
					ID: "12", Name: "Kansas City Chiefs", Score: 24,
					Stats: map[string]string{"totalYards": "351"},
				},
			},
			Events: []gameupdate.Event{
				{EventID: "1", Type: gameupdate.EventTypePlay, Description: "Kickoff"},
				{EventID: "2", Type: gameupdate.EventTypePlay, Description: "Field goal"},
				{EventID: "3", Type: gameupdate.EventTypePlay, Description: "Touchdown"},
			},
		},
		{
			Type:      gameupdate.TypeGameUpdate,
			Source:    gameupdate.SourceESPNLive,
			Timestamp: now.Add(-4 * time.Hour),
			Game: gameupdate.Game{
				GameID: "g-final",
				Status: "Final",
			},
		},
	}
	for _, update := range updates {
		if err := repo.Upsert(context.Background(), update); err != nil {
			t.Fatalf("seed repo: %v", err)
		}
	}

	return repo
}

func newTestRouter(t *testing.T, poller PollerControl, internalToken string) http.Handler {
	t.Helper()

	queryService, err := usecase.NewQueryService(seedRepo(t), usecase.QueryConfig{})
	if err != nil {
		t.Fatalf("NewQueryService error: %v", err)
	}

	handler := NewHandler(queryService, poller, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), nil, internalToken)
}

func doRequest(t *testing.T, router http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	var envelope struct {
		APIVersion string `json:"apiVersion"`
		Data       any    `json:"data"`
	}
	envelope.Data = target
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, rec.Body.String())
	}
	if envelope.APIVersion != "2.0" {
		t.Fatalf("expected apiVersion 2.0, got=%q", envelope.APIVersion)
	}
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}
}

func TestRouter_ListGames(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/v1/games", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d body=%s", rec.Code, rec.Body.String())
	}

	var games []gameupdate.Summary
	decodeData(t, rec, &games)
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got=%d", len(games))
	}
	if games[0].GameID != "g-live" {
		t.Fatalf("expected newest-first ordering, got=%v", games)
	}
}

func TestRouter_ListGamesByStatus(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/v1/games?status=Final", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}

	var games []gameupdate.Summary
	decodeData(t, rec, &games)
	if len(games) != 1 || games[0].GameID != "g-final" {
		t.Fatalf("expected only the final game, got=%v", games)
	}
}

func TestRouter_ListLiveGames(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/v1/games/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}

	var games []gameupdate.Summary
	decodeData(t, rec, &games)
	if len(games) != 1 || games[0].GameID != "g-live" {
		t.Fatalf("expected only the live game, got=%v", games)
	}
}

func TestRouter_ListRecentGames(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/v1/games/recent?minutes=60", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}

	var games []gameupdate.Summary
	decodeData(t, rec, &games)
	if len(games) != 1 || games[0].GameID != "g-live" {
		t.Fatalf("expected only the fresh game, got=%v", games)
	}

	if rec := doRequest(t, router, http.MethodGet, "/v1/games/recent?minutes=abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric minutes, got=%d", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodGet, "/v1/games/recent?minutes=-5", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative minutes, got=%d", rec.Code)
	}
}

func TestRouter_GetGame(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/v1/games/g-live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}

	var update gameupdate.Update
	decodeData(t, rec, &update)
	if update.Game.GameID != "g-live" || len(update.Events) != 3 {
		t.Fatalf("unexpected record: %+v", update.Game)
	}

	if rec := doRequest(t, router, http.MethodGet, "/v1/games/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown game, got=%d", rec.Code)
	}
}

func TestRouter_GetTeamStats(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/v1/games/g-live/teams/home/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}

	var team gameupdate.Team
	decodeData(t, rec, &team)
	if team.Name != "Denver Broncos" || team.Stats["totalYards"] != "390" {
		t.Fatalf("unexpected team: %+v", team)
	}

	if rec := doRequest(t, router, http.MethodGet, "/v1/games/g-live/teams/middle/stats", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad side, got=%d", rec.Code)
	}
}

func TestRouter_ListGamePlays(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/v1/games/g-live/plays?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}

	var plays []gameupdate.Event
	decodeData(t, rec, &plays)
	if len(plays) != 2 || plays[1].EventID != "3" {
		t.Fatalf("expected newest 2 plays, got=%v", plays)
	}

	if rec := doRequest(t, router, http.MethodGet, "/v1/games/g-live/plays?limit=-1", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got=%d", rec.Code)
	}
}

func TestRouter_PollerStatus(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	rec := doRequest(t, router, http.MethodGet, "/v1/poller/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got=%d", rec.Code)
	}

	var status usecase.PollerStatus
	decodeData(t, rec, &status)
	if !status.Running || status.TrackedGames != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestRouter_TriggerPoll(t *testing.T) {
	poller := &stubPollerControl{}
	router := newTestRouter(t, poller, "secret")

	if rec := doRequest(t, router, http.MethodPost, "/v1/internal/poller/poll", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got=%d", rec.Code)
	}

	header := http.Header{}
	header.Set("X-Internal-Token", "wrong")
	if rec := doRequest(t, router, http.MethodPost, "/v1/internal/poller/poll", header); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got=%d", rec.Code)
	}

	header.Set("X-Internal-Token", "secret")
	rec := doRequest(t, router, http.MethodPost, "/v1/internal/poller/poll", header)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got=%d", rec.Code)
	}
	if poller.polls.Load() != 1 {
		t.Fatalf("expected 1 triggered poll, got=%d", poller.polls.Load())
	}
}

func TestRouter_TriggerPollWithoutConfiguredToken(t *testing.T) {
	router := newTestRouter(t, &stubPollerControl{}, "")

	header := http.Header{}
	header.Set("X-Internal-Token", "anything")
	if rec := doRequest(t, router, http.MethodPost, "/v1/internal/poller/poll", header); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when token unconfigured, got=%d", rec.Code)
	}
}
