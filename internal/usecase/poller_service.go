package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/strideline/gridiron-live/internal/domain/feed"
	"github.com/strideline/gridiron-live/internal/domain/gameupdate"
	"github.com/strideline/gridiron-live/internal/platform/logging"
)

type PollerConfig struct {
	PollInterval      time.Duration
	BackoffInitial    time.Duration
	BackoffMultiplier float64
	BackoffMax        time.Duration
	MaxRecentPlays    int
	Workers           int
}

// PollerStatus is a point-in-time snapshot of the scheduler's state, safe to
// hand to readers.
type PollerStatus struct {
	Running             bool  `json:"running"`
	ConsecutiveFailures int   `json:"consecutive_failures"`
	SkippedCycles       int64 `json:"skipped_cycles"`
	TrackedGames        int   `json:"tracked_games"`
}

// gameResult records the outcome of one game inside a cycle. Per-game
// failures are collected here so the cycle can report them without ever
// touching the cycle-level failure counter.
type gameResult struct {
	gameID string
	err    error
}

// PollerService owns the polling loop: it lists live games, fetches each
// game's summary, transforms the pair into a canonical record, keeps the
// latest record per game in memory and forwards it to the store. A fresh
// scoreboard failure drives exponential backoff; everything below the
// scoreboard is isolated per game.
type PollerService struct {
	gameFeed GameFeed
	repo     gameupdate.Repository
	cfg      PollerConfig
	logger   *logging.Logger
	now      func() time.Time

	cycleMu sync.Mutex

	stateMu      sync.RWMutex
	latestByGame map[string]gameupdate.Update

	consecutiveFailures atomic.Int64
	skippedCycles       atomic.Int64

	lifecycleMu sync.Mutex
	running     bool
	cancel      context.CancelFunc
	loopDone    sync.WaitGroup
}

// NewPollerService builds a poller. repo may be nil, in which case records
// are only held in memory (mirrors running without a configured database).
func NewPollerService(gameFeed GameFeed, repo gameupdate.Repository, cfg PollerConfig, logger *logging.Logger) (*PollerService, error) {
	if gameFeed == nil {
		return nil, fmt.Errorf("game feed is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = 5 * time.Second
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 5 * time.Minute
	}
	if cfg.MaxRecentPlays < 0 {
		cfg.MaxRecentPlays = 0
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	return &PollerService{
		gameFeed:     gameFeed,
		repo:         repo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		latestByGame: make(map[string]gameupdate.Update),
	}, nil
}

// Start launches the background loop and returns immediately. Calling Start
// on a running poller is a no-op.
func (s *PollerService) Start() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.loopDone.Add(1)

	go s.loop(ctx)

	s.logger.Info("poller started", "interval", s.cfg.PollInterval.String())
}

// Stop cancels the loop and any in-flight cycle, then waits for the loop to
// unwind. After Stop returns no cycle is executing. Records written before
// cancellation stand.
func (s *PollerService) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.loopDone.Wait()
	s.running = false
	s.cancel = nil

	s.logger.Info("poller stopped")
}

func (s *PollerService) loop(ctx context.Context) {
	defer s.loopDone.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		s.PollOnce(ctx)

		timer := time.NewTimer(s.Delay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// PollOnce runs a single cycle. If a previous cycle is still executing the
// new one is skipped outright, never queued: at most one cycle runs at a
// time and skips are counted.
func (s *PollerService) PollOnce(ctx context.Context) {
	if !s.cycleMu.TryLock() {
		s.skippedCycles.Add(1)
		s.logger.WarnContext(ctx, "poll cycle skipped, previous cycle still running",
			"skipped_total", s.skippedCycles.Load(),
		)
		return
	}
	defer s.cycleMu.Unlock()

	s.runCycle(ctx)
}

func (s *PollerService) runCycle(ctx context.Context) {
	scoreboard, err := s.gameFeed.FetchScoreboard(ctx)
	if err != nil {
		failures := s.consecutiveFailures.Add(1)
		s.logger.ErrorContext(ctx, "poll cycle failed",
			"consecutive_failures", failures,
			"error", err,
		)
		return
	}

	// A successful listing fetch means the upstream is healthy; reset before
	// per-game work so isolated game failures never drive backoff.
	s.consecutiveFailures.Store(0)

	liveIDs := s.gameFeed.LiveGameIDs(scoreboard)
	s.logger.InfoContext(ctx, "poll cycle", "live_games", len(liveIDs))
	if len(liveIDs) == 0 {
		return
	}

	eventsByID := make(map[string]feed.ScoreboardEvent, len(scoreboard.Events))
	for _, event := range scoreboard.Events {
		eventsByID[event.ID] = event
	}

	results := s.processGames(ctx, liveIDs, eventsByID)
	for _, result := range results {
		if result.err != nil {
			s.logger.ErrorContext(ctx, "game processing failed",
				"game_id", result.gameID,
				"error", result.err,
			)
		}
	}
}

// processGames runs per-game fetch+transform+persist on a worker pool. One
// game's failure never cancels its siblings, and each latest-map update is
// atomic with respect to readers.
func (s *PollerService) processGames(ctx context.Context, liveIDs []string, eventsByID map[string]feed.ScoreboardEvent) []gameResult {
	results := make([]gameResult, len(liveIDs))

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		// Degraded but correct: fall back to sequential processing.
		s.logger.WarnContext(ctx, "worker pool unavailable, processing sequentially", "error", err)
		for i, gameID := range liveIDs {
			results[i] = gameResult{gameID: gameID, err: s.processGame(ctx, gameID, eventsByID)}
		}
		return results
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i, gameID := range liveIDs {
		i, gameID := i, gameID
		workers.Add(1)
		if submitErr := pool.Submit(func() {
			defer workers.Done()
			results[i] = gameResult{gameID: gameID, err: s.processGame(ctx, gameID, eventsByID)}
		}); submitErr != nil {
			workers.Done()
			results[i] = gameResult{gameID: gameID, err: fmt.Errorf("submit game to worker pool: %w", submitErr)}
		}
	}
	workers.Wait()

	return results
}

func (s *PollerService) processGame(ctx context.Context, gameID string, eventsByID map[string]feed.ScoreboardEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event, ok := eventsByID[gameID]
	if !ok {
		return fmt.Errorf("%w: game %s missing from scoreboard listing", ErrTransformFailed, gameID)
	}

	summary, err := s.gameFeed.FetchGameSummary(ctx, gameID)
	if err != nil {
		return fmt.Errorf("fetch summary for game %s: %w", gameID, err)
	}

	update, err := buildGameUpdate(event, summary, s.cfg.MaxRecentPlays, s.now().UTC())
	if err != nil {
		return err
	}

	s.stateMu.Lock()
	s.latestByGame[gameID] = update
	s.stateMu.Unlock()

	if s.repo != nil {
		if err := s.repo.Upsert(ctx, update); err != nil {
			return fmt.Errorf("%w: upsert game %s: %v", ErrStoreFailed, gameID, err)
		}
	}

	s.logger.InfoContext(ctx, "game processed",
		"game_id", gameID,
		"status", update.Game.Status,
		"score", fmt.Sprintf("%d-%d", update.Game.HomeTeam.Score, update.Game.AwayTeam.Score),
	)

	return nil
}

// Delay computes the wait before the next cycle from the current failure
// count: the base interval when healthy, otherwise capped exponential
// backoff.
func (s *PollerService) Delay() time.Duration {
	failures := s.consecutiveFailures.Load()
	if failures == 0 {
		return s.cfg.PollInterval
	}

	backoff := time.Duration(float64(s.cfg.BackoffInitial) * math.Pow(s.cfg.BackoffMultiplier, float64(failures)))
	if backoff <= 0 || backoff > s.cfg.BackoffMax {
		backoff = s.cfg.BackoffMax
	}

	s.logger.Info("backoff delay", "delay", backoff.String(), "consecutive_failures", failures)
	return backoff
}

// LatestSnapshot returns a copy of the latest record per game. Callers never
// observe in-progress writes.
func (s *PollerService) LatestSnapshot() map[string]gameupdate.Update {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	snapshot := make(map[string]gameupdate.Update, len(s.latestByGame))
	for gameID, update := range s.latestByGame {
		snapshot[gameID] = update
	}

	return snapshot
}

// Status reports scheduler state for the status endpoint.
func (s *PollerService) Status() PollerStatus {
	s.lifecycleMu.Lock()
	running := s.running
	s.lifecycleMu.Unlock()

	s.stateMu.RLock()
	tracked := len(s.latestByGame)
	s.stateMu.RUnlock()

	return PollerStatus{
		Running:             running,
		ConsecutiveFailures: int(s.consecutiveFailures.Load()),
		SkippedCycles:       s.skippedCycles.Load(),
		TrackedGames:        tracked,
	}
}
