// Package churn keeps the synthetic population moving: it seeds an empty
// store at startup and then, on every tick, adds a few generated users and
// removes the oldest ones.
package churn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
)

var (
	ErrAlreadyRunning = errors.New("churn: scheduler already running")
	ErrNotRunning     = errors.New("churn: scheduler not running")
)

// progressEvery is how often Seed reports progress, in created users.
const progressEvery = 100

// UserSource produces complete, valid users. *generator.Generator
// satisfies it.
type UserSource interface {
	User() *model.UserDetails
}

// Range is an inclusive integer interval.
type Range struct {
	Min int
	Max int
}

// Config tunes a Scheduler. Zero fields take the defaults below.
type Config struct {
	Interval    time.Duration
	AddRange    Range
	DeleteRange Range
}

var DefaultConfig = Config{
	Interval:    5 * time.Minute,
	AddRange:    Range{Min: 1, Max: 7},
	DeleteRange: Range{Min: 1, Max: 3},
}

// TickResult summarises one churn cycle.
type TickResult struct {
	ID      string
	Added   int
	Failed  int
	Deleted int
	Total   int
}

// SeedResult summarises a seeding run.
type SeedResult struct {
	Created int
	Failed  int
	Skipped bool
}

// Scheduler runs churn ticks at a fixed interval. It is either stopped or
// running; Start and Stop move between the two.
//
// STATE MACHINE:
//
//	stopped --Start--> running --Stop--> stopped
//
//   - Start on a running Scheduler returns ErrAlreadyRunning
//   - Stop on a stopped Scheduler returns ErrNotRunning
//   - mu guards running and cancel; wg tracks the single loop goroutine
//
// The Scheduler can be started again after Stop.
type Scheduler struct {
	repo   repository.UserRepository
	source UserSource
	logger *slog.Logger
	cfg    Config

	// pick returns an integer in [lo, hi]. Tests swap it for a fixed value.
	pick func(lo, hi int) int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a stopped Scheduler.
func New(repo repository.UserRepository, source UserSource, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig.Interval
	}
	if cfg.AddRange == (Range{}) {
		cfg.AddRange = DefaultConfig.AddRange
	}
	if cfg.DeleteRange == (Range{}) {
		cfg.DeleteRange = DefaultConfig.DeleteRange
	}

	return &Scheduler{
		repo:   repo,
		source: source,
		logger: logger,
		cfg:    cfg,
		pick:   gofakeit.IntRange,
	}
}

// Seed inserts n generated users, but only when the store is empty. Insert
// failures are logged and counted.
func (s *Scheduler) Seed(ctx context.Context, n int) (SeedResult, error) {
	existing, err := s.repo.Count(ctx)
	if err != nil {
		return SeedResult{}, fmt.Errorf("churn: counting users: %w", err)
	}
	if existing > 0 {
		s.logger.Info("store already populated, skipping seed", slog.Int("users", existing))
		return SeedResult{Skipped: true}, nil
	}

	s.logger.Info("seeding users", slog.Int("count", n))

	var res SeedResult
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		u := s.source.User()
		if err := s.repo.Create(ctx, u); err != nil {
			res.Failed++
			s.logger.Warn("failed to seed user",
				slog.String("email", u.Email),
				slog.String("error", err.Error()),
			)
			continue
		}

		res.Created++
		if res.Created%progressEvery == 0 {
			s.logger.Info("seeding progress", slog.Int("created", res.Created))
		}
	}

	s.logger.Info("seeding complete",
		slog.Int("created", res.Created),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}

// Tick runs one churn cycle: add between AddRange.Min and AddRange.Max
// users, then delete between DeleteRange.Min and DeleteRange.Max of the
// oldest. Individual insert and delete failures are logged and skipped.
// The returned error reports store failures that prevented the delete
// phase or the final count; the result is still filled in as far as it got.
//
// ONE TICK, STEP BY STEP:
//
//  1. Pick how many users to add and insert that many generated users.
//     A failed insert (e.g. a colliding e-mail) bumps Failed and moves on.
//  2. Pick how many to delete and look up that many oldest ids
//     (created_at ascending, id as tie-break).
//  3. Delete each id on its own. Each Delete is its own transaction, so one
//     failure never undoes the others.
//  4. Count the store and log the summary under the tick's uuid.
//
// Errors from steps 2 and 4 are joined with errors.Join so the caller sees
// both when both fail.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	res := TickResult{ID: uuid.NewString()}
	log := s.logger.With(slog.String("tick_id", res.ID))

	toAdd := s.pick(s.cfg.AddRange.Min, s.cfg.AddRange.Max)
	for i := 0; i < toAdd; i++ {
		u := s.source.User()
		if err := s.repo.Create(ctx, u); err != nil {
			res.Failed++
			log.Warn("churn insert failed",
				slog.String("email", u.Email),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Added++
	}

	var errs []error

	toDelete := s.pick(s.cfg.DeleteRange.Min, s.cfg.DeleteRange.Max)
	ids, err := s.repo.OldestIDs(ctx, toDelete)
	if err != nil {
		errs = append(errs, fmt.Errorf("churn: selecting oldest users: %w", err))
	}
	for _, id := range ids {
		if err := s.repo.Delete(ctx, id); err != nil {
			log.Warn("churn delete failed",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Deleted++
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("churn: counting users: %w", err))
		total = -1
	}
	res.Total = total

	log.Info("churn tick complete",
		slog.Int("added", res.Added),
		slog.Int("failed", res.Failed),
		slog.Int("deleted", res.Deleted),
		slog.Int("total", res.Total),
	)
	return res, errors.Join(errs...)
}

// Start launches the tick loop in the background. The first tick fires one
// interval after Start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop(loopCtx)

	s.logger.Info("churn scheduler started", slog.Duration("interval", s.cfg.Interval))
	return nil
}

// Stop halts the loop and waits for an in-flight tick to finish.
//
// The lock is released before waiting: the loop goroutine never takes mu,
// but a concurrent Running() call would otherwise block for the whole tick.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.logger.Info("churn scheduler stopped")
	return nil
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a started tick is never cut short by Stop
			if _, err := s.Tick(context.WithoutCancel(ctx)); err != nil {
				s.logger.Error("churn tick failed", slog.String("error", err.Error()))
			}
		}
	}
}
