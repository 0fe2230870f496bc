// Package worker runs catalog backfills: batch re-evaluation of every
// existing user's history, triggered when the badge catalog gains new
// definitions. The job streams user ids in pages, so it never
// materializes the whole user base, and it is restartable at any point
// because ledger appends are idempotent.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/concert-badges/internal/config"
	"github.com/concert-badges/internal/domain"
)

// UserSource pages through the ids of every user with logged activity
type UserSource interface {
	ListUserIDs(ctx context.Context, afterID string, limit int) ([]string, error)
	CountUsers(ctx context.Context) (int64, error)
}

// Evaluator runs a full badge evaluation for one user
type Evaluator interface {
	Evaluate(ctx context.Context, userID string) (*domain.EvaluationResult, error)
}

// Status is a point-in-time view of a backfill run
type Status struct {
	Running    bool      `json:"running"`
	Processed  int64     `json:"processed"`
	Total      int64     `json:"total"`
	Awarded    int64     `json:"awarded"`
	Failed     int64     `json:"failed"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Backfiller re-evaluates all users against the engine's catalog
type Backfiller struct {
	users  UserSource
	eval   Evaluator
	config *config.BackfillConfig
	logger *slog.Logger

	mu         sync.Mutex
	running    bool
	startedAt  time.Time
	finishedAt time.Time

	processed atomic.Int64
	total     atomic.Int64
	awarded   atomic.Int64
	failed    atomic.Int64
}

// NewBackfiller creates a backfill worker
func NewBackfiller(users UserSource, eval Evaluator, cfg *config.BackfillConfig, logger *slog.Logger) *Backfiller {
	return &Backfiller{
		users:  users,
		eval:   eval,
		config: cfg,
		logger: logger,
	}
}

// Status returns the current run's progress counters
func (b *Backfiller) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Running:    b.running,
		Processed:  b.processed.Load(),
		Total:      b.total.Load(),
		Awarded:    b.awarded.Load(),
		Failed:     b.failed.Load(),
		StartedAt:  b.startedAt,
		FinishedAt: b.finishedAt,
	}
}

// Run executes one full backfill sweep. Only one run may be active at a
// time. Cancellation is honored between users, never mid-user, so an
// interrupted run leaves no partially evaluated user behind; a restart
// simply re-evaluates, which the ledger's idempotency makes a no-op for
// anything already awarded.
func (b *Backfiller) Run(ctx context.Context) (status Status, err error) {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return b.Status(), domain.ErrBackfillRunning
	}
	b.running = true
	b.startedAt = time.Now()
	b.finishedAt = time.Time{}
	b.mu.Unlock()

	b.processed.Store(0)
	b.awarded.Store(0)
	b.failed.Store(0)

	// Finalize the run before the caller sees the returned status, so a
	// finished Run never reports itself as still running.
	defer func() {
		b.mu.Lock()
		b.running = false
		b.finishedAt = time.Now()
		b.mu.Unlock()
		status = b.Status()
	}()

	total, err := b.users.CountUsers(ctx)
	if err != nil {
		return b.Status(), fmt.Errorf("counting users: %w", err)
	}
	b.total.Store(total)

	b.logger.Info("backfill started",
		"total_users", total,
		"page_size", b.config.PageSize,
		"concurrency", b.config.Concurrency,
	)

	sem := make(chan struct{}, b.config.Concurrency)
	var wg sync.WaitGroup

	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			b.logger.Info("backfill cancelled",
				"processed", b.processed.Load(),
				"total", total,
			)
			return b.Status(), err
		}

		ids, err := b.users.ListUserIDs(ctx, afterID, b.config.PageSize)
		if err != nil {
			wg.Wait()
			return b.Status(), fmt.Errorf("listing users after %q: %w", afterID, err)
		}
		if len(ids) == 0 {
			break
		}
		afterID = ids[len(ids)-1]

		for _, userID := range ids {
			if err := ctx.Err(); err != nil {
				wg.Wait()
				return b.Status(), err
			}

			wg.Add(1)
			sem <- struct{}{}
			go func(userID string) {
				defer wg.Done()
				defer func() { <-sem }()
				b.processUser(ctx, userID)
			}(userID)
		}
	}

	wg.Wait()

	b.logger.Info("backfill completed",
		"processed", b.processed.Load(),
		"awarded", b.awarded.Load(),
		"failed", b.failed.Load(),
		"duration", time.Since(b.startedAt),
	)
	return b.Status(), nil
}

// processUser evaluates one user; a failure is counted and logged but
// never aborts the sweep, since the next run will retry safely.
func (b *Backfiller) processUser(ctx context.Context, userID string) {
	result, err := b.eval.Evaluate(ctx, userID)
	if err != nil {
		b.failed.Add(1)
		b.logger.Error("backfill evaluation failed", "user_id", userID, "error", err)
	}
	if result != nil {
		b.awarded.Add(int64(len(result.NewlyEarned)))
	}
	processed := b.processed.Add(1)

	if processed%1000 == 0 {
		b.logger.Info("backfill progress",
			"processed", processed,
			"total", b.total.Load(),
		)
	}
}
