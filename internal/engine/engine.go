// Package engine runs badge evaluation: it rebuilds a user's activity
// snapshot from the attendance log, tests every catalog badge the user has
// not yet earned, appends new awards to the ledger and emits a
// notification per award once the append is durable.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/concert-badges/internal/aggregate"
	"github.com/concert-badges/internal/catalog"
	"github.com/concert-badges/internal/criteria"
	"github.com/concert-badges/internal/domain"
)

// ActivityStore reads a user's committed attendance log
type ActivityStore interface {
	ListAttendances(ctx context.Context, userID string) ([]domain.Attendance, error)
}

// AwardLedger is the durable, append-only record of earned badges. Append
// must be idempotent on (userID, badgeID): a duplicate append reports
// duplicate=true with no error and no second record.
type AwardLedger interface {
	LoadAwarded(ctx context.Context, userID string) (map[string]bool, error)
	Append(ctx context.Context, record domain.AwardRecord) (duplicate bool, err error)
}

// Emitter is notified once per newly earned award, strictly after the
// ledger append has succeeded.
type Emitter interface {
	AwardEarned(ctx context.Context, record domain.AwardRecord, badge domain.BadgeDefinition)
}

// NopEmitter discards award notifications
type NopEmitter struct{}

// AwardEarned implements Emitter
func (NopEmitter) AwardEarned(context.Context, domain.AwardRecord, domain.BadgeDefinition) {}

// Engine orchestrates evaluation runs against a fixed catalog version.
// The catalog is an injected value; rolling a new catalog version forward
// means constructing a new Engine around it.
type Engine struct {
	activity ActivityStore
	ledger   AwardLedger
	emitter  Emitter
	catalog  *catalog.Catalog
	logger   *slog.Logger
	locks    *userLocks
	now      func() time.Time
}

// New creates an evaluation engine
func New(activity ActivityStore, ledger AwardLedger, emitter Emitter, cat *catalog.Catalog, logger *slog.Logger) *Engine {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Engine{
		activity: activity,
		ledger:   ledger,
		emitter:  emitter,
		catalog:  cat,
		logger:   logger,
		locks:    newUserLocks(),
		now:      time.Now,
	}
}

// Catalog returns the catalog version this engine evaluates against
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Evaluate runs a full evaluation for one user. The read-snapshot →
// evaluate → append sequence holds the user's exclusive lock, so two
// concurrent triggers (two devices logging at once) cannot both decide a
// badge is newly earned.
//
// On ledger append failure the affected badges are left out of the result
// and no notification is emitted for them; the returned error is
// retryable and a later run will re-derive the same satisfied set.
func (e *Engine) Evaluate(ctx context.Context, userID string) (*domain.EvaluationResult, error) {
	e.locks.Lock(userID)
	defer e.locks.Unlock(userID)

	entries, err := e.activity.ListAttendances(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing attendances for %s: %v", domain.ErrActivityUnavailable, userID, err)
	}

	awarded, err := e.ledger.LoadAwarded(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading awards for %s: %v", domain.ErrLedgerUnavailable, userID, err)
	}

	snap := aggregate.BuildSnapshot(entries)
	runAt := e.now()

	result := &domain.EvaluationResult{
		UserID:        userID,
		NewlyEarned:   []domain.AwardRecord{},
		AlreadyEarned: awarded,
		Progress:      make(map[string]domain.Progress),
		EvaluatedAt:   runAt,
	}

	var satisfied []domain.BadgeDefinition
	for _, badge := range e.catalog.Badges() {
		// Already-awarded badges are never re-evaluated or re-emitted,
		// which keeps awards monotonic regardless of the current snapshot.
		if awarded[badge.ID] {
			continue
		}

		outcome, err := criteria.Evaluate(badge, snap)
		if err != nil {
			e.logger.Warn("skipping badge: evaluator failed",
				"user_id", userID,
				"badge_id", badge.ID,
				"error", err,
			)
			continue
		}

		if outcome.Satisfied {
			satisfied = append(satisfied, badge)
		} else if outcome.Progress != nil {
			result.Progress[badge.ID] = *outcome.Progress
		}
	}

	appendFailures := 0
	for _, badge := range satisfied {
		record := domain.AwardRecord{
			UserID:        userID,
			BadgeID:       badge.ID,
			EarnedAt:      runAt,
			PointsAtAward: badge.Points,
		}

		duplicate, err := e.ledger.Append(ctx, record)
		if err != nil {
			e.logger.Error("failed to append award",
				"user_id", userID,
				"badge_id", badge.ID,
				"error", err,
			)
			appendFailures++
			continue
		}
		if duplicate {
			// Another run already awarded and notified; treat as earned
			// without emitting again.
			result.AlreadyEarned[badge.ID] = true
			continue
		}

		result.NewlyEarned = append(result.NewlyEarned, record)
		e.emitter.AwardEarned(ctx, record, badge)
	}

	if len(result.NewlyEarned) > 0 {
		e.logger.Info("badges earned",
			"user_id", userID,
			"count", len(result.NewlyEarned),
			"catalog_version", e.catalog.Version(),
		)
	}

	if appendFailures > 0 {
		return result, fmt.Errorf("%w: %d award appends failed", domain.ErrLedgerUnavailable, appendFailures)
	}
	return result, nil
}
