package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/concert-badges/internal/catalog"
	"github.com/concert-badges/internal/domain"
	"github.com/concert-badges/internal/redis"
)

// Store is the persistence the service needs: attendance log mutations
// plus the award read models.
type Store interface {
	CreateAttendance(ctx context.Context, a domain.Attendance) error
	UpdateAttendance(ctx context.Context, a domain.Attendance) error
	DeleteAttendance(ctx context.Context, id string) error
	GetAttendance(ctx context.Context, id string) (*domain.Attendance, error)
	ListAwards(ctx context.Context, userID string) ([]domain.AwardRecord, error)
	GetPointsSummary(ctx context.Context, userID string) (*domain.PointsSummary, error)
}

// Evaluator runs badge evaluation against a fixed catalog
type Evaluator interface {
	Evaluate(ctx context.Context, userID string) (*domain.EvaluationResult, error)
	Catalog() *catalog.Catalog
}

// SummaryCache stores per-user badge summaries
type SummaryCache interface {
	SetSummary(ctx context.Context, summary redis.BadgeSummary) error
	GetSummary(ctx context.Context, userID string) (*redis.BadgeSummary, error)
	Invalidate(ctx context.Context, userID string) error
}

// BadgeService provides business logic for attendance logging and badge
// evaluation. Every log mutation triggers a synchronous evaluation for
// the affected user; the engine serializes runs per user.
type BadgeService struct {
	store  Store
	engine Evaluator
	cache  SummaryCache
	logger *slog.Logger
}

// NewBadgeService creates a new badge service. cache may be nil to run
// without the Redis summary cache.
func NewBadgeService(
	store Store,
	eng Evaluator,
	cache *redis.Cache,
	logger *slog.Logger,
) *BadgeService {
	s := &BadgeService{
		store:  store,
		engine: eng,
		logger: logger,
	}
	if cache != nil {
		s.cache = cache
	}
	return s
}

// Catalog returns the active badge catalog
func (s *BadgeService) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

// LogAttendance records a concert visit and evaluates the user's badges
func (s *BadgeService) LogAttendance(ctx context.Context, req domain.LogAttendanceRequest) (*domain.Attendance, *domain.EvaluationResult, error) {
	if !req.Valid() {
		return nil, nil, domain.ErrInvalidRequest
	}

	attendance := req.ToAttendance(uuid.New().String())
	if err := s.store.CreateAttendance(ctx, attendance); err != nil {
		return nil, nil, fmt.Errorf("creating attendance: %w", err)
	}
	s.invalidateSummary(ctx, attendance.UserID)

	result, err := s.EvaluateUser(ctx, attendance.UserID)
	if err != nil {
		// The attendance is committed; a retried evaluation will pick up
		// the same satisfied set.
		s.logger.Warn("evaluation after log failed", "user_id", attendance.UserID, "error", err)
		return &attendance, nil, err
	}

	return &attendance, result, nil
}

// UpdateAttendance rewrites a logged visit and re-evaluates the user
func (s *BadgeService) UpdateAttendance(ctx context.Context, id string, req domain.LogAttendanceRequest) (*domain.Attendance, *domain.EvaluationResult, error) {
	if !req.Valid() {
		return nil, nil, domain.ErrInvalidRequest
	}

	existing, err := s.store.GetAttendance(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if existing.UserID != req.UserID {
		return nil, nil, domain.ErrInvalidRequest
	}

	updated := req.ToAttendance(id)
	updated.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateAttendance(ctx, updated); err != nil {
		return nil, nil, err
	}
	s.invalidateSummary(ctx, updated.UserID)

	result, err := s.EvaluateUser(ctx, updated.UserID)
	if err != nil {
		s.logger.Warn("evaluation after update failed", "user_id", updated.UserID, "error", err)
		return &updated, nil, err
	}

	return &updated, result, nil
}

// DeleteAttendance removes a logged visit and re-evaluates the user.
// Deleting a qualifying log never revokes badges; re-evaluation only
// refreshes progress and can still award anything newly satisfied.
func (s *BadgeService) DeleteAttendance(ctx context.Context, id string) (*domain.EvaluationResult, error) {
	existing, err := s.store.GetAttendance(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteAttendance(ctx, id); err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, existing.UserID)

	result, err := s.EvaluateUser(ctx, existing.UserID)
	if err != nil {
		s.logger.Warn("evaluation after delete failed", "user_id", existing.UserID, "error", err)
		return nil, err
	}
	return result, nil
}

// EvaluateUser runs a full badge evaluation for a user and refreshes the
// cached summary
func (s *BadgeService) EvaluateUser(ctx context.Context, userID string) (*domain.EvaluationResult, error) {
	result, err := s.engine.Evaluate(ctx, userID)
	if err != nil {
		return result, err
	}

	s.refreshSummary(ctx, result)
	return result, nil
}

// invalidateSummary drops the cached summary after a log mutation, so a
// stale summary can never outlive the data it was derived from even if
// the follow-up evaluation fails. Cache failures are logged and never
// fail the mutation.
func (s *BadgeService) invalidateSummary(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate badge summary", "user_id", userID, "error", err)
	}
}

// summaryFromResult assembles the cacheable summary view of an
// evaluation run: the sorted earned-badge ids, the progress map and the
// point total, stamped with the catalog version the run used.
func (s *BadgeService) summaryFromResult(result *domain.EvaluationResult, points *domain.PointsSummary) redis.BadgeSummary {
	earned := make([]string, 0, len(result.AlreadyEarned)+len(result.NewlyEarned))
	for badgeID := range result.AlreadyEarned {
		earned = append(earned, badgeID)
	}
	for _, rec := range result.NewlyEarned {
		earned = append(earned, rec.BadgeID)
	}
	sort.Strings(earned)

	return redis.BadgeSummary{
		UserID:         result.UserID,
		EarnedBadgeIDs: earned,
		Progress:       result.Progress,
		TotalPoints:    points.TotalPoints,
		CatalogVersion: s.engine.Catalog().Version(),
		EvaluatedAt:    result.EvaluatedAt,
	}
}

// refreshSummary rewrites the cached badge summary after an evaluation
// run. Cache failures are logged and never fail the run.
func (s *BadgeService) refreshSummary(ctx context.Context, result *domain.EvaluationResult) {
	if s.cache == nil || result == nil {
		return
	}

	points, err := s.store.GetPointsSummary(ctx, result.UserID)
	if err != nil {
		s.logger.Warn("failed to load points for summary cache", "user_id", result.UserID, "error", err)
		return
	}

	if err := s.cache.SetSummary(ctx, s.summaryFromResult(result, points)); err != nil {
		s.logger.Warn("failed to cache badge summary", "user_id", result.UserID, "error", err)
	}
}

// GetUserBadges returns a user's earned badges joined with catalog
// definitions. Awards whose badge id has since left the catalog are kept;
// awarded history is never invalidated by catalog edits.
func (s *BadgeService) GetUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	records, err := s.store.ListAwards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing awards: %w", err)
	}

	badges := make([]domain.UserBadge, 0, len(records))
	for _, rec := range records {
		def, ok := s.engine.Catalog().Lookup(rec.BadgeID)
		if !ok {
			def = domain.BadgeDefinition{ID: rec.BadgeID, Points: rec.PointsAtAward}
		}
		badges = append(badges, domain.UserBadge{
			Badge:    def,
			EarnedAt: rec.EarnedAt,
			Points:   rec.PointsAtAward,
		})
	}
	return badges, nil
}

// GetProgress returns a user's badge progress summary, served from cache
// when fresh and recomputed through a full evaluation otherwise.
// Re-evaluating on a miss is safe: runs are idempotent.
func (s *BadgeService) GetProgress(ctx context.Context, userID string) (*redis.BadgeSummary, error) {
	if s.cache != nil {
		summary, err := s.cache.GetSummary(ctx, userID)
		if err == nil && summary.CatalogVersion == s.engine.Catalog().Version() {
			return summary, nil
		}
		if err != nil && err != redis.ErrCacheMiss {
			s.logger.Warn("failed to read summary cache", "user_id", userID, "error", err)
		}
	}

	result, err := s.EvaluateUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	points, err := s.store.GetPointsSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting points summary: %w", err)
	}

	summary := s.summaryFromResult(result, points)
	return &summary, nil
}

// GetPoints returns a user's lifetime badge point total
func (s *BadgeService) GetPoints(ctx context.Context, userID string) (*domain.PointsSummary, error) {
	return s.store.GetPointsSummary(ctx, userID)
}
