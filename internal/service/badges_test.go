package service

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concert-badges/internal/catalog"
	"github.com/concert-badges/internal/domain"
	"github.com/concert-badges/internal/redis"
)

// fakeStore is an in-memory Store
type fakeStore struct {
	attendances map[string]domain.Attendance
	awards      []domain.AwardRecord
	points      domain.PointsSummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{attendances: make(map[string]domain.Attendance)}
}

func (f *fakeStore) CreateAttendance(_ context.Context, a domain.Attendance) error {
	f.attendances[a.ID] = a
	return nil
}

func (f *fakeStore) UpdateAttendance(_ context.Context, a domain.Attendance) error {
	if _, ok := f.attendances[a.ID]; !ok {
		return domain.ErrAttendanceNotFound
	}
	f.attendances[a.ID] = a
	return nil
}

func (f *fakeStore) DeleteAttendance(_ context.Context, id string) error {
	if _, ok := f.attendances[id]; !ok {
		return domain.ErrAttendanceNotFound
	}
	delete(f.attendances, id)
	return nil
}

func (f *fakeStore) GetAttendance(_ context.Context, id string) (*domain.Attendance, error) {
	a, ok := f.attendances[id]
	if !ok {
		return nil, domain.ErrAttendanceNotFound
	}
	return &a, nil
}

func (f *fakeStore) ListAwards(_ context.Context, _ string) ([]domain.AwardRecord, error) {
	return f.awards, nil
}

func (f *fakeStore) GetPointsSummary(_ context.Context, userID string) (*domain.PointsSummary, error) {
	p := f.points
	p.UserID = userID
	return &p, nil
}

// fakeEval returns a canned evaluation result
type fakeEval struct {
	cat    *catalog.Catalog
	result *domain.EvaluationResult
	err    error
	calls  int
}

func (f *fakeEval) Evaluate(_ context.Context, userID string) (*domain.EvaluationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.UserID = userID
	return &r, nil
}

func (f *fakeEval) Catalog() *catalog.Catalog {
	return f.cat
}

// fakeCache records cache traffic
type fakeCache struct {
	summaries   map[string]redis.BadgeSummary
	invalidated []string
	sets        int
}

func newFakeCache() *fakeCache {
	return &fakeCache{summaries: make(map[string]redis.BadgeSummary)}
}

func (f *fakeCache) SetSummary(_ context.Context, s redis.BadgeSummary) error {
	f.summaries[s.UserID] = s
	f.sets++
	return nil
}

func (f *fakeCache) GetSummary(_ context.Context, userID string) (*redis.BadgeSummary, error) {
	s, ok := f.summaries[userID]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return &s, nil
}

func (f *fakeCache) Invalidate(_ context.Context, userID string) error {
	delete(f.summaries, userID)
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func serviceLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nullWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New("v1", []domain.BadgeDefinition{{
		ID: "first_show", Name: "First Show",
		Category: domain.CategoryMilestone, Rarity: domain.RarityCommon, Points: 10,
		Criteria: domain.Criteria{Type: domain.CriteriaFirstShow},
	}})
	require.NoError(t, err)
	return cat
}

func newTestService(store Store, eng Evaluator, cache SummaryCache) *BadgeService {
	return &BadgeService{store: store, engine: eng, cache: cache, logger: serviceLogger()}
}

func logRequest(userID string) domain.LogAttendanceRequest {
	return domain.LogAttendanceRequest{
		UserID:    userID,
		ArtistID:  "artist-1",
		VenueID:   "venue-1",
		City:      "Austin",
		EventDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func evalResult(evaluatedAt time.Time) *domain.EvaluationResult {
	return &domain.EvaluationResult{
		NewlyEarned: []domain.AwardRecord{
			{BadgeID: "b_new", PointsAtAward: 10, EarnedAt: evaluatedAt},
		},
		AlreadyEarned: map[string]bool{"a_old": true},
		Progress:      map[string]domain.Progress{"venues_10": {Current: 3, Target: 10}},
		EvaluatedAt:   evaluatedAt,
	}
}

func TestLogAttendance_InvalidRequest(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeEval{cat: testCatalog(t)}, nil)

	_, _, err := svc.LogAttendance(context.Background(), domain.LogAttendanceRequest{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, store.attendances)
}

func TestLogAttendance_InvalidatesThenRefreshesSummary(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.points = domain.PointsSummary{TotalPoints: 35, BadgeCount: 2}
	cache := newFakeCache()
	svc := newTestService(store, &fakeEval{cat: testCatalog(t), result: evalResult(fixed)}, cache)

	attendance, result, err := svc.LogAttendance(context.Background(), logRequest("u1"))
	require.NoError(t, err)
	require.NotNil(t, attendance)
	require.NotNil(t, result)

	// The stale summary is dropped when the mutation commits, then the
	// evaluation rewrites it.
	assert.Equal(t, []string{"u1"}, cache.invalidated)
	summary, ok := cache.summaries["u1"]
	require.True(t, ok)
	assert.Equal(t, []string{"a_old", "b_new"}, summary.EarnedBadgeIDs)
	assert.Equal(t, 35, summary.TotalPoints)
	assert.Equal(t, "v1", summary.CatalogVersion)
	assert.Equal(t, fixed, summary.EvaluatedAt)
	assert.Equal(t, domain.Progress{Current: 3, Target: 10}, summary.Progress["venues_10"])
}

func TestLogAttendance_EvaluationFailureStillInvalidates(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	cache.summaries["u1"] = redis.BadgeSummary{UserID: "u1", CatalogVersion: "v1"}
	eval := &fakeEval{
		cat: testCatalog(t),
		err: fmt.Errorf("%w: append failed", domain.ErrLedgerUnavailable),
	}
	svc := newTestService(store, eval, cache)

	attendance, _, err := svc.LogAttendance(context.Background(), logRequest("u1"))
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	require.NotNil(t, attendance, "attendance stays committed")

	// No fresh summary was written, and the stale one is gone rather than
	// outliving the log it was derived from.
	assert.Equal(t, []string{"u1"}, cache.invalidated)
	assert.Zero(t, cache.sets)
	assert.NotContains(t, cache.summaries, "u1")
}

func TestUpdateAttendance_UserMismatch(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.attendances["att-1"] = domain.Attendance{ID: "att-1", UserID: "u1"}
	svc := newTestService(store, &fakeEval{cat: testCatalog(t), result: evalResult(fixed)}, nil)

	_, _, err := svc.UpdateAttendance(context.Background(), "att-1", logRequest("u2"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDeleteAttendance_InvalidatesSummary(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.attendances["att-1"] = domain.Attendance{ID: "att-1", UserID: "u1"}
	cache := newFakeCache()
	svc := newTestService(store, &fakeEval{cat: testCatalog(t), result: evalResult(fixed)}, cache)

	result, err := svc.DeleteAttendance(context.Background(), "att-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, store.attendances)
	assert.Equal(t, []string{"u1"}, cache.invalidated)
}

func TestGetProgress_FreshCacheSkipsEvaluation(t *testing.T) {
	cache := newFakeCache()
	cache.summaries["u1"] = redis.BadgeSummary{
		UserID:         "u1",
		EarnedBadgeIDs: []string{"a_old"},
		CatalogVersion: "v1",
	}
	eval := &fakeEval{cat: testCatalog(t)}
	svc := newTestService(newFakeStore(), eval, cache)

	summary, err := svc.GetProgress(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_old"}, summary.EarnedBadgeIDs)
	assert.Zero(t, eval.calls)
}

func TestGetProgress_StaleCatalogVersionReevaluates(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := newFakeCache()
	cache.summaries["u1"] = redis.BadgeSummary{UserID: "u1", CatalogVersion: "v0"}
	eval := &fakeEval{cat: testCatalog(t), result: evalResult(fixed)}
	store := newFakeStore()
	store.points = domain.PointsSummary{TotalPoints: 10}
	svc := newTestService(store, eval, cache)

	summary, err := svc.GetProgress(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, eval.calls)
	assert.Equal(t, "v1", summary.CatalogVersion)
	assert.Equal(t, []string{"a_old", "b_new"}, summary.EarnedBadgeIDs)
}

func TestGetUserBadges_KeepsRetiredBadges(t *testing.T) {
	earnedAt := time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.awards = []domain.AwardRecord{
		{UserID: "u1", BadgeID: "first_show", EarnedAt: earnedAt, PointsAtAward: 10},
		{UserID: "u1", BadgeID: "retired_badge", EarnedAt: earnedAt, PointsAtAward: 50},
	}
	svc := newTestService(store, &fakeEval{cat: testCatalog(t)}, nil)

	badges, err := svc.GetUserBadges(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, badges, 2)

	assert.Equal(t, "First Show", badges[0].Badge.Name)

	// An award whose definition left the catalog keeps its frozen points.
	assert.Equal(t, "retired_badge", badges[1].Badge.ID)
	assert.Equal(t, 50, badges[1].Points)
}
