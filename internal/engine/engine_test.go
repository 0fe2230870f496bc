package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concert-badges/internal/catalog"
	"github.com/concert-badges/internal/domain"
)

// memActivity is an in-memory ActivityStore keyed by user id.
type memActivity struct {
	mu      sync.Mutex
	entries map[string][]domain.Attendance
	err     error
}

func newMemActivity() *memActivity {
	return &memActivity{entries: make(map[string][]domain.Attendance)}
}

func (m *memActivity) add(userID string, a domain.Attendance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = append(m.entries[userID], a)
}

func (m *memActivity) clear(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = nil
}

func (m *memActivity) ListAttendances(_ context.Context, userID string) ([]domain.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Attendance, len(m.entries[userID]))
	copy(out, m.entries[userID])
	return out, nil
}

// memLedger is an in-memory AwardLedger with the same idempotency contract
// as the Postgres one: appending an existing (user, badge) pair reports
// duplicate with no error.
type memLedger struct {
	mu          sync.Mutex
	records     map[string]domain.AwardRecord
	failAppends bool

	// loadOverride, when set, is returned from LoadAwarded instead of the
	// real record set. It simulates a reader racing a concurrent append.
	loadOverride map[string]bool
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string]domain.AwardRecord)}
}

func ledgerKey(userID, badgeID string) string {
	return userID + "/" + badgeID
}

func (m *memLedger) LoadAwarded(_ context.Context, userID string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadOverride != nil {
		out := make(map[string]bool, len(m.loadOverride))
		for k, v := range m.loadOverride {
			out[k] = v
		}
		return out, nil
	}
	out := make(map[string]bool)
	for _, r := range m.records {
		if r.UserID == userID {
			out[r.BadgeID] = true
		}
	}
	return out, nil
}

func (m *memLedger) Append(_ context.Context, record domain.AwardRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppends {
		return false, errors.New("ledger write failed")
	}
	key := ledgerKey(record.UserID, record.BadgeID)
	if _, exists := m.records[key]; exists {
		return true, nil
	}
	m.records[key] = record
	return false, nil
}

// captureEmitter records every notification it receives.
type captureEmitter struct {
	mu     sync.Mutex
	events []domain.AwardRecord
}

func (c *captureEmitter) AwardEarned(_ context.Context, record domain.AwardRecord, _ domain.BadgeDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, record)
}

func (c *captureEmitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func mustCatalog(t *testing.T, version string, badges ...domain.BadgeDefinition) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(version, badges)
	require.NoError(t, err)
	return cat
}

func countBadge(id string, ct domain.CriteriaType, count, points int) domain.BadgeDefinition {
	return domain.BadgeDefinition{
		ID:       id,
		Name:     id,
		Category: domain.CategoryMilestone,
		Rarity:   domain.RarityCommon,
		Points:   points,
		Criteria: domain.Criteria{Type: ct, Count: count},
	}
}

func attendance(userID, artistID, venueID, city, date string) domain.Attendance {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return domain.Attendance{
		ID:        fmt.Sprintf("att-%s-%s", venueID, date),
		UserID:    userID,
		ArtistID:  artistID,
		VenueID:   venueID,
		City:      city,
		State:     "TX",
		Country:   "US",
		EventDate: d,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Three shows in three consecutive months by the same artist at three
// distinct venues: the user earns the first-show, three-consecutive-months
// and three-times-same-artist badges in one evaluation, and shows partial
// progress toward a ten-venue badge.
func TestEvaluate_AwardsAndProgress(t *testing.T) {
	cat := mustCatalog(t, "v1",
		domain.BadgeDefinition{
			ID: "first_show", Name: "First Show",
			Category: domain.CategoryMilestone, Rarity: domain.RarityCommon, Points: 10,
			Criteria: domain.Criteria{Type: domain.CriteriaFirstShow},
		},
		countBadge("months_3", domain.CriteriaConsecutiveMonths, 3, 25),
		countBadge("artist_3", domain.CriteriaSameArtist, 3, 25),
		countBadge("venues_10", domain.CriteriaUniqueVenues, 10, 50),
	)

	activity := newMemActivity()
	activity.add("u1", attendance("u1", "artist-1", "venue-1", "Austin", "2024-01-10"))
	activity.add("u1", attendance("u1", "artist-1", "venue-2", "Dallas", "2024-02-14"))
	activity.add("u1", attendance("u1", "artist-1", "venue-3", "Houston", "2024-03-02"))

	ledger := newMemLedger()
	emitter := &captureEmitter{}
	eng := New(activity, ledger, emitter, cat, testLogger())

	result, err := eng.Evaluate(context.Background(), "u1")
	require.NoError(t, err)

	earned := make([]string, 0, len(result.NewlyEarned))
	for _, r := range result.NewlyEarned {
		earned = append(earned, r.BadgeID)
	}
	// Catalog order is preserved in the award order.
	assert.Equal(t, []string{"first_show", "months_3", "artist_3"}, earned)

	require.Contains(t, result.Progress, "venues_10")
	assert.Equal(t, 3.0, result.Progress["venues_10"].Current)
	assert.Equal(t, 10.0, result.Progress["venues_10"].Target)

	// One notification per award, after the durable append.
	assert.Equal(t, 3, emitter.count())

	// Points are frozen at award time.
	for _, r := range result.NewlyEarned {
		def, ok := cat.Lookup(r.BadgeID)
		require.True(t, ok)
		assert.Equal(t, def.Points, r.PointsAtAward)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	cat := mustCatalog(t, "v1", countBadge("shows_2", domain.CriteriaShowCount, 2, 10))

	activity := newMemActivity()
	activity.add("u1", attendance("u1", "artist-1", "venue-1", "Austin", "2024-01-10"))
	activity.add("u1", attendance("u1", "artist-2", "venue-2", "Dallas", "2024-01-11"))

	ledger := newMemLedger()
	emitter := &captureEmitter{}
	eng := New(activity, ledger, emitter, cat, testLogger())

	first, err := eng.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, first.NewlyEarned, 1)

	second, err := eng.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, second.NewlyEarned)
	assert.True(t, second.AlreadyEarned["shows_2"])
	assert.Equal(t, 1, emitter.count())
}

// Awards are never revoked: shrinking the underlying activity does not
// remove a badge from the ledger or re-notify.
func TestEvaluate_MonotonicUnderActivityDeletion(t *testing.T) {
	cat := mustCatalog(t, "v1", countBadge("shows_2", domain.CriteriaShowCount, 2, 10))

	activity := newMemActivity()
	activity.add("u1", attendance("u1", "artist-1", "venue-1", "Austin", "2024-01-10"))
	activity.add("u1", attendance("u1", "artist-2", "venue-2", "Dallas", "2024-01-11"))

	ledger := newMemLedger()
	eng := New(activity, ledger, nil, cat, testLogger())

	_, err := eng.Evaluate(context.Background(), "u1")
	require.NoError(t, err)

	activity.clear("u1")

	result, err := eng.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, result.NewlyEarned)
	assert.True(t, result.AlreadyEarned["shows_2"], "earned badge survives activity deletion")
}

// Shipping a bigger catalog awards only the new definitions; awards from
// the previous catalog version stay in the ledger untouched.
func TestEvaluate_CatalogGrowth(t *testing.T) {
	activity := newMemActivity()
	activity.add("u1", attendance("u1", "artist-1", "venue-1", "Austin", "2024-01-10"))
	activity.add("u1", attendance("u1", "artist-1", "venue-2", "Dallas", "2024-01-11"))

	ledger := newMemLedger()

	catV1 := mustCatalog(t, "v1", countBadge("shows_1", domain.CriteriaShowCount, 1, 10))
	_, err := New(activity, ledger, nil, catV1, testLogger()).Evaluate(context.Background(), "u1")
	require.NoError(t, err)

	catV2 := mustCatalog(t, "v2",
		countBadge("shows_1", domain.CriteriaShowCount, 1, 10),
		countBadge("shows_2", domain.CriteriaShowCount, 2, 20),
	)
	emitter := &captureEmitter{}
	result, err := New(activity, ledger, emitter, catV2, testLogger()).Evaluate(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, result.NewlyEarned, 1)
	assert.Equal(t, "shows_2", result.NewlyEarned[0].BadgeID)
	assert.True(t, result.AlreadyEarned["shows_1"])
	assert.Equal(t, 1, emitter.count())
}

// A failed ledger append must not notify; the error is retryable and a
// later run converges to the same awards.
func TestEvaluate_AppendFailureIsRetryable(t *testing.T) {
	cat := mustCatalog(t, "v1", countBadge("shows_1", domain.CriteriaShowCount, 1, 10))

	activity := newMemActivity()
	activity.add("u1", attendance("u1", "artist-1", "venue-1", "Austin", "2024-01-10"))

	ledger := newMemLedger()
	ledger.failAppends = true
	emitter := &captureEmitter{}
	eng := New(activity, ledger, emitter, cat, testLogger())

	result, err := eng.Evaluate(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLedgerUnavailable)
	assert.True(t, domain.IsRetryable(err))
	assert.Empty(t, result.NewlyEarned)
	assert.Zero(t, emitter.count())

	// The retry succeeds and notifies exactly once.
	ledger.failAppends = false
	result, err = eng.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, result.NewlyEarned, 1)
	assert.Equal(t, 1, emitter.count())
}

// When a concurrent writer lands the award between our snapshot read and
// our append, the duplicate append is treated as already earned and is
// not notified a second time.
func TestEvaluate_DuplicateAppendNotReEmitted(t *testing.T) {
	cat := mustCatalog(t, "v1", countBadge("shows_1", domain.CriteriaShowCount, 1, 10))

	activity := newMemActivity()
	activity.add("u1", attendance("u1", "artist-1", "venue-1", "Austin", "2024-01-10"))

	ledger := newMemLedger()
	ledger.records[ledgerKey("u1", "shows_1")] = domain.AwardRecord{UserID: "u1", BadgeID: "shows_1"}
	ledger.loadOverride = map[string]bool{} // stale read: award not yet visible

	emitter := &captureEmitter{}
	eng := New(activity, ledger, emitter, cat, testLogger())

	result, err := eng.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, result.NewlyEarned)
	assert.True(t, result.AlreadyEarned["shows_1"])
	assert.Zero(t, emitter.count())
}

func TestEvaluate_ActivityStoreFailure(t *testing.T) {
	cat := mustCatalog(t, "v1", countBadge("shows_1", domain.CriteriaShowCount, 1, 10))

	activity := newMemActivity()
	activity.err = errors.New("connection refused")

	eng := New(activity, newMemLedger(), nil, cat, testLogger())
	_, err := eng.Evaluate(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrActivityUnavailable)
	assert.True(t, domain.IsRetryable(err))
}

// Two concurrent triggers for the same user produce exactly one award and
// one notification.
func TestEvaluate_ConcurrentTriggersSingleAward(t *testing.T) {
	cat := mustCatalog(t, "v1", countBadge("shows_1", domain.CriteriaShowCount, 1, 10))

	activity := newMemActivity()
	activity.add("u1", attendance("u1", "artist-1", "venue-1", "Austin", "2024-01-10"))

	ledger := newMemLedger()
	emitter := &captureEmitter{}
	eng := New(activity, ledger, emitter, cat, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Evaluate(context.Background(), "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, emitter.count())
	assert.Len(t, ledger.records, 1)
}

func TestEvaluate_DeterministicTimestamps(t *testing.T) {
	cat := mustCatalog(t, "v1",
		countBadge("shows_1", domain.CriteriaShowCount, 1, 10),
		countBadge("artist_1", domain.CriteriaSameArtist, 1, 10),
	)

	activity := newMemActivity()
	activity.add("u1", attendance("u1", "artist-1", "venue-1", "Austin", "2024-01-10"))

	eng := New(activity, newMemLedger(), nil, cat, testLogger())
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.now = func() time.Time { return fixed }

	result, err := eng.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, result.NewlyEarned, 2)

	// All awards from one run share the run's timestamp.
	for _, r := range result.NewlyEarned {
		assert.Equal(t, fixed, r.EarnedAt)
	}
	assert.Equal(t, fixed, result.EvaluatedAt)
}
