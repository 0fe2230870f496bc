package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/concert-badges/internal/config"
	"github.com/concert-badges/internal/domain"
)

// Repository provides PostgreSQL-based data access for the attendance log
// and the award ledger
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS attendances (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			artist_id VARCHAR(128) NOT NULL,
			genres JSONB,
			venue_id VARCHAR(128) NOT NULL,
			city VARCHAR(128),
			state VARCHAR(128),
			country VARCHAR(128),
			event_date TIMESTAMP NOT NULL,
			festival BOOLEAN NOT NULL DEFAULT FALSE,
			trip_miles DOUBLE PRECISION,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS badge_awards (
			user_id VARCHAR(64) NOT NULL,
			badge_id VARCHAR(64) NOT NULL,
			earned_at TIMESTAMP NOT NULL,
			points_at_award INT NOT NULL,
			PRIMARY KEY (user_id, badge_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attendances_user ON attendances(user_id, event_date)`,
		`CREATE INDEX IF NOT EXISTS idx_badge_awards_user ON badge_awards(user_id, earned_at)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// CreateAttendance inserts a logged concert visit
func (r *Repository) CreateAttendance(ctx context.Context, a domain.Attendance) error {
	genres, err := json.Marshal(a.Genres)
	if err != nil {
		return fmt.Errorf("marshaling genres: %w", err)
	}

	query := `
		INSERT INTO attendances (id, user_id, artist_id, genres, venue_id, city, state, country,
			event_date, festival, trip_miles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`
	_, err = r.pool.Exec(ctx, query,
		a.ID, a.UserID, a.ArtistID, genres, a.VenueID, a.City, a.State, a.Country,
		a.EventDate, a.Festival, a.TripMiles, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("creating attendance: %w", err)
	}
	return nil
}

// UpdateAttendance rewrites a logged concert visit
func (r *Repository) UpdateAttendance(ctx context.Context, a domain.Attendance) error {
	genres, err := json.Marshal(a.Genres)
	if err != nil {
		return fmt.Errorf("marshaling genres: %w", err)
	}

	query := `
		UPDATE attendances
		SET artist_id = $2, genres = $3, venue_id = $4, city = $5, state = $6, country = $7,
			event_date = $8, festival = $9, trip_miles = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		a.ID, a.ArtistID, genres, a.VenueID, a.City, a.State, a.Country,
		a.EventDate, a.Festival, a.TripMiles, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("updating attendance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAttendanceNotFound
	}
	return nil
}

// DeleteAttendance removes a logged concert visit
func (r *Repository) DeleteAttendance(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting attendance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrAttendanceNotFound
	}
	return nil
}

// GetAttendance retrieves a single attendance by id
func (r *Repository) GetAttendance(ctx context.Context, id string) (*domain.Attendance, error) {
	query := `
		SELECT id, user_id, artist_id, genres, venue_id, city, state, country,
			event_date, festival, trip_miles, created_at, updated_at
		FROM attendances
		WHERE id = $1
	`
	a, err := scanAttendance(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("getting attendance: %w", err)
	}
	return a, nil
}

// ListAttendances returns a user's full attendance log ordered by event
// date. Only committed rows are visible, so evaluation never sees
// in-flight state.
func (r *Repository) ListAttendances(ctx context.Context, userID string) ([]domain.Attendance, error) {
	query := `
		SELECT id, user_id, artist_id, genres, venue_id, city, state, country,
			event_date, festival, trip_miles, created_at, updated_at
		FROM attendances
		WHERE user_id = $1
		ORDER BY event_date, id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing attendances: %w", err)
	}
	defer rows.Close()

	var entries []domain.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning attendance: %w", err)
		}
		entries = append(entries, *a)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (*domain.Attendance, error) {
	var a domain.Attendance
	var genres []byte
	err := row.Scan(
		&a.ID, &a.UserID, &a.ArtistID, &genres, &a.VenueID, &a.City, &a.State, &a.Country,
		&a.EventDate, &a.Festival, &a.TripMiles, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(genres) > 0 {
		if err := json.Unmarshal(genres, &a.Genres); err != nil {
			return nil, fmt.Errorf("unmarshaling genres: %w", err)
		}
	}
	return &a, nil
}

// LoadAwarded returns the set of badge ids a user has earned
func (r *Repository) LoadAwarded(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT badge_id FROM badge_awards WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("loading awarded badges: %w", err)
	}
	defer rows.Close()

	awarded := make(map[string]bool)
	for rows.Next() {
		var badgeID string
		if err := rows.Scan(&badgeID); err != nil {
			return nil, fmt.Errorf("scanning badge id: %w", err)
		}
		awarded[badgeID] = true
	}
	return awarded, rows.Err()
}

// Append inserts an award record. The (user_id, badge_id) primary key
// makes the insert idempotent: a retried append reports duplicate=true
// and leaves the original record untouched.
func (r *Repository) Append(ctx context.Context, record domain.AwardRecord) (bool, error) {
	query := `
		INSERT INTO badge_awards (user_id, badge_id, earned_at, points_at_award)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query,
		record.UserID, record.BadgeID, record.EarnedAt, record.PointsAtAward,
	)
	if err != nil {
		return false, fmt.Errorf("appending award: %w", err)
	}
	return result.RowsAffected() == 0, nil
}

// ListAwards returns a user's award records ordered by when they were earned
func (r *Repository) ListAwards(ctx context.Context, userID string) ([]domain.AwardRecord, error) {
	query := `
		SELECT user_id, badge_id, earned_at, points_at_award
		FROM badge_awards
		WHERE user_id = $1
		ORDER BY earned_at, badge_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing awards: %w", err)
	}
	defer rows.Close()

	var records []domain.AwardRecord
	for rows.Next() {
		var rec domain.AwardRecord
		if err := rows.Scan(&rec.UserID, &rec.BadgeID, &rec.EarnedAt, &rec.PointsAtAward); err != nil {
			return nil, fmt.Errorf("scanning award: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetPointsSummary returns a user's lifetime point total and badge count
func (r *Repository) GetPointsSummary(ctx context.Context, userID string) (*domain.PointsSummary, error) {
	query := `
		SELECT COALESCE(SUM(points_at_award), 0), COUNT(*)
		FROM badge_awards
		WHERE user_id = $1
	`
	summary := &domain.PointsSummary{UserID: userID}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&summary.TotalPoints, &summary.BadgeCount)
	if err != nil {
		return nil, fmt.Errorf("getting points summary: %w", err)
	}
	return summary, nil
}

// ListUserIDs returns a page of distinct user ids greater than afterID in
// ascending order. The backfill job pages with this to stream the user
// base in bounded memory.
func (r *Repository) ListUserIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM attendances
		WHERE user_id > $1
		ORDER BY user_id
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountUsers returns the number of distinct users with attendance logs
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT user_id) FROM attendances`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}
