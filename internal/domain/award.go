package domain

import "time"

// AwardRecord is the durable, append-only record of a single earned badge.
// PointsAtAward freezes the badge's point value at the moment of award so
// later catalog edits never rewrite history.
type AwardRecord struct {
	UserID        string    `json:"user_id"`
	BadgeID       string    `json:"badge_id"`
	EarnedAt      time.Time `json:"earned_at"`
	PointsAtAward int       `json:"points_at_award"`
}

// Progress is how close an unearned badge is to being satisfied
type Progress struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
}

// EvaluationResult is the transient outcome of one evaluation run
type EvaluationResult struct {
	UserID        string              `json:"user_id"`
	NewlyEarned   []AwardRecord       `json:"newly_earned"`
	AlreadyEarned map[string]bool     `json:"already_earned"`
	Progress      map[string]Progress `json:"progress"`
	EvaluatedAt   time.Time           `json:"evaluated_at"`
}

// UserBadge joins an award record with its catalog definition for display
type UserBadge struct {
	Badge    BadgeDefinition `json:"badge"`
	EarnedAt time.Time       `json:"earned_at"`
	Points   int             `json:"points"`
}

// PointsSummary is a user's lifetime badge point total
type PointsSummary struct {
	UserID      string `json:"user_id"`
	TotalPoints int    `json:"total_points"`
	BadgeCount  int    `json:"badge_count"`
}
