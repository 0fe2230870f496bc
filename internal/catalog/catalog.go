// Package catalog holds versioned, immutable badge definitions. A Catalog
// is an injected value: callers construct one (or take the built-in
// default) and hand it to the engine, so catalog versions roll forward
// independently of process lifetime.
package catalog

import (
	"errors"
	"fmt"

	"github.com/concert-badges/internal/domain"
)

// Validation errors
var (
	ErrEmptyCatalog  = errors.New("catalog has no badges")
	ErrDuplicateID   = errors.New("duplicate badge id")
	ErrInvalidPoints = errors.New("badge points must be positive")
	ErrInvalidRule   = errors.New("invalid badge criteria")
)

// Catalog is an immutable, versioned list of badge definitions
type Catalog struct {
	version string
	badges  []domain.BadgeDefinition
	byID    map[string]domain.BadgeDefinition
}

// New builds a catalog from definitions, validating ids, points and
// criteria shapes. The slice is copied; the catalog never aliases caller
// memory.
func New(version string, badges []domain.BadgeDefinition) (*Catalog, error) {
	if len(badges) == 0 {
		return nil, ErrEmptyCatalog
	}

	known := make(map[domain.CriteriaType]bool, len(domain.AllCriteriaTypes()))
	for _, ct := range domain.AllCriteriaTypes() {
		known[ct] = true
	}

	byID := make(map[string]domain.BadgeDefinition, len(badges))
	copied := make([]domain.BadgeDefinition, len(badges))
	copy(copied, badges)

	for _, b := range copied {
		if b.ID == "" {
			return nil, fmt.Errorf("%w: empty id", ErrInvalidRule)
		}
		if _, ok := byID[b.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
		}
		if b.Points <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPoints, b.ID)
		}
		if err := validateCriteria(b.Criteria, known); err != nil {
			return nil, fmt.Errorf("badge %s: %w", b.ID, err)
		}
		byID[b.ID] = b
	}

	return &Catalog{version: version, badges: copied, byID: byID}, nil
}

func validateCriteria(c domain.Criteria, known map[domain.CriteriaType]bool) error {
	if !known[c.Type] {
		return fmt.Errorf("%w: unknown criteria type %q", ErrInvalidRule, c.Type)
	}
	switch c.Type {
	case domain.CriteriaFirstShow, domain.CriteriaFestival:
		// No parameters.
	case domain.CriteriaGenreShows:
		if c.Genre == "" {
			return fmt.Errorf("%w: genre_shows requires a genre", ErrInvalidRule)
		}
		if c.Count <= 0 {
			return fmt.Errorf("%w: genre_shows requires a positive count", ErrInvalidRule)
		}
	case domain.CriteriaDistanceTraveled:
		if c.Miles <= 0 {
			return fmt.Errorf("%w: distance_traveled requires positive miles", ErrInvalidRule)
		}
	default:
		if c.Count <= 0 {
			return fmt.Errorf("%w: %s requires a positive count", ErrInvalidRule, c.Type)
		}
	}
	return nil
}

// Version returns the catalog version label
func (c *Catalog) Version() string {
	return c.version
}

// Badges returns the definitions in catalog order. Evaluation walks this
// order, which fixes the ordering of newly earned awards.
func (c *Catalog) Badges() []domain.BadgeDefinition {
	out := make([]domain.BadgeDefinition, len(c.badges))
	copy(out, c.badges)
	return out
}

// Lookup returns the definition for a badge id
func (c *Catalog) Lookup(badgeID string) (domain.BadgeDefinition, bool) {
	b, ok := c.byID[badgeID]
	return b, ok
}

// Len returns the number of badge definitions
func (c *Catalog) Len() int {
	return len(c.badges)
}
