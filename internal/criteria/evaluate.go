// Package criteria maps badge criteria onto snapshot statistics. Every
// evaluator is a pure function of the snapshot and the single badge being
// tested; no evaluator reads another badge's state. All thresholds compare
// with >=, so exceeding a target still satisfies it.
package criteria

import (
	"errors"
	"fmt"

	"github.com/concert-badges/internal/domain"
)

// ErrUnknownCriteria is returned when a badge carries a criteria type the
// dispatcher has no evaluator for. The orchestrator skips that one badge
// and continues the run.
var ErrUnknownCriteria = errors.New("unknown criteria type")

// Outcome is the result of testing one badge against a snapshot. Progress
// is nil for criteria without a numeric progress notion (festival).
type Outcome struct {
	Satisfied bool
	Progress  *domain.Progress
}

// Evaluate tests a badge definition against an activity snapshot
func Evaluate(def domain.BadgeDefinition, snap *domain.UserActivitySnapshot) (Outcome, error) {
	c := def.Criteria
	switch c.Type {
	case domain.CriteriaFirstShow:
		return countOutcome(snap.TotalShows, 1), nil
	case domain.CriteriaShowCount:
		return countOutcome(snap.TotalShows, c.Count), nil
	case domain.CriteriaShowsInMonth:
		return countOutcome(snap.MaxShowsInMonth, c.Count), nil
	case domain.CriteriaConsecutiveMonths:
		return countOutcome(snap.LongestMonthStreak, c.Count), nil
	case domain.CriteriaSameArtist:
		return countOutcome(snap.MaxShowsByArtist, c.Count), nil
	case domain.CriteriaSameVenue:
		return countOutcome(snap.MaxShowsByVenue, c.Count), nil
	case domain.CriteriaUniqueVenues:
		return countOutcome(snap.UniqueVenues, c.Count), nil
	case domain.CriteriaUniqueCities:
		return countOutcome(snap.UniqueCities, c.Count), nil
	case domain.CriteriaUniqueStates:
		return countOutcome(snap.UniqueStates, c.Count), nil
	case domain.CriteriaUniqueCountries:
		return countOutcome(snap.UniqueCountries, c.Count), nil
	case domain.CriteriaGenreShows:
		return countOutcome(snap.GenreCount(c.Genre), c.Count), nil
	case domain.CriteriaFestival:
		return Outcome{Satisfied: snap.AttendedFestival}, nil
	case domain.CriteriaDistanceTraveled:
		return Outcome{
			Satisfied: snap.MaxTripMiles >= c.Miles,
			Progress:  &domain.Progress{Current: snap.MaxTripMiles, Target: c.Miles},
		}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownCriteria, c.Type)
	}
}

func countOutcome(current, target int) Outcome {
	return Outcome{
		Satisfied: current >= target,
		Progress:  &domain.Progress{Current: float64(current), Target: float64(target)},
	}
}
