// Package aggregate reduces a user's raw attendance log into the compact
// statistics snapshot the criteria evaluators run against. The reduction
// is a pure function with no side effects; it never touches the award
// ledger, and it is rerun from scratch whenever the log set changes so the
// snapshot cannot drift from the source data.
package aggregate

import (
	"sort"

	"github.com/concert-badges/internal/domain"
)

// BuildSnapshot reduces attendance entries into a UserActivitySnapshot.
// Entries with missing optional fields (no trip distance, no festival
// flag) contribute what they have and never cause an error.
func BuildSnapshot(entries []domain.Attendance) *domain.UserActivitySnapshot {
	snap := &domain.UserActivitySnapshot{
		ShowsByMonth:  make(map[domain.MonthKey]int),
		ShowsByArtist: make(map[string]int),
		ShowsByVenue:  make(map[string]int),
		ShowsByGenre:  make(map[string]int),
	}

	cities := make(map[string]bool)
	states := make(map[string]bool)
	countries := make(map[string]bool)

	for _, e := range entries {
		snap.TotalShows++

		if !e.EventDate.IsZero() {
			key := domain.MonthKey{Year: e.EventDate.Year(), Month: e.EventDate.Month()}
			snap.ShowsByMonth[key]++
			if snap.ShowsByMonth[key] > snap.MaxShowsInMonth {
				snap.MaxShowsInMonth = snap.ShowsByMonth[key]
			}
		}

		if e.ArtistID != "" {
			snap.ShowsByArtist[e.ArtistID]++
			if snap.ShowsByArtist[e.ArtistID] > snap.MaxShowsByArtist {
				snap.MaxShowsByArtist = snap.ShowsByArtist[e.ArtistID]
			}
		}

		if e.VenueID != "" {
			snap.ShowsByVenue[e.VenueID]++
			if snap.ShowsByVenue[e.VenueID] > snap.MaxShowsByVenue {
				snap.MaxShowsByVenue = snap.ShowsByVenue[e.VenueID]
			}
		}

		if e.City != "" {
			cities[e.City] = true
		}
		if e.State != "" {
			states[e.State] = true
		}
		if e.Country != "" {
			countries[e.Country] = true
		}

		// A show counts toward every genre tag on its artist, so one log
		// can advance several genre badges at once.
		for _, g := range e.Genres {
			if norm := domain.NormalizeGenre(g); norm != "" {
				snap.ShowsByGenre[norm]++
			}
		}

		if e.TripMiles != nil && *e.TripMiles > snap.MaxTripMiles {
			snap.MaxTripMiles = *e.TripMiles
		}

		if e.Festival {
			snap.AttendedFestival = true
		}
	}

	snap.UniqueVenues = len(snap.ShowsByVenue)
	snap.UniqueCities = len(cities)
	snap.UniqueStates = len(states)
	snap.UniqueCountries = len(countries)
	snap.LongestMonthStreak = longestMonthStreak(snap.ShowsByMonth)

	return snap
}

// longestMonthStreak walks the sorted distinct months with at least one
// show and returns the longest run of consecutive calendar months.
// December into the following January counts as consecutive.
func longestMonthStreak(byMonth map[domain.MonthKey]int) int {
	if len(byMonth) == 0 {
		return 0
	}

	keys := make([]domain.MonthKey, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Month < keys[j].Month
	})

	longest := 1
	current := 1
	for i := 1; i < len(keys); i++ {
		if keys[i] == keys[i-1].Next() {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 1
		}
	}
	return longest
}
