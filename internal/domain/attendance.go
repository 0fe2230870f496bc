package domain

import (
	"strings"
	"time"
)

// NormalizeGenre canonicalizes a genre tag for case-insensitive matching
func NormalizeGenre(genre string) string {
	return strings.ToLower(strings.TrimSpace(genre))
}

// Attendance is a single logged concert visit
type Attendance struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ArtistID  string    `json:"artist_id"`
	Genres    []string  `json:"genres,omitempty"`
	VenueID   string    `json:"venue_id"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	EventDate time.Time `json:"event_date"`
	Festival  bool      `json:"festival,omitempty"`
	TripMiles *float64  `json:"trip_miles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogAttendanceRequest is a request to log a concert visit
type LogAttendanceRequest struct {
	UserID    string    `json:"user_id"`
	ArtistID  string    `json:"artist_id"`
	Genres    []string  `json:"genres,omitempty"`
	VenueID   string    `json:"venue_id"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Country   string    `json:"country"`
	EventDate time.Time `json:"event_date"`
	Festival  bool      `json:"festival,omitempty"`
	TripMiles *float64  `json:"trip_miles,omitempty"`
}

// ToAttendance converts a request into an Attendance with the given ID
func (r *LogAttendanceRequest) ToAttendance(id string) Attendance {
	now := time.Now()
	return Attendance{
		ID:        id,
		UserID:    r.UserID,
		ArtistID:  r.ArtistID,
		Genres:    r.Genres,
		VenueID:   r.VenueID,
		City:      r.City,
		State:     r.State,
		Country:   r.Country,
		EventDate: r.EventDate,
		Festival:  r.Festival,
		TripMiles: r.TripMiles,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Valid reports whether the request carries the required fields
func (r *LogAttendanceRequest) Valid() bool {
	return r.UserID != "" && r.ArtistID != "" && r.VenueID != "" && !r.EventDate.IsZero()
}

// MonthKey identifies a calendar month. Bucketing is by calendar month,
// not a sliding 30-day window.
type MonthKey struct {
	Year  int
	Month time.Month
}

// Next returns the calendar month immediately after k, rolling December
// into January of the following year.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// UserActivitySnapshot is the derived aggregate over a user's full
// attendance history. It is recomputed from the log on every evaluation
// and never persisted as a source of truth.
type UserActivitySnapshot struct {
	TotalShows         int
	ShowsByMonth       map[MonthKey]int
	MaxShowsInMonth    int
	LongestMonthStreak int
	ShowsByArtist      map[string]int
	MaxShowsByArtist   int
	ShowsByVenue       map[string]int
	MaxShowsByVenue    int
	UniqueVenues       int
	UniqueCities       int
	UniqueStates       int
	UniqueCountries    int
	// ShowsByGenre is keyed by lower-cased genre; a show contributes to
	// every genre tag on its artist.
	ShowsByGenre     map[string]int
	MaxTripMiles     float64
	AttendedFestival bool
}

// GenreCount returns the show count for a genre, matched case-insensitively
func (s *UserActivitySnapshot) GenreCount(genre string) int {
	if s.ShowsByGenre == nil {
		return 0
	}
	return s.ShowsByGenre[NormalizeGenre(genre)]
}
