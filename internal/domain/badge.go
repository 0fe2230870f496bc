package domain

// Category groups badges for display purposes
type Category string

const (
	CategoryMilestone Category = "milestone"
	CategoryStreak    Category = "streak"
	CategoryLoyalty   Category = "loyalty"
	CategoryExplorer  Category = "explorer"
	CategoryTraveler  Category = "traveler"
	CategoryGenre     Category = "genre"
	CategoryVenue     Category = "venue"
	CategorySpecial   Category = "special"
)

// Rarity is a display-only classification and never affects evaluation
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// CriteriaType identifies the rule shape a badge's award depends on
type CriteriaType string

const (
	CriteriaFirstShow         CriteriaType = "first_show"
	CriteriaShowCount         CriteriaType = "show_count"
	CriteriaShowsInMonth      CriteriaType = "shows_in_month"
	CriteriaConsecutiveMonths CriteriaType = "consecutive_months"
	CriteriaSameArtist        CriteriaType = "same_artist"
	CriteriaSameVenue         CriteriaType = "same_venue"
	CriteriaUniqueVenues      CriteriaType = "unique_venues"
	CriteriaUniqueCities      CriteriaType = "unique_cities"
	CriteriaUniqueStates      CriteriaType = "unique_states"
	CriteriaUniqueCountries   CriteriaType = "unique_countries"
	CriteriaGenreShows        CriteriaType = "genre_shows"
	CriteriaFestival          CriteriaType = "festival"
	CriteriaDistanceTraveled  CriteriaType = "distance_traveled"
)

// AllCriteriaTypes returns every criteria type the engine knows about.
// The evaluator dispatch test walks this list, so adding a type here
// without an evaluator fails the build's test run.
func AllCriteriaTypes() []CriteriaType {
	return []CriteriaType{
		CriteriaFirstShow,
		CriteriaShowCount,
		CriteriaShowsInMonth,
		CriteriaConsecutiveMonths,
		CriteriaSameArtist,
		CriteriaSameVenue,
		CriteriaUniqueVenues,
		CriteriaUniqueCities,
		CriteriaUniqueStates,
		CriteriaUniqueCountries,
		CriteriaGenreShows,
		CriteriaFestival,
		CriteriaDistanceTraveled,
	}
}

// Criteria is the tagged union of the thirteen rule shapes. Type selects
// the variant; Count, Genre and Miles are only meaningful for the variants
// that use them.
type Criteria struct {
	Type  CriteriaType `json:"type" yaml:"type"`
	Count int          `json:"count,omitempty" yaml:"count,omitempty"`
	Genre string       `json:"genre,omitempty" yaml:"genre,omitempty"`
	Miles float64      `json:"miles,omitempty" yaml:"miles,omitempty"`
}

// BadgeDefinition is an immutable catalog entry. IDs are stable keys and
// are never reused across catalog versions.
type BadgeDefinition struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Category    Category `json:"category" yaml:"category"`
	Rarity      Rarity   `json:"rarity" yaml:"rarity"`
	Points      int      `json:"points" yaml:"points"`
	Criteria    Criteria `json:"criteria" yaml:"criteria"`
}
