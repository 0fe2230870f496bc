package catalog

import "github.com/concert-badges/internal/domain"

// DefaultVersion is the version label of the built-in catalog
const DefaultVersion = "2024-06"

// Default returns the built-in badge catalog. The data is validated at
// startup through New, so a malformed entry fails fast rather than being
// silently skipped at evaluation time.
func Default() (*Catalog, error) {
	return New(DefaultVersion, defaultBadges())
}

func defaultBadges() []domain.BadgeDefinition {
	return []domain.BadgeDefinition{
		// Milestones
		{
			ID: "first_show", Name: "First Show", Description: "Log your first concert",
			Category: domain.CategoryMilestone, Rarity: domain.RarityCommon, Points: 10,
			Criteria: domain.Criteria{Type: domain.CriteriaFirstShow},
		},
		{
			ID: "shows_5", Name: "Getting Started", Description: "Attend 5 shows",
			Category: domain.CategoryMilestone, Rarity: domain.RarityCommon, Points: 25,
			Criteria: domain.Criteria{Type: domain.CriteriaShowCount, Count: 5},
		},
		{
			ID: "shows_10", Name: "Regular", Description: "Attend 10 shows",
			Category: domain.CategoryMilestone, Rarity: domain.RarityCommon, Points: 50,
			Criteria: domain.Criteria{Type: domain.CriteriaShowCount, Count: 10},
		},
		{
			ID: "shows_25", Name: "Devoted", Description: "Attend 25 shows",
			Category: domain.CategoryMilestone, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaShowCount, Count: 25},
		},
		{
			ID: "shows_50", Name: "Diehard", Description: "Attend 50 shows",
			Category: domain.CategoryMilestone, Rarity: domain.RarityRare, Points: 200,
			Criteria: domain.Criteria{Type: domain.CriteriaShowCount, Count: 50},
		},
		{
			ID: "shows_100", Name: "Centurion", Description: "Attend 100 shows",
			Category: domain.CategoryMilestone, Rarity: domain.RarityEpic, Points: 500,
			Criteria: domain.Criteria{Type: domain.CriteriaShowCount, Count: 100},
		},
		{
			ID: "shows_250", Name: "Lifer", Description: "Attend 250 shows",
			Category: domain.CategoryMilestone, Rarity: domain.RarityLegendary, Points: 1000,
			Criteria: domain.Criteria{Type: domain.CriteriaShowCount, Count: 250},
		},

		// Streaks
		{
			ID: "month_3", Name: "Busy Month", Description: "Attend 3 shows in a single month",
			Category: domain.CategoryStreak, Rarity: domain.RarityUncommon, Points: 50,
			Criteria: domain.Criteria{Type: domain.CriteriaShowsInMonth, Count: 3},
		},
		{
			ID: "month_5", Name: "Show Marathon", Description: "Attend 5 shows in a single month",
			Category: domain.CategoryStreak, Rarity: domain.RarityRare, Points: 150,
			Criteria: domain.Criteria{Type: domain.CriteriaShowsInMonth, Count: 5},
		},
		{
			ID: "streak_3", Name: "On a Roll", Description: "Attend shows in 3 consecutive months",
			Category: domain.CategoryStreak, Rarity: domain.RarityUncommon, Points: 75,
			Criteria: domain.Criteria{Type: domain.CriteriaConsecutiveMonths, Count: 3},
		},
		{
			ID: "streak_6", Name: "Habit Formed", Description: "Attend shows in 6 consecutive months",
			Category: domain.CategoryStreak, Rarity: domain.RarityRare, Points: 200,
			Criteria: domain.Criteria{Type: domain.CriteriaConsecutiveMonths, Count: 6},
		},
		{
			ID: "streak_12", Name: "Year-Round", Description: "Attend shows in 12 consecutive months",
			Category: domain.CategoryStreak, Rarity: domain.RarityEpic, Points: 500,
			Criteria: domain.Criteria{Type: domain.CriteriaConsecutiveMonths, Count: 12},
		},

		// Loyalty
		{
			ID: "artist_3", Name: "Fan", Description: "See the same artist 3 times",
			Category: domain.CategoryLoyalty, Rarity: domain.RarityCommon, Points: 50,
			Criteria: domain.Criteria{Type: domain.CriteriaSameArtist, Count: 3},
		},
		{
			ID: "artist_5", Name: "Superfan", Description: "See the same artist 5 times",
			Category: domain.CategoryLoyalty, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaSameArtist, Count: 5},
		},
		{
			ID: "artist_10", Name: "Groupie", Description: "See the same artist 10 times",
			Category: domain.CategoryLoyalty, Rarity: domain.RarityRare, Points: 250,
			Criteria: domain.Criteria{Type: domain.CriteriaSameArtist, Count: 10},
		},
		{
			ID: "artist_25", Name: "Road Crew", Description: "See the same artist 25 times",
			Category: domain.CategoryLoyalty, Rarity: domain.RarityLegendary, Points: 750,
			Criteria: domain.Criteria{Type: domain.CriteriaSameArtist, Count: 25},
		},

		// Venues
		{
			ID: "venue_5", Name: "Local", Description: "Attend 5 shows at the same venue",
			Category: domain.CategoryVenue, Rarity: domain.RarityUncommon, Points: 75,
			Criteria: domain.Criteria{Type: domain.CriteriaSameVenue, Count: 5},
		},
		{
			ID: "venue_10", Name: "House Regular", Description: "Attend 10 shows at the same venue",
			Category: domain.CategoryVenue, Rarity: domain.RarityRare, Points: 200,
			Criteria: domain.Criteria{Type: domain.CriteriaSameVenue, Count: 10},
		},
		{
			ID: "venue_25", Name: "Part of the Furniture", Description: "Attend 25 shows at the same venue",
			Category: domain.CategoryVenue, Rarity: domain.RarityEpic, Points: 500,
			Criteria: domain.Criteria{Type: domain.CriteriaSameVenue, Count: 25},
		},

		// Explorer
		{
			ID: "venues_5", Name: "Scene Sampler", Description: "Visit 5 different venues",
			Category: domain.CategoryExplorer, Rarity: domain.RarityCommon, Points: 50,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueVenues, Count: 5},
		},
		{
			ID: "venues_10", Name: "Venue Explorer", Description: "Visit 10 different venues",
			Category: domain.CategoryExplorer, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueVenues, Count: 10},
		},
		{
			ID: "venues_25", Name: "Venue Collector", Description: "Visit 25 different venues",
			Category: domain.CategoryExplorer, Rarity: domain.RarityRare, Points: 250,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueVenues, Count: 25},
		},
		{
			ID: "venues_50", Name: "Venue Completionist", Description: "Visit 50 different venues",
			Category: domain.CategoryExplorer, Rarity: domain.RarityEpic, Points: 500,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueVenues, Count: 50},
		},
		{
			ID: "cities_5", Name: "City Hopper", Description: "See shows in 5 different cities",
			Category: domain.CategoryExplorer, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueCities, Count: 5},
		},
		{
			ID: "cities_10", Name: "Touring Fan", Description: "See shows in 10 different cities",
			Category: domain.CategoryExplorer, Rarity: domain.RarityRare, Points: 250,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueCities, Count: 10},
		},
		{
			ID: "cities_25", Name: "Map Filler", Description: "See shows in 25 different cities",
			Category: domain.CategoryExplorer, Rarity: domain.RarityEpic, Points: 600,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueCities, Count: 25},
		},

		// Traveler
		{
			ID: "states_5", Name: "State Lines", Description: "See shows in 5 different states",
			Category: domain.CategoryTraveler, Rarity: domain.RarityUncommon, Points: 150,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueStates, Count: 5},
		},
		{
			ID: "states_10", Name: "Interstate", Description: "See shows in 10 different states",
			Category: domain.CategoryTraveler, Rarity: domain.RarityRare, Points: 300,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueStates, Count: 10},
		},
		{
			ID: "states_25", Name: "Coast to Coast", Description: "See shows in 25 different states",
			Category: domain.CategoryTraveler, Rarity: domain.RarityLegendary, Points: 1000,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueStates, Count: 25},
		},
		{
			ID: "countries_2", Name: "Border Crosser", Description: "See shows in 2 different countries",
			Category: domain.CategoryTraveler, Rarity: domain.RarityRare, Points: 200,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueCountries, Count: 2},
		},
		{
			ID: "countries_5", Name: "International Fan", Description: "See shows in 5 different countries",
			Category: domain.CategoryTraveler, Rarity: domain.RarityEpic, Points: 500,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueCountries, Count: 5},
		},
		{
			ID: "countries_10", Name: "World Tour", Description: "See shows in 10 different countries",
			Category: domain.CategoryTraveler, Rarity: domain.RarityLegendary, Points: 1500,
			Criteria: domain.Criteria{Type: domain.CriteriaUniqueCountries, Count: 10},
		},
		{
			ID: "miles_100", Name: "Day Tripper", Description: "Travel 100+ miles for a show",
			Category: domain.CategoryTraveler, Rarity: domain.RarityCommon, Points: 50,
			Criteria: domain.Criteria{Type: domain.CriteriaDistanceTraveled, Miles: 100},
		},
		{
			ID: "miles_500", Name: "Pilgrimage", Description: "Travel 500+ miles for a show",
			Category: domain.CategoryTraveler, Rarity: domain.RarityRare, Points: 200,
			Criteria: domain.Criteria{Type: domain.CriteriaDistanceTraveled, Miles: 500},
		},
		{
			ID: "miles_1000", Name: "Long Haul", Description: "Travel 1000+ miles for a show",
			Category: domain.CategoryTraveler, Rarity: domain.RarityEpic, Points: 400,
			Criteria: domain.Criteria{Type: domain.CriteriaDistanceTraveled, Miles: 1000},
		},
		{
			ID: "miles_3000", Name: "Transcontinental", Description: "Travel 3000+ miles for a show",
			Category: domain.CategoryTraveler, Rarity: domain.RarityLegendary, Points: 1000,
			Criteria: domain.Criteria{Type: domain.CriteriaDistanceTraveled, Miles: 3000},
		},

		// Genres
		{
			ID: "genre_rock_10", Name: "Rocker", Description: "Attend 10 rock shows",
			Category: domain.CategoryGenre, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaGenreShows, Genre: "rock", Count: 10},
		},
		{
			ID: "genre_pop_10", Name: "Pop Devotee", Description: "Attend 10 pop shows",
			Category: domain.CategoryGenre, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaGenreShows, Genre: "pop", Count: 10},
		},
		{
			ID: "genre_metal_10", Name: "Metalhead", Description: "Attend 10 metal shows",
			Category: domain.CategoryGenre, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaGenreShows, Genre: "metal", Count: 10},
		},
		{
			ID: "genre_hiphop_10", Name: "Head Nodder", Description: "Attend 10 hip-hop shows",
			Category: domain.CategoryGenre, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaGenreShows, Genre: "hip-hop", Count: 10},
		},
		{
			ID: "genre_electronic_10", Name: "Raver", Description: "Attend 10 electronic shows",
			Category: domain.CategoryGenre, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaGenreShows, Genre: "electronic", Count: 10},
		},
		{
			ID: "genre_country_10", Name: "Boot Scooter", Description: "Attend 10 country shows",
			Category: domain.CategoryGenre, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaGenreShows, Genre: "country", Count: 10},
		},
		{
			ID: "genre_jazz_10", Name: "Night Owl", Description: "Attend 10 jazz shows",
			Category: domain.CategoryGenre, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaGenreShows, Genre: "jazz", Count: 10},
		},
		{
			ID: "genre_indie_10", Name: "Tastemaker", Description: "Attend 10 indie shows",
			Category: domain.CategoryGenre, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaGenreShows, Genre: "indie", Count: 10},
		},

		// Special
		{
			ID: "festival_first", Name: "Festival Goer", Description: "Attend a festival",
			Category: domain.CategorySpecial, Rarity: domain.RarityUncommon, Points: 100,
			Criteria: domain.Criteria{Type: domain.CriteriaFestival},
		},
	}
}
