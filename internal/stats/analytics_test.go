package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

func summary(title string, year int, avg float64, count int64) domain.MovieSummary {
	return domain.MovieSummary{
		Movie:         domain.Movie{ID: title, Title: title, Year: year},
		AverageRating: avg,
		TotalRatings:  count,
	}
}

func titles(movies []domain.MovieSummary) []string {
	out := make([]string, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.Title)
	}
	return out
}

func catalog() []domain.MovieSummary {
	return []domain.MovieSummary{
		summary("Alien", 1979, 4.6, 10),
		summary("Heat", 1995, 4.9, 2),
		summary("Dune", 2021, 4.1, 7),
		summary("Cats", 2019, 1.2, 4),
		summary("Up", 2009, 0, 0),
		summary("Jaws", 1975, 3.6, 3),
	}
}

func TestTopRated_RequiresMinimumRatings(t *testing.T) {
	got := titles(TopRated(catalog(), 3))
	// Heat has the best average but only two ratings.
	assert.Equal(t, []string{"Alien", "Dune", "Jaws"}, got)
}

func TestTopRated_NoEligible(t *testing.T) {
	got := TopRated([]domain.MovieSummary{summary("Heat", 1995, 4.9, 2)}, 5)
	assert.Empty(t, got)
}

func TestMostRated(t *testing.T) {
	movies := catalog()
	got := titles(MostRated(movies, 2))
	assert.Equal(t, []string{"Alien", "Dune"}, got)
	// input order is preserved
	assert.Equal(t, "Alien", movies[0].Title)
	assert.Equal(t, "Heat", movies[1].Title)
}

func TestMostRecent(t *testing.T) {
	got := titles(MostRecent(catalog(), 3))
	assert.Equal(t, []string{"Dune", "Cats", "Up"}, got)
}

func TestByDecade(t *testing.T) {
	want := []DecadeCount{
		{Decade: "1970s", Count: 2},
		{Decade: "1990s", Count: 1},
		{Decade: "2000s", Count: 1},
		{Decade: "2010s", Count: 1},
		{Decade: "2020s", Count: 1},
	}
	if diff := cmp.Diff(want, ByDecade(catalog())); diff != "" {
		t.Fatalf("ByDecade mismatch (-want +got):\n%s", diff)
	}
}

func TestRatingBands(t *testing.T) {
	want := []BandCount{
		{Label: "4.5-5.0", Count: 2},
		{Label: "4.0-4.4", Count: 1},
		{Label: "3.5-3.9", Count: 1},
		{Label: "0-2.9", Count: 1},
	}
	if diff := cmp.Diff(want, RatingBands(catalog())); diff != "" {
		t.Fatalf("RatingBands mismatch (-want +got):\n%s", diff)
	}
}
