package stats

import (
	"fmt"
	"sort"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

// MinRatingsForRanking keeps movies with too few ratings out of top-rated lists.
const MinRatingsForRanking = 3

// TopRated returns up to limit movies with at least MinRatingsForRanking ratings,
// best average first.
func TopRated(movies []domain.MovieSummary, limit int) []domain.MovieSummary {
	eligible := make([]domain.MovieSummary, 0, len(movies))
	for _, m := range movies {
		if m.TotalRatings >= MinRatingsForRanking {
			eligible = append(eligible, m)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].AverageRating > eligible[j].AverageRating
	})
	return head(eligible, limit)
}

// MostRated returns up to limit movies ordered by rating count.
func MostRated(movies []domain.MovieSummary, limit int) []domain.MovieSummary {
	sorted := clone(movies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalRatings > sorted[j].TotalRatings
	})
	return head(sorted, limit)
}

// MostRecent returns up to limit movies ordered by release year, newest first.
func MostRecent(movies []domain.MovieSummary, limit int) []domain.MovieSummary {
	sorted := clone(movies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Year > sorted[j].Year
	})
	return head(sorted, limit)
}

// DecadeCount is the number of catalog movies released in a decade such as "1990s".
type DecadeCount struct {
	Decade string
	Count  int
}

// ByDecade groups movies by release decade in ascending order.
func ByDecade(movies []domain.MovieSummary) []DecadeCount {
	counts := make(map[int]int)
	for _, m := range movies {
		counts[(m.Year/10)*10]++
	}
	decades := make([]int, 0, len(counts))
	for d := range counts {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	out := make([]DecadeCount, 0, len(decades))
	for _, d := range decades {
		out = append(out, DecadeCount{Decade: fmt.Sprintf("%ds", d), Count: counts[d]})
	}
	return out
}

// Band is a range of average ratings used by the admin distribution chart.
type Band struct {
	Label string
	Min   float64
	Max   float64
}

// Bands are checked in order; the upper bounds match one-decimal averages.
var Bands = []Band{
	{Label: "4.5-5.0", Min: 4.5, Max: 5.0},
	{Label: "4.0-4.4", Min: 4.0, Max: 4.4},
	{Label: "3.5-3.9", Min: 3.5, Max: 3.9},
	{Label: "3.0-3.4", Min: 3.0, Max: 3.4},
	{Label: "0-2.9", Min: 0, Max: 2.9},
}

// BandCount is the number of rated movies whose average falls into a band.
type BandCount struct {
	Label string
	Count int
}

// RatingBands distributes rated movies across Bands. Empty bands are dropped.
func RatingBands(movies []domain.MovieSummary) []BandCount {
	out := make([]BandCount, 0, len(Bands))
	for _, b := range Bands {
		n := 0
		for _, m := range movies {
			if m.TotalRatings == 0 {
				continue
			}
			avg := Round1(m.AverageRating)
			if avg >= b.Min && avg <= b.Max {
				n++
			}
		}
		if n > 0 {
			out = append(out, BandCount{Label: b.Label, Count: n})
		}
	}
	return out
}

func clone(movies []domain.MovieSummary) []domain.MovieSummary {
	out := make([]domain.MovieSummary, len(movies))
	copy(out, movies)
	return out
}

func head(movies []domain.MovieSummary, limit int) []domain.MovieSummary {
	if limit >= 0 && len(movies) > limit {
		return movies[:limit]
	}
	return movies
}
