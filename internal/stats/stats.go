// Package stats computes the derived aggregates shown on movie pages and dashboards.
// Everything is recomputed from the stored rows on each call.
package stats

import (
	"math"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

// Summarize folds the ratings and reactions of a single movie into MovieStats.
func Summarize(ratings []domain.Rating, reactions []domain.Reaction) domain.MovieStats {
	var st domain.MovieStats

	var overallSum int64
	sums := make(map[domain.Category]int64, len(domain.Categories))
	counts := make(map[domain.Category]int64, len(domain.Categories))

	for _, r := range ratings {
		st.TotalRatings++
		overallSum += int64(r.Scores.Overall)
		if r.Scores.Overall >= domain.MinScore && r.Scores.Overall <= domain.MaxScore {
			st.Distribution[r.Scores.Overall-1]++
		}
		for _, c := range domain.Categories {
			if v := r.Scores.Category(c); v != nil {
				sums[c] += int64(*v)
				counts[c]++
			}
		}
	}

	st.AverageOverall = Round1(Mean(overallSum, st.TotalRatings))
	st.Categories = make([]domain.CategoryAverage, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		st.Categories = append(st.Categories, domain.CategoryAverage{
			Category: c,
			Average:  Round1(Mean(sums[c], counts[c])),
			Count:    counts[c],
		})
	}

	for _, r := range reactions {
		switch r.Kind {
		case domain.ThumbsUp:
			st.ThumbsUp++
		case domain.ThumbsDown:
			st.ThumbsDown++
		}
	}
	return st
}

// Mean returns sum/count, or 0 for an empty set.
func Mean(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
