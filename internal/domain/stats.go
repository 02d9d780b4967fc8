package domain

// CategoryAverage is the mean of the non-empty scores of one category.
type CategoryAverage struct {
	Category Category
	Average  float64
	Count    int64
}

// MovieStats are the aggregates of a movie page, recomputed from its rows.
type MovieStats struct {
	TotalRatings   int64
	AverageOverall float64
	Categories     []CategoryAverage
	// Distribution counts overall scores; index 0 holds score 1.
	Distribution [MaxScore]int64
	ThumbsUp     int64
	ThumbsDown   int64
}

// Totals are platform-wide counters for the admin dashboard.
type Totals struct {
	Movies        int64
	Ratings       int64
	Reactions     int64
	AverageRating float64
}
