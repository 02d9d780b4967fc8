package domain

import "time"

// Movie represents a catalog entry managed from the admin panel.
type Movie struct {
	ID         string
	Title      string
	Year       int
	PosterURL  *string
	ExternalID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MovieSummary pairs a movie with the aggregates shown in listings and dashboards.
type MovieSummary struct {
	Movie
	AverageRating  float64
	TotalRatings   int64
	TotalReactions int64
	ThumbsUp       int64
	ThumbsDown     int64
}
