package domain

import "time"

// Category names one of the optional sub-scores of a rating.
type Category string

const (
	CategoryStory       Category = "story"
	CategoryScreenplay  Category = "screenplay"
	CategoryDirection   Category = "direction"
	CategoryPerformance Category = "performance"
	CategoryMusic       Category = "music"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryStory,
	CategoryScreenplay,
	CategoryDirection,
	CategoryPerformance,
	CategoryMusic,
}

const (
	MinScore = 1
	MaxScore = 5
)

// Scores holds the overall score and the optional category scores of a rating.
type Scores struct {
	Overall     int
	Story       *int
	Screenplay  *int
	Direction   *int
	Performance *int
	Music       *int
}

// Category returns the score for c, or nil when it was not given.
func (s Scores) Category(c Category) *int {
	switch c {
	case CategoryStory:
		return s.Story
	case CategoryScreenplay:
		return s.Screenplay
	case CategoryDirection:
		return s.Direction
	case CategoryPerformance:
		return s.Performance
	case CategoryMusic:
		return s.Music
	}
	return nil
}

// Rating is one identity's star rating for one movie.
type Rating struct {
	ID        string
	MovieID   string
	Identity  Identity
	Scores    Scores
	EditCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatedMovie is a rating joined with the movie it belongs to.
type RatedMovie struct {
	Rating Rating
	Movie  Movie
}
