// Package service holds the rating, catalog and profile use cases on top of the repositories.
package service

import (
	"context"
	"errors"

	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/repository"
)

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrAlreadyRated     = errors.New("movie already rated by this identity")
	ErrAlreadyReacted   = errors.New("movie already reacted to by this identity")
	ErrEditLimitReached = errors.New("rating edit limit reached")
	ErrInvalidScore     = errors.New("scores must be integers between 1 and 5")
	ErrInvalidReaction  = errors.New("unknown reaction type")
	ErrExternalIDTaken  = errors.New("external id already used by another movie")
)

// MovieStore is the movie persistence used by the services.
type MovieStore interface {
	Create(ctx context.Context, params repository.MovieCreateParams) (domain.Movie, error)
	GetByID(ctx context.Context, id string) (domain.Movie, error)
	Update(ctx context.Context, id string, params repository.MovieUpdateParams) (domain.Movie, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters repository.MovieListFilters) (repository.MovieListResult, error)
	ListAll(ctx context.Context) ([]domain.Movie, error)
	Count(ctx context.Context) (int64, error)
	Aggregates(ctx context.Context, ids []string) (map[string]repository.MovieAggregate, error)
}

// RatingStore is the rating persistence used by the services.
type RatingStore interface {
	Insert(ctx context.Context, params repository.RatingParams) (domain.Rating, error)
	UpdateLimited(ctx context.Context, params repository.RatingParams, maxEdits int) (domain.Rating, error)
	Upsert(ctx context.Context, params repository.RatingParams) (domain.Rating, bool, error)
	GetByIdentity(ctx context.Context, movieID, raterKey string) (domain.Rating, error)
	ListByMovie(ctx context.Context, movieID string) ([]domain.Rating, error)
	ListByRater(ctx context.Context, raterKey string) ([]domain.RatedMovie, error)
	Totals(ctx context.Context) (count int64, sum int64, err error)
}

// ReactionStore is the reaction persistence used by the services.
type ReactionStore interface {
	Insert(ctx context.Context, params repository.ReactionParams) (domain.Reaction, error)
	Upsert(ctx context.Context, params repository.ReactionParams) (domain.Reaction, bool, error)
	Delete(ctx context.Context, movieID, raterKey string) error
	GetByIdentity(ctx context.Context, movieID, raterKey string) (domain.Reaction, error)
	ListByMovie(ctx context.Context, movieID string) ([]domain.Reaction, error)
	ListByRater(ctx context.Context, raterKey string) ([]domain.ReactedMovie, error)
	Count(ctx context.Context) (int64, error)
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	Upsert(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error)
	Get(ctx context.Context, id string) (domain.UserProfile, error)
}

// ValidateScores checks the overall score and every given category score.
func ValidateScores(s domain.Scores) error {
	if !validScore(s.Overall) {
		return ErrInvalidScore
	}
	for _, c := range domain.Categories {
		if v := s.Category(c); v != nil && !validScore(*v) {
			return ErrInvalidScore
		}
	}
	return nil
}

func validScore(v int) bool {
	return v >= domain.MinScore && v <= domain.MaxScore
}

func movieNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMovieNotFound
	}
	return err
}

func externalIDTaken(err error) error {
	if errors.Is(err, repository.ErrAlreadyExists) {
		return ErrExternalIDTaken
	}
	return err
}
