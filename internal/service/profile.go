package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/identity"
	"github.com/Clark-Hu/ratingz/internal/repository"
	"github.com/Clark-Hu/ratingz/internal/stats"
)

// ErrProfileNotFound is returned before the first profile sync.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileSummary aggregates the caller's own activity.
type ProfileSummary struct {
	TotalRatings   int64
	AverageRating  float64
	TotalReactions int64
	ThumbsUp       int64
	ThumbsDown     int64
}

// Profiles serves the signed-in user's profile pages.
type Profiles struct {
	profiles  ProfileStore
	ratings   RatingStore
	reactions ReactionStore
	logger    *zap.Logger
}

// NewProfiles constructs the profile service.
func NewProfiles(profiles ProfileStore, ratings RatingStore, reactions ReactionStore, logger *zap.Logger) *Profiles {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiles{profiles: profiles, ratings: ratings, reactions: reactions, logger: logger.Named("profiles")}
}

// Sync stores the metadata carried by the user's token.
func (s *Profiles) Sync(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	out, err := s.profiles.Upsert(ctx, p)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("sync profile: %w", err)
	}
	return out, nil
}

// Get loads a stored profile.
func (s *Profiles) Get(ctx context.Context, userID string) (domain.UserProfile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.UserProfile{}, ErrProfileNotFound
	}
	return p, err
}

// Summary computes the counters shown on the profile page.
func (s *Profiles) Summary(ctx context.Context, userID string) (ProfileSummary, error) {
	ratings, err := s.Ratings(ctx, userID)
	if err != nil {
		return ProfileSummary{}, err
	}
	reactions, err := s.Reactions(ctx, userID)
	if err != nil {
		return ProfileSummary{}, err
	}

	var sum ProfileSummary
	var overall int64
	for _, r := range ratings {
		sum.TotalRatings++
		overall += int64(r.Rating.Scores.Overall)
	}
	sum.AverageRating = stats.Round1(stats.Mean(overall, sum.TotalRatings))
	for _, r := range reactions {
		sum.TotalReactions++
		switch r.Reaction.Kind {
		case domain.ThumbsUp:
			sum.ThumbsUp++
		case domain.ThumbsDown:
			sum.ThumbsDown++
		}
	}
	return sum, nil
}

// Ratings lists the user's ratings with their movies.
func (s *Profiles) Ratings(ctx context.Context, userID string) ([]domain.RatedMovie, error) {
	return s.ratings.ListByRater(ctx, identity.UserKey(userID))
}

// Reactions lists the user's reactions with their movies.
func (s *Profiles) Reactions(ctx context.Context, userID string) ([]domain.ReactedMovie, error) {
	return s.reactions.ListByRater(ctx, identity.UserKey(userID))
}
