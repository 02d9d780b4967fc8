package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/cache"
	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/metrics"
	"github.com/Clark-Hu/ratingz/internal/repository"
)

const (
	kindRating   = "rating"
	kindReaction = "reaction"
)

// RatingResult reports the stored rating and whether it was the first one.
type RatingResult struct {
	Rating  domain.Rating
	Created bool
}

// ReactionResult reports the reaction after a submission. Reaction is nil when
// the submission toggled it off.
type ReactionResult struct {
	Reaction *domain.Reaction
	Outcome  string
}

// Feedback applies the configured submission policy to ratings and reactions.
type Feedback struct {
	movies    MovieStore
	ratings   RatingStore
	reactions ReactionStore
	cache     cache.StatsCache
	policy    domain.Policy
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// FeedbackDeps bundles the collaborators of Feedback. Cache, Metrics and Logger are optional.
type FeedbackDeps struct {
	Movies    MovieStore
	Ratings   RatingStore
	Reactions ReactionStore
	Cache     cache.StatsCache
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// NewFeedback constructs the feedback service for one policy.
func NewFeedback(deps FeedbackDeps, policy domain.Policy) *Feedback {
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Feedback{
		movies:    deps.Movies,
		ratings:   deps.Ratings,
		reactions: deps.Reactions,
		cache:     deps.Cache,
		policy:    policy,
		metrics:   deps.Metrics,
		logger:    deps.Logger.Named("feedback"),
	}
}

// Policy returns the active submission policy.
func (s *Feedback) Policy() domain.Policy {
	return s.policy
}

// SubmitRating stores a rating for movieID on behalf of id.
func (s *Feedback) SubmitRating(ctx context.Context, movieID string, id domain.Identity, scores domain.Scores) (RatingResult, error) {
	if err := ValidateScores(scores); err != nil {
		return RatingResult{}, err
	}
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return RatingResult{}, movieNotFound(err)
	}

	params := repository.RatingParams{MovieID: movieID, Identity: id, Scores: scores}
	var (
		res RatingResult
		err error
	)
	switch s.policy {
	case domain.PolicyUpsert:
		res.Rating, res.Created, err = s.ratings.Upsert(ctx, params)
		if errors.Is(err, repository.ErrAlreadyExists) {
			err = ErrAlreadyRated
		}
	case domain.PolicySingleEdit:
		res, err = s.insertOrEditOnce(ctx, params)
	default:
		res.Rating, err = s.ratings.Insert(ctx, params)
		res.Created = err == nil
		if errors.Is(err, repository.ErrAlreadyExists) {
			err = ErrAlreadyRated
		}
	}
	if err != nil {
		s.recordRejection(kindRating, err)
		return RatingResult{}, movieNotFound(err)
	}

	outcome := metrics.OutcomeUpdated
	if res.Created {
		outcome = metrics.OutcomeCreated
	}
	s.metrics.RecordFeedback(kindRating, outcome)
	s.invalidate(ctx, movieID)
	s.logger.Debug("rating stored",
		zap.String("movie_id", movieID),
		zap.String("rater", id.Key),
		zap.Bool("created", res.Created))
	return res, nil
}

func (s *Feedback) insertOrEditOnce(ctx context.Context, params repository.RatingParams) (RatingResult, error) {
	rating, err := s.ratings.Insert(ctx, params)
	if err == nil {
		return RatingResult{Rating: rating, Created: true}, nil
	}
	if !errors.Is(err, repository.ErrAlreadyExists) {
		return RatingResult{}, err
	}

	rating, err = s.ratings.UpdateLimited(ctx, params, domain.MaxRatingEdits)
	if err == nil {
		return RatingResult{Rating: rating}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return RatingResult{}, err
	}
	// No editable row under this key: either the edit was used up or the
	// conflict came from another identity on the same network.
	if _, getErr := s.ratings.GetByIdentity(ctx, params.MovieID, params.Identity.Key); getErr == nil {
		return RatingResult{}, ErrEditLimitReached
	} else if !errors.Is(getErr, repository.ErrNotFound) {
		return RatingResult{}, getErr
	}
	return RatingResult{}, ErrAlreadyRated
}

// SubmitReaction stores a thumbs up/down for movieID on behalf of id.
func (s *Feedback) SubmitReaction(ctx context.Context, movieID string, id domain.Identity, kind domain.ReactionKind) (ReactionResult, error) {
	if _, err := domain.ParseReactionKind(string(kind)); err != nil {
		return ReactionResult{}, ErrInvalidReaction
	}
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return ReactionResult{}, movieNotFound(err)
	}

	params := repository.ReactionParams{MovieID: movieID, Identity: id, Kind: kind}
	var (
		res ReactionResult
		err error
	)
	if s.policy == domain.PolicyLocked {
		var reaction domain.Reaction
		reaction, err = s.reactions.Insert(ctx, params)
		res = ReactionResult{Reaction: &reaction, Outcome: metrics.OutcomeCreated}
	} else {
		res, err = s.toggleReaction(ctx, params)
	}
	if errors.Is(err, repository.ErrAlreadyExists) {
		err = ErrAlreadyReacted
	}
	if err != nil {
		s.recordRejection(kindReaction, err)
		return ReactionResult{}, movieNotFound(err)
	}

	s.metrics.RecordFeedback(kindReaction, res.Outcome)
	s.invalidate(ctx, movieID)
	return res, nil
}

// toggleReaction removes a repeated reaction and replaces a different one.
func (s *Feedback) toggleReaction(ctx context.Context, params repository.ReactionParams) (ReactionResult, error) {
	existing, err := s.reactions.GetByIdentity(ctx, params.MovieID, params.Identity.Key)
	switch {
	case err == nil && existing.Kind == params.Kind:
		if err := s.reactions.Delete(ctx, params.MovieID, params.Identity.Key); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return ReactionResult{}, err
		}
		return ReactionResult{Outcome: metrics.OutcomeRemoved}, nil
	case err == nil || errors.Is(err, repository.ErrNotFound):
		reaction, inserted, err := s.reactions.Upsert(ctx, params)
		if err != nil {
			return ReactionResult{}, err
		}
		outcome := metrics.OutcomeUpdated
		if inserted {
			outcome = metrics.OutcomeCreated
		}
		return ReactionResult{Reaction: &reaction, Outcome: outcome}, nil
	default:
		return ReactionResult{}, err
	}
}

// Mine returns the caller's rating and reaction for a movie; either may be nil.
func (s *Feedback) Mine(ctx context.Context, movieID string, id domain.Identity) (*domain.Rating, *domain.Reaction, error) {
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return nil, nil, movieNotFound(err)
	}

	var (
		rating   *domain.Rating
		reaction *domain.Reaction
	)
	r, err := s.ratings.GetByIdentity(ctx, movieID, id.Key)
	switch {
	case err == nil:
		rating = &r
	case !errors.Is(err, repository.ErrNotFound):
		return nil, nil, fmt.Errorf("load rating: %w", err)
	}
	x, err := s.reactions.GetByIdentity(ctx, movieID, id.Key)
	switch {
	case err == nil:
		reaction = &x
	case !errors.Is(err, repository.ErrNotFound):
		return nil, nil, fmt.Errorf("load reaction: %w", err)
	}
	return rating, reaction, nil
}

func (s *Feedback) recordRejection(kind string, err error) {
	if errors.Is(err, ErrAlreadyRated) || errors.Is(err, ErrAlreadyReacted) || errors.Is(err, ErrEditLimitReached) {
		s.metrics.RecordFeedback(kind, metrics.OutcomeRejected)
	}
}

func (s *Feedback) invalidate(ctx context.Context, movieID string) {
	if err := s.cache.Invalidate(ctx, movieID); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("movie_id", movieID), zap.Error(err))
	}
}
