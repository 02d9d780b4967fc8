package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/ratingz/internal/cache"
	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/metrics"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

type feedbackEnv struct {
	store    *memStore
	cache    *cache.Memory
	metrics  *metrics.Metrics
	feedback *Feedback
	movie    domain.Movie
}

func newFeedbackEnv(t *testing.T, policy domain.Policy) *feedbackEnv {
	t.Helper()
	st := newMemStore()
	c := cache.NewMemory(0)
	m := metrics.New()
	movie, err := movieRepo{st}.Create(context.Background(), movieParams("Arrival", 2016))
	require.NoError(t, err)
	fb := NewFeedback(FeedbackDeps{
		Movies:    movieRepo{st},
		Ratings:   ratingRepo{st},
		Reactions: reactionRepo{st},
		Cache:     c,
		Metrics:   m,
	}, policy)
	return &feedbackEnv{store: st, cache: c, metrics: m, feedback: fb, movie: movie}
}

func device(id string) domain.Identity {
	return domain.Identity{Key: "device:" + id, DeviceID: strp(id), IP: domain.UnknownIP}
}

func TestValidateScores(t *testing.T) {
	tests := []struct {
		name   string
		scores domain.Scores
		ok     bool
	}{
		{name: "overall only", scores: domain.Scores{Overall: 1}, ok: true},
		{name: "all categories", scores: domain.Scores{Overall: 5, Story: intp(1), Screenplay: intp(2), Direction: intp(3), Performance: intp(4), Music: intp(5)}, ok: true},
		{name: "missing overall", scores: domain.Scores{Story: intp(3)}},
		{name: "overall too high", scores: domain.Scores{Overall: 6}},
		{name: "category zero", scores: domain.Scores{Overall: 3, Music: intp(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScores(tt.scores)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidScore)
			}
		})
	}
}

func TestSubmitRating_Locked(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicyLocked)
	ctx := context.Background()

	res, err := env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: 4})
	require.NoError(t, err)
	assert.True(t, res.Created)

	_, err = env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: 2})
	assert.ErrorIs(t, err, ErrAlreadyRated)

	stored, err := ratingRepo{env.store}.GetByIdentity(ctx, env.movie.ID, "device:d1")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Scores.Overall)

	series, err := testutil.GatherAndCount(env.metrics.Registry(), "ratingz_feedback_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "created and rejected outcomes")
}

func TestSubmitRating_SingleEdit(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicySingleEdit)
	ctx := context.Background()

	_, err := env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: 4})
	require.NoError(t, err)

	res, err := env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: 2})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 2, res.Rating.Scores.Overall)
	assert.Equal(t, 1, res.Rating.EditCount)

	_, err = env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: 5})
	assert.ErrorIs(t, err, ErrEditLimitReached)
}

func TestSubmitRating_SingleEditNetworkDuplicate(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicySingleEdit)
	ctx := context.Background()

	first := device("d1")
	first.IP, first.Fingerprint = "10.0.0.1", strp("fp")
	second := device("d2")
	second.IP, second.Fingerprint = "10.0.0.1", strp("fp")

	_, err := env.feedback.SubmitRating(ctx, env.movie.ID, first, domain.Scores{Overall: 4})
	require.NoError(t, err)
	_, err = env.feedback.SubmitRating(ctx, env.movie.ID, second, domain.Scores{Overall: 4})
	assert.ErrorIs(t, err, ErrAlreadyRated)
}

func TestSubmitRating_Upsert(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicyUpsert)
	ctx := context.Background()

	for i, overall := range []int{1, 3, 5} {
		res, err := env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: overall})
		require.NoError(t, err)
		assert.Equal(t, i == 0, res.Created)
		assert.Equal(t, overall, res.Rating.Scores.Overall)
	}
	all, _ := ratingRepo{env.store}.ListByMovie(ctx, env.movie.ID)
	assert.Len(t, all, 1)
}

func TestSubmitRating_Errors(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicyLocked)
	ctx := context.Background()

	_, err := env.feedback.SubmitRating(ctx, "missing", device("d1"), domain.Scores{Overall: 4})
	assert.ErrorIs(t, err, ErrMovieNotFound)

	_, err = env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: 0})
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestSubmitRating_InvalidatesCachedStats(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicyLocked)
	ctx := context.Background()

	require.NoError(t, env.cache.Set(ctx, env.movie.ID, domain.MovieStats{TotalRatings: 99}))
	_, err := env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: 4})
	require.NoError(t, err)

	cached, err := env.cache.Get(ctx, env.movie.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestSubmitReaction_Locked(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicyLocked)
	ctx := context.Background()

	res, err := env.feedback.SubmitReaction(ctx, env.movie.ID, device("d1"), domain.ThumbsUp)
	require.NoError(t, err)
	require.NotNil(t, res.Reaction)
	assert.Equal(t, metrics.OutcomeCreated, res.Outcome)

	_, err = env.feedback.SubmitReaction(ctx, env.movie.ID, device("d1"), domain.ThumbsDown)
	assert.ErrorIs(t, err, ErrAlreadyReacted)

	_, err = env.feedback.SubmitReaction(ctx, env.movie.ID, device("d1"), domain.ReactionKind("meh"))
	assert.ErrorIs(t, err, ErrInvalidReaction)
}

func TestSubmitReaction_Toggle(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicyUpsert)
	ctx := context.Background()
	id := device("d1")

	steps := []struct {
		kind    domain.ReactionKind
		outcome string
	}{
		{kind: domain.ThumbsUp, outcome: metrics.OutcomeCreated},
		{kind: domain.ThumbsDown, outcome: metrics.OutcomeUpdated},
		{kind: domain.ThumbsDown, outcome: metrics.OutcomeRemoved},
		{kind: domain.ThumbsUp, outcome: metrics.OutcomeCreated},
	}
	for i, step := range steps {
		res, err := env.feedback.SubmitReaction(ctx, env.movie.ID, id, step.kind)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.outcome, res.Outcome, "step %d", i)
		if step.outcome == metrics.OutcomeRemoved {
			assert.Nil(t, res.Reaction)
		} else {
			require.NotNil(t, res.Reaction)
			assert.Equal(t, step.kind, res.Reaction.Kind)
		}
	}
}

func TestMine(t *testing.T) {
	env := newFeedbackEnv(t, domain.PolicyLocked)
	ctx := context.Background()

	rating, reaction, err := env.feedback.Mine(ctx, env.movie.ID, device("d1"))
	require.NoError(t, err)
	assert.Nil(t, rating)
	assert.Nil(t, reaction)

	_, err = env.feedback.SubmitRating(ctx, env.movie.ID, device("d1"), domain.Scores{Overall: 3})
	require.NoError(t, err)
	_, err = env.feedback.SubmitReaction(ctx, env.movie.ID, device("d1"), domain.ThumbsDown)
	require.NoError(t, err)

	rating, reaction, err = env.feedback.Mine(ctx, env.movie.ID, device("d1"))
	require.NoError(t, err)
	require.NotNil(t, rating)
	require.NotNil(t, reaction)
	assert.Equal(t, 3, rating.Scores.Overall)
	assert.Equal(t, domain.ThumbsDown, reaction.Kind)

	_, _, err = env.feedback.Mine(ctx, "missing", device("d1"))
	assert.ErrorIs(t, err, ErrMovieNotFound)
}
