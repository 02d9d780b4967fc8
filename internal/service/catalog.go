package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/ratingz/internal/cache"
	"github.com/Clark-Hu/ratingz/internal/catalog"
	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/repository"
	"github.com/Clark-Hu/ratingz/internal/stats"
)

const (
	highlightSize = 3
	analyticsSize = 5
	lookupTimeout = 5 * time.Second
)

// MovieDetail is a movie with its full statistics.
type MovieDetail struct {
	Movie domain.Movie
	Stats domain.MovieStats
}

// MoviePage is one page of the public catalog listing.
type MoviePage struct {
	Items      []domain.MovieSummary
	NextCursor *string
}

// Highlights are the homepage shelves.
type Highlights struct {
	TopRated    []domain.MovieSummary
	MostPopular []domain.MovieSummary
	Recent      []domain.MovieSummary
}

// Dashboard is the admin overview.
type Dashboard struct {
	Totals domain.Totals
	Movies []domain.MovieSummary
}

// Analytics is the admin analytics page.
type Analytics struct {
	Totals    domain.Totals
	TopRated  []domain.MovieSummary
	MostRated []domain.MovieSummary
	ByDecade  []stats.DecadeCount
	Bands     []stats.BandCount
}

// MovieInput is an admin create request.
type MovieInput struct {
	Title      string
	Year       int
	PosterURL  *string
	ExternalID *string
}

// Catalog serves the movie listing, statistics and admin management.
type Catalog struct {
	movies    MovieStore
	ratings   RatingStore
	reactions ReactionStore
	cache     cache.StatsCache
	lookup    catalog.Client
	logger    *zap.Logger
}

// CatalogDeps bundles the collaborators of Catalog. Cache, Lookup and Logger are optional.
type CatalogDeps struct {
	Movies    MovieStore
	Ratings   RatingStore
	Reactions ReactionStore
	Cache     cache.StatsCache
	Lookup    catalog.Client
	Logger    *zap.Logger
}

// NewCatalog constructs the catalog service.
func NewCatalog(deps CatalogDeps) *Catalog {
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Catalog{
		movies:    deps.Movies,
		ratings:   deps.Ratings,
		reactions: deps.Reactions,
		cache:     deps.Cache,
		lookup:    deps.Lookup,
		logger:    deps.Logger.Named("catalog"),
	}
}

// Detail loads a movie and its statistics, serving the stats from cache when possible.
func (s *Catalog) Detail(ctx context.Context, movieID string) (MovieDetail, error) {
	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return MovieDetail{}, movieNotFound(err)
	}

	cached, err := s.cache.Get(ctx, movieID)
	if err != nil {
		s.logger.Warn("stats cache read failed", zap.String("movie_id", movieID), zap.Error(err))
	}
	if cached != nil {
		return MovieDetail{Movie: movie, Stats: *cached}, nil
	}

	var (
		ratings   []domain.Rating
		reactions []domain.Reaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ratings, err = s.ratings.ListByMovie(gctx, movieID)
		return err
	})
	g.Go(func() error {
		var err error
		reactions, err = s.reactions.ListByMovie(gctx, movieID)
		return err
	})
	if err := g.Wait(); err != nil {
		return MovieDetail{}, fmt.Errorf("load feedback: %w", err)
	}

	summary := stats.Summarize(ratings, reactions)
	if err := s.cache.Set(ctx, movieID, summary); err != nil {
		s.logger.Warn("stats cache write failed", zap.String("movie_id", movieID), zap.Error(err))
	}
	return MovieDetail{Movie: movie, Stats: summary}, nil
}

// List returns one page of movies with their summary counters.
func (s *Catalog) List(ctx context.Context, filters repository.MovieListFilters) (MoviePage, error) {
	res, err := s.movies.List(ctx, filters)
	if err != nil {
		return MoviePage{}, err
	}
	items, err := s.summarize(ctx, res.Items)
	if err != nil {
		return MoviePage{}, err
	}
	return MoviePage{Items: items, NextCursor: res.NextCursor}, nil
}

// Highlights computes the homepage shelves over the whole catalog.
func (s *Catalog) Highlights(ctx context.Context) (Highlights, error) {
	all, err := s.allSummaries(ctx)
	if err != nil {
		return Highlights{}, err
	}
	return Highlights{
		TopRated:    stats.TopRated(all, highlightSize),
		MostPopular: stats.MostRated(all, highlightSize),
		Recent:      stats.MostRecent(all, highlightSize),
	}, nil
}

// Dashboard loads platform totals and every movie with its counters.
func (s *Catalog) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		totals domain.Totals
		movies []domain.MovieSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.totals(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		movies, err = s.allSummaries(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Totals: totals, Movies: movies}, nil
}

// Analytics computes the admin analytics views.
func (s *Catalog) Analytics(ctx context.Context) (Analytics, error) {
	dash, err := s.Dashboard(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{
		Totals:    dash.Totals,
		TopRated:  stats.TopRated(dash.Movies, analyticsSize),
		MostRated: stats.MostRated(dash.Movies, analyticsSize),
		ByDecade:  stats.ByDecade(dash.Movies),
		Bands:     stats.RatingBands(dash.Movies),
	}, nil
}

// Create adds a movie. When an external id is given without a poster, the
// catalog lookup fills it in; lookup failures only get logged.
func (s *Catalog) Create(ctx context.Context, in MovieInput) (domain.Movie, error) {
	params := repository.MovieCreateParams{
		Title:      strings.TrimSpace(in.Title),
		Year:       in.Year,
		PosterURL:  in.PosterURL,
		ExternalID: in.ExternalID,
	}
	if params.ExternalID != nil && params.PosterURL == nil && s.lookup != nil {
		params.PosterURL = s.lookupPoster(ctx, *params.ExternalID)
	}
	movie, err := s.movies.Create(ctx, params)
	if err != nil {
		return domain.Movie{}, externalIDTaken(err)
	}
	return movie, nil
}

func (s *Catalog) lookupPoster(ctx context.Context, externalID string) *string {
	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	res, err := s.lookup.Fetch(lookupCtx, externalID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		s.logger.Info("external id unknown upstream", zap.String("external_id", externalID))
		return nil
	case err != nil:
		s.logger.Warn("catalog lookup failed", zap.String("external_id", externalID), zap.Error(err))
		return nil
	}
	return res.PosterURL
}

// Update changes the given fields of a movie.
func (s *Catalog) Update(ctx context.Context, movieID string, params repository.MovieUpdateParams) (domain.Movie, error) {
	if params.Title != nil {
		trimmed := strings.TrimSpace(*params.Title)
		params.Title = &trimmed
	}
	movie, err := s.movies.Update(ctx, movieID, params)
	if err != nil {
		return domain.Movie{}, externalIDTaken(movieNotFound(err))
	}
	return movie, nil
}

// Delete removes a movie with its ratings and reactions.
func (s *Catalog) Delete(ctx context.Context, movieID string) error {
	if err := s.movies.Delete(ctx, movieID); err != nil {
		return movieNotFound(err)
	}
	if err := s.cache.Invalidate(ctx, movieID); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("movie_id", movieID), zap.Error(err))
	}
	s.logger.Info("movie deleted", zap.String("movie_id", movieID))
	return nil
}

func (s *Catalog) totals(ctx context.Context) (domain.Totals, error) {
	var t domain.Totals
	movies, err := s.movies.Count(ctx)
	if err != nil {
		return t, err
	}
	count, sum, err := s.ratings.Totals(ctx)
	if err != nil {
		return t, err
	}
	reactions, err := s.reactions.Count(ctx)
	if err != nil {
		return t, err
	}
	t.Movies = movies
	t.Ratings = count
	t.Reactions = reactions
	t.AverageRating = stats.Round1(stats.Mean(sum, count))
	return t, nil
}

func (s *Catalog) allSummaries(ctx context.Context) ([]domain.MovieSummary, error) {
	movies, err := s.movies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, movies)
}

func (s *Catalog) summarize(ctx context.Context, movies []domain.Movie) ([]domain.MovieSummary, error) {
	ids := make([]string, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	aggs, err := s.movies.Aggregates(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("aggregate movies: %w", err)
	}
	out := make([]domain.MovieSummary, len(movies))
	for i, m := range movies {
		agg := aggs[m.ID]
		out[i] = domain.MovieSummary{
			Movie:          m,
			AverageRating:  stats.Round1(stats.Mean(agg.RatingSum, agg.TotalRatings)),
			TotalRatings:   agg.TotalRatings,
			TotalReactions: agg.ThumbsUp + agg.ThumbsDown,
			ThumbsUp:       agg.ThumbsUp,
			ThumbsDown:     agg.ThumbsDown,
		}
	}
	return out, nil
}
