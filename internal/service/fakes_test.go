package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Clark-Hu/ratingz/internal/catalog"
	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/repository"
)

// memStore is an in-memory stand-in for the postgres repositories.
type memStore struct {
	mu        sync.Mutex
	seq       int
	movies    map[string]domain.Movie
	ratings   []domain.Rating
	reactions []domain.Reaction
	profiles  map[string]domain.UserProfile
}

func newMemStore() *memStore {
	return &memStore{movies: map[string]domain.Movie{}, profiles: map[string]domain.UserProfile{}}
}

func (s *memStore) nextID() string {
	s.seq++
	return fmt.Sprintf("id-%03d", s.seq)
}

func networkClash(a, b domain.Identity) bool {
	return a.UserID == nil && b.UserID == nil &&
		a.IP != domain.UnknownIP && a.IP == b.IP &&
		a.Fingerprint != nil && b.Fingerprint != nil && *a.Fingerprint == *b.Fingerprint
}

type movieRepo struct{ *memStore }

func (r movieRepo) Create(_ context.Context, p repository.MovieCreateParams) (domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.externalIDTaken(p.ExternalID, "") {
		return domain.Movie{}, repository.ErrAlreadyExists
	}
	m := domain.Movie{ID: r.nextID(), Title: p.Title, Year: p.Year, PosterURL: p.PosterURL, ExternalID: p.ExternalID, CreatedAt: time.Now()}
	r.movies[m.ID] = m
	return m, nil
}

func (r movieRepo) GetByID(_ context.Context, id string) (domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	return m, nil
}

func (r movieRepo) Update(_ context.Context, id string, p repository.MovieUpdateParams) (domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return domain.Movie{}, repository.ErrNotFound
	}
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Year != nil {
		m.Year = *p.Year
	}
	if p.PosterURL != nil {
		m.PosterURL = p.PosterURL
	}
	if p.ExternalID != nil {
		if r.externalIDTaken(p.ExternalID, id) {
			return domain.Movie{}, repository.ErrAlreadyExists
		}
		m.ExternalID = p.ExternalID
	}
	r.movies[id] = m
	return m, nil
}

// externalIDTaken mirrors the unique index on movies.external_id. Callers hold mu.
func (r movieRepo) externalIDTaken(externalID *string, except string) bool {
	if externalID == nil {
		return false
	}
	for id, m := range r.movies {
		if id != except && m.ExternalID != nil && *m.ExternalID == *externalID {
			return true
		}
	}
	return false
}

func (r movieRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.movies, id)
	ratings := r.ratings[:0]
	for _, x := range r.ratings {
		if x.MovieID != id {
			ratings = append(ratings, x)
		}
	}
	r.ratings = ratings
	reactions := r.reactions[:0]
	for _, x := range r.reactions {
		if x.MovieID != id {
			reactions = append(reactions, x)
		}
	}
	r.reactions = reactions
	return nil
}

func (r movieRepo) List(ctx context.Context, f repository.MovieListFilters) (repository.MovieListResult, error) {
	all, _ := r.ListAll(ctx)
	return repository.MovieListResult{Items: all}, nil
}

func (r movieRepo) ListAll(context.Context) ([]domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Movie, 0, len(r.movies))
	for _, m := range r.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r movieRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.movies)), nil
}

func (r movieRepo) Aggregates(_ context.Context, ids []string) (map[string]repository.MovieAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]repository.MovieAggregate, len(ids))
	for _, id := range ids {
		var agg repository.MovieAggregate
		for _, x := range r.ratings {
			if x.MovieID == id {
				agg.TotalRatings++
				agg.RatingSum += int64(x.Scores.Overall)
			}
		}
		for _, x := range r.reactions {
			if x.MovieID == id {
				if x.Kind == domain.ThumbsUp {
					agg.ThumbsUp++
				} else {
					agg.ThumbsDown++
				}
			}
		}
		out[id] = agg
	}
	return out, nil
}

type ratingRepo struct{ *memStore }

func (r ratingRepo) find(movieID, key string) int {
	for i, x := range r.ratings {
		if x.MovieID == movieID && x.Identity.Key == key {
			return i
		}
	}
	return -1
}

func (r ratingRepo) insertLocked(p repository.RatingParams) (domain.Rating, error) {
	if _, ok := r.movies[p.MovieID]; !ok {
		return domain.Rating{}, repository.ErrNotFound
	}
	for _, x := range r.ratings {
		if x.MovieID == p.MovieID && (x.Identity.Key == p.Identity.Key || networkClash(x.Identity, p.Identity)) {
			return domain.Rating{}, repository.ErrAlreadyExists
		}
	}
	rating := domain.Rating{ID: r.nextID(), MovieID: p.MovieID, Identity: p.Identity, Scores: p.Scores}
	r.ratings = append(r.ratings, rating)
	return rating, nil
}

func (r ratingRepo) Insert(_ context.Context, p repository.RatingParams) (domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(p)
}

func (r ratingRepo) UpdateLimited(_ context.Context, p repository.RatingParams, maxEdits int) (domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(p.MovieID, p.Identity.Key)
	if i < 0 || r.ratings[i].EditCount >= maxEdits {
		return domain.Rating{}, repository.ErrNotFound
	}
	r.ratings[i].Scores = p.Scores
	r.ratings[i].EditCount++
	return r.ratings[i], nil
}

func (r ratingRepo) Upsert(_ context.Context, p repository.RatingParams) (domain.Rating, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.find(p.MovieID, p.Identity.Key); i >= 0 {
		r.ratings[i].Scores = p.Scores
		r.ratings[i].EditCount++
		return r.ratings[i], false, nil
	}
	rating, err := r.insertLocked(p)
	return rating, err == nil, err
}

func (r ratingRepo) GetByIdentity(_ context.Context, movieID, key string) (domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.find(movieID, key); i >= 0 {
		return r.ratings[i], nil
	}
	return domain.Rating{}, repository.ErrNotFound
}

func (r ratingRepo) ListByMovie(_ context.Context, movieID string) ([]domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Rating
	for _, x := range r.ratings {
		if x.MovieID == movieID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (r ratingRepo) ListByRater(_ context.Context, key string) ([]domain.RatedMovie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RatedMovie
	for _, x := range r.ratings {
		if x.Identity.Key == key {
			out = append(out, domain.RatedMovie{Rating: x, Movie: r.movies[x.MovieID]})
		}
	}
	return out, nil
}

func (r ratingRepo) Totals(context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, x := range r.ratings {
		sum += int64(x.Scores.Overall)
	}
	return int64(len(r.ratings)), sum, nil
}

type reactionRepo struct{ *memStore }

func (r reactionRepo) find(movieID, key string) int {
	for i, x := range r.reactions {
		if x.MovieID == movieID && x.Identity.Key == key {
			return i
		}
	}
	return -1
}

func (r reactionRepo) insertLocked(p repository.ReactionParams) (domain.Reaction, error) {
	if _, ok := r.movies[p.MovieID]; !ok {
		return domain.Reaction{}, repository.ErrNotFound
	}
	for _, x := range r.reactions {
		if x.MovieID == p.MovieID && (x.Identity.Key == p.Identity.Key || networkClash(x.Identity, p.Identity)) {
			return domain.Reaction{}, repository.ErrAlreadyExists
		}
	}
	reaction := domain.Reaction{ID: r.nextID(), MovieID: p.MovieID, Identity: p.Identity, Kind: p.Kind}
	r.reactions = append(r.reactions, reaction)
	return reaction, nil
}

func (r reactionRepo) Insert(_ context.Context, p repository.ReactionParams) (domain.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(p)
}

func (r reactionRepo) Upsert(_ context.Context, p repository.ReactionParams) (domain.Reaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.find(p.MovieID, p.Identity.Key); i >= 0 {
		r.reactions[i].Kind = p.Kind
		return r.reactions[i], false, nil
	}
	reaction, err := r.insertLocked(p)
	return reaction, err == nil, err
}

func (r reactionRepo) Delete(_ context.Context, movieID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(movieID, key)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.reactions = append(r.reactions[:i], r.reactions[i+1:]...)
	return nil
}

func (r reactionRepo) GetByIdentity(_ context.Context, movieID, key string) (domain.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.find(movieID, key); i >= 0 {
		return r.reactions[i], nil
	}
	return domain.Reaction{}, repository.ErrNotFound
}

func (r reactionRepo) ListByMovie(_ context.Context, movieID string) ([]domain.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Reaction
	for _, x := range r.reactions {
		if x.MovieID == movieID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (r reactionRepo) ListByRater(_ context.Context, key string) ([]domain.ReactedMovie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ReactedMovie
	for _, x := range r.reactions {
		if x.Identity.Key == key {
			out = append(out, domain.ReactedMovie{Reaction: x, Movie: r.movies[x.MovieID]})
		}
	}
	return out, nil
}

func (r reactionRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.reactions)), nil
}

type profileRepo struct{ *memStore }

func (r profileRepo) Upsert(_ context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
	return p, nil
}

func (r profileRepo) Get(_ context.Context, id string) (domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.UserProfile{}, repository.ErrNotFound
	}
	return p, nil
}

// fakeLookup answers catalog lookups from a map.
type fakeLookup struct {
	results map[string]*catalog.Result
	err     error
	calls   int
}

func (f *fakeLookup) Fetch(_ context.Context, id string) (*catalog.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[id]; ok {
		return r, nil
	}
	return nil, catalog.ErrNotFound
}
