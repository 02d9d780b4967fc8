package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

// RatingsRepository provides helpers for movie ratings.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

const ratingColumns = `
    id,
    movie_id,
    rater_key,
    user_id,
    device_id,
    ip_address,
    network_fingerprint,
    overall_rating,
    story_rating,
    screenplay_rating,
    direction_rating,
    performance_rating,
    music_rating,
    edit_count,
    created_at,
    updated_at
`

// RatingParams captures the payload of a rating submission.
type RatingParams struct {
	MovieID  string
	Identity domain.Identity
	Scores   domain.Scores
}

func (p RatingParams) args() []interface{} {
	return []interface{}{
		p.MovieID,
		p.Identity.Key,
		p.Identity.UserID,
		p.Identity.DeviceID,
		identityIP(p.Identity),
		p.Identity.Fingerprint,
		p.Scores.Overall,
		p.Scores.Story,
		p.Scores.Screenplay,
		p.Scores.Direction,
		p.Scores.Performance,
		p.Scores.Music,
	}
}

// Insert stores a first rating. A second rating for the same identity returns ErrAlreadyExists.
func (r *RatingsRepository) Insert(ctx context.Context, params RatingParams) (domain.Rating, error) {
	query := fmt.Sprintf(`
        INSERT INTO ratings (movie_id, rater_key, user_id, device_id, ip_address, network_fingerprint,
                             overall_rating, story_rating, screenplay_rating, direction_rating,
                             performance_rating, music_rating)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING %s
    `, ratingColumns)

	rating, err := scanRating(r.pool.QueryRow(ctx, query, params.args()...))
	if err != nil {
		return domain.Rating{}, mapError(err)
	}
	return rating, nil
}

// UpdateLimited overwrites the scores of an existing rating while its edit counter
// is below maxEdits. ErrNotFound means no row qualified.
func (r *RatingsRepository) UpdateLimited(ctx context.Context, params RatingParams, maxEdits int) (domain.Rating, error) {
	query := fmt.Sprintf(`
        UPDATE ratings
        SET overall_rating = $3,
            story_rating = $4,
            screenplay_rating = $5,
            direction_rating = $6,
            performance_rating = $7,
            music_rating = $8,
            edit_count = edit_count + 1,
            updated_at = now()
        WHERE movie_id = $1 AND rater_key = $2 AND edit_count < $9
        RETURNING %s
    `, ratingColumns)

	s := params.Scores
	row := r.pool.QueryRow(ctx, query, params.MovieID, params.Identity.Key,
		s.Overall, s.Story, s.Screenplay, s.Direction, s.Performance, s.Music, maxEdits)
	rating, err := scanRating(row)
	if err != nil {
		return domain.Rating{}, mapError(err)
	}
	return rating, nil
}

// Upsert inserts or updates a rating and indicates whether it was newly created.
func (r *RatingsRepository) Upsert(ctx context.Context, params RatingParams) (domain.Rating, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO ratings (movie_id, rater_key, user_id, device_id, ip_address, network_fingerprint,
                             overall_rating, story_rating, screenplay_rating, direction_rating,
                             performance_rating, music_rating)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (movie_id, rater_key)
        DO UPDATE SET overall_rating = EXCLUDED.overall_rating,
                      story_rating = EXCLUDED.story_rating,
                      screenplay_rating = EXCLUDED.screenplay_rating,
                      direction_rating = EXCLUDED.direction_rating,
                      performance_rating = EXCLUDED.performance_rating,
                      music_rating = EXCLUDED.music_rating,
                      ip_address = EXCLUDED.ip_address,
                      network_fingerprint = EXCLUDED.network_fingerprint,
                      edit_count = ratings.edit_count + 1,
                      updated_at = now()
        RETURNING %s, (xmax = 0) AS inserted
    `, ratingColumns)

	var inserted bool
	rating, err := scanRating(r.pool.QueryRow(ctx, query, params.args()...), &inserted)
	if err != nil {
		return domain.Rating{}, false, mapError(err)
	}
	return rating, inserted, nil
}

// GetByIdentity retrieves the rating an identity gave a movie.
func (r *RatingsRepository) GetByIdentity(ctx context.Context, movieID, raterKey string) (domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE movie_id = $1 AND rater_key = $2`, ratingColumns)
	rating, err := scanRating(r.pool.QueryRow(ctx, query, movieID, raterKey))
	if err != nil {
		return domain.Rating{}, mapError(err)
	}
	return rating, nil
}

// ListByMovie returns every rating of a movie, oldest first.
func (r *RatingsRepository) ListByMovie(ctx context.Context, movieID string) ([]domain.Rating, error) {
	query := fmt.Sprintf(`SELECT %s FROM ratings WHERE movie_id = $1 ORDER BY created_at, id`, ratingColumns)
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]domain.Rating, 0)
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// ListByRater returns the ratings of one identity joined with their movies, newest first.
func (r *RatingsRepository) ListByRater(ctx context.Context, raterKey string) ([]domain.RatedMovie, error) {
	query := `
        SELECT r.id, r.movie_id, r.rater_key, r.user_id, r.device_id, r.ip_address, r.network_fingerprint,
               r.overall_rating, r.story_rating, r.screenplay_rating, r.direction_rating,
               r.performance_rating, r.music_rating, r.edit_count, r.created_at, r.updated_at,
               m.id, m.title, m.year, m.poster_url, m.external_id, m.created_at, m.updated_at
        FROM ratings r
        JOIN movies m ON m.id = r.movie_id
        WHERE r.rater_key = $1
        ORDER BY r.created_at DESC, r.id DESC
    `
	rows, err := r.pool.Query(ctx, query, raterKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RatedMovie, 0)
	for rows.Next() {
		var item domain.RatedMovie
		m := &item.Movie
		rating, err := scanRating(rows,
			&m.ID, &m.Title, &m.Year, &m.PosterURL, &m.ExternalID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		item.Rating = rating
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Totals returns the number of ratings and the platform-wide overall average.
func (r *RatingsRepository) Totals(ctx context.Context) (count int64, sum int64, err error) {
	const query = `SELECT COUNT(*)::int8, COALESCE(SUM(overall_rating), 0)::int8 FROM ratings`
	if err := r.pool.QueryRow(ctx, query).Scan(&count, &sum); err != nil {
		return 0, 0, fmt.Errorf("rating totals: %w", err)
	}
	return count, sum, nil
}

// scanRating reads ratingColumns followed by any extra destinations.
func scanRating(row pgx.Row, extra ...interface{}) (domain.Rating, error) {
	var (
		rating domain.Rating
		s      = &rating.Scores
		id     = &rating.Identity
	)
	dest := []interface{}{
		&rating.ID,
		&rating.MovieID,
		&id.Key,
		&id.UserID,
		&id.DeviceID,
		&id.IP,
		&id.Fingerprint,
		&s.Overall,
		&s.Story,
		&s.Screenplay,
		&s.Direction,
		&s.Performance,
		&s.Music,
		&rating.EditCount,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}

func identityIP(id domain.Identity) string {
	if id.IP == "" {
		return domain.UnknownIP
	}
	return id.IP
}
