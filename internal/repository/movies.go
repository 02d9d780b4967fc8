package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    id,
    title,
    year,
    poster_url,
    external_id,
    created_at,
    updated_at
`

// Sort orders supported by List.
const (
	SortCreated = "created"
	SortTitle   = "title"
	SortYear    = "year"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title      string
	Year       int
	PosterURL  *string
	ExternalID *string
}

// MovieUpdateParams holds optional replacements; nil fields keep their stored value.
type MovieUpdateParams struct {
	Title      *string
	Year       *int
	PosterURL  *string
	ExternalID *string
}

// MovieListFilters encapsulates search and pagination options.
type MovieListFilters struct {
	Query  *string
	Year   *int
	Sort   string
	Limit  int
	Cursor *MovieCursor
}

// MovieCursor allows stable keyset pagination for every sort order.
type MovieCursor struct {
	Sort      string    `json:"sort"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	Title     string    `json:"title,omitempty"`
	Year      int       `json:"year,omitempty"`
	ID        string    `json:"id"`
}

// MovieListResult returns the paginated payload.
type MovieListResult struct {
	Items      []domain.Movie
	NextCursor *string
}

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies (title, year, poster_url, external_id)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, params.Title, params.Year, params.PosterURL, params.ExternalID)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, mapError(err)
	}
	return movie, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Movie{}, mapError(err)
	}
	return movie, nil
}

// Update replaces the provided fields of a movie.
func (r *MoviesRepository) Update(ctx context.Context, id string, params MovieUpdateParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        UPDATE movies
        SET title = COALESCE($2, title),
            year = COALESCE($3, year),
            poster_url = COALESCE($4, poster_url),
            external_id = COALESCE($5, external_id),
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, id, params.Title, params.Year, params.PosterURL, params.ExternalID)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, mapError(err)
	}
	return movie, nil
}

// Delete removes a movie. Ratings and reactions go with it through ON DELETE CASCADE.
func (r *MoviesRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of movies in the catalog.
func (r *MoviesRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// ListAll returns the whole catalog, newest first.
func (r *MoviesRepository) ListAll(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY created_at DESC, id DESC`, movieColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectMovies(rows)
}

// List returns movies that match the provided filters.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) (MovieListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultListLimit
	} else if filters.Limit > maxListLimit {
		filters.Limit = maxListLimit
	}
	if filters.Sort == "" {
		filters.Sort = SortCreated
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		pattern := arg("%" + escapeLike(strings.TrimSpace(*filters.Query)) + "%")
		where = append(where, fmt.Sprintf(
			`(title ILIKE %[1]s ESCAPE '\' OR external_id ILIKE %[1]s ESCAPE '\' OR year::text LIKE %[1]s ESCAPE '\')`,
			pattern))
	}
	if filters.Year != nil {
		where = append(where, fmt.Sprintf("year = %s", arg(*filters.Year)))
	}

	var order string
	switch filters.Sort {
	case SortCreated:
		order = "created_at DESC, id DESC"
	case SortTitle:
		order = "lower(title) ASC, id ASC"
	case SortYear:
		order = "year DESC, id DESC"
	default:
		return MovieListResult{}, fmt.Errorf("unsupported sort %q", filters.Sort)
	}

	if c := filters.Cursor; c != nil {
		if c.Sort != filters.Sort {
			return MovieListResult{}, ErrInvalidCursor
		}
		switch c.Sort {
		case SortCreated:
			where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s::uuid)", arg(c.CreatedAt), arg(c.ID)))
		case SortTitle:
			where = append(where, fmt.Sprintf("(lower(title), id) > (%s, %s::uuid)", arg(strings.ToLower(c.Title)), arg(c.ID)))
		case SortYear:
			where = append(where, fmt.Sprintf("(year, id) < (%s, %s::uuid)", arg(c.Year), arg(c.ID)))
		}
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(movieColumns)
	queryBuilder.WriteString(" FROM movies")

	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(order)
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return MovieListResult{}, mapError(err)
	}
	items, err := collectMovies(rows)
	if err != nil {
		return MovieListResult{}, err
	}

	var nextCursor *string
	if len(items) == filters.Limit {
		last := items[len(items)-1]
		cursor := MovieCursor{Sort: filters.Sort, ID: last.ID}
		switch filters.Sort {
		case SortCreated:
			cursor.CreatedAt = last.CreatedAt
		case SortTitle:
			cursor.Title = last.Title
		case SortYear:
			cursor.Year = last.Year
		}
		token, err := encodeCursor(cursor)
		if err != nil {
			return MovieListResult{}, err
		}
		nextCursor = &token
	}

	return MovieListResult{Items: items, NextCursor: nextCursor}, nil
}

// MovieAggregate holds the rating and reaction counters of one movie.
type MovieAggregate struct {
	RatingSum    int64
	TotalRatings int64
	ThumbsUp     int64
	ThumbsDown   int64
}

// Aggregates returns counters for the given movies keyed by id. Movies without
// ratings or reactions are present with zero values.
func (r *MoviesRepository) Aggregates(ctx context.Context, ids []string) (map[string]MovieAggregate, error) {
	out := make(map[string]MovieAggregate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const query = `
        SELECT m.id::text,
               COALESCE(r.total, 0)::int8,
               COALESCE(r.count, 0)::int8,
               COALESCE(x.up, 0)::int8,
               COALESCE(x.down, 0)::int8
        FROM unnest($1::text[]::uuid[]) AS m(id)
        LEFT JOIN (
            SELECT movie_id, SUM(overall_rating) AS total, COUNT(*) AS count
            FROM ratings
            WHERE movie_id = ANY($1::text[]::uuid[])
            GROUP BY movie_id
        ) r ON r.movie_id = m.id
        LEFT JOIN (
            SELECT movie_id,
                   COUNT(*) FILTER (WHERE reaction_type = 'thumbs_up') AS up,
                   COUNT(*) FILTER (WHERE reaction_type = 'thumbs_down') AS down
            FROM reactions
            WHERE movie_id = ANY($1::text[]::uuid[])
            GROUP BY movie_id
        ) x ON x.movie_id = m.id
    `

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			agg MovieAggregate
		)
		if err := rows.Scan(&id, &agg.RatingSum, &agg.TotalRatings, &agg.ThumbsUp, &agg.ThumbsDown); err != nil {
			return nil, err
		}
		out[id] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate movies: %w", err)
	}
	return out, nil
}

func collectMovies(rows pgx.Rows) ([]domain.Movie, error) {
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Year,
		&movie.PosterURL,
		&movie.ExternalID,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

func encodeCursor(c MovieCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token into a MovieCursor.
func DecodeCursor(token string) (*MovieCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var cursor MovieCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if cursor.ID == "" {
		return nil, ErrInvalidCursor
	}
	return &cursor, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes q match literally inside a LIKE pattern.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}
