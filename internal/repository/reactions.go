package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

// ReactionsRepository stores thumbs up/down reactions.
type ReactionsRepository struct {
	pool *pgxpool.Pool
}

const reactionColumns = `
    id,
    movie_id,
    rater_key,
    user_id,
    device_id,
    ip_address,
    network_fingerprint,
    reaction_type,
    created_at,
    updated_at
`

// ReactionParams captures the payload of a reaction submission.
type ReactionParams struct {
	MovieID  string
	Identity domain.Identity
	Kind     domain.ReactionKind
}

func (p ReactionParams) args() []interface{} {
	return []interface{}{
		p.MovieID,
		p.Identity.Key,
		p.Identity.UserID,
		p.Identity.DeviceID,
		identityIP(p.Identity),
		p.Identity.Fingerprint,
		string(p.Kind),
	}
}

// Insert stores a first reaction. A duplicate returns ErrAlreadyExists.
func (r *ReactionsRepository) Insert(ctx context.Context, params ReactionParams) (domain.Reaction, error) {
	query := fmt.Sprintf(`
        INSERT INTO reactions (movie_id, rater_key, user_id, device_id, ip_address, network_fingerprint, reaction_type)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, reactionColumns)

	reaction, err := scanReaction(r.pool.QueryRow(ctx, query, params.args()...))
	if err != nil {
		return domain.Reaction{}, mapError(err)
	}
	return reaction, nil
}

// Upsert inserts or replaces the reaction of an identity.
func (r *ReactionsRepository) Upsert(ctx context.Context, params ReactionParams) (domain.Reaction, bool, error) {
	query := fmt.Sprintf(`
        INSERT INTO reactions (movie_id, rater_key, user_id, device_id, ip_address, network_fingerprint, reaction_type)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (movie_id, rater_key)
        DO UPDATE SET reaction_type = EXCLUDED.reaction_type,
                      ip_address = EXCLUDED.ip_address,
                      network_fingerprint = EXCLUDED.network_fingerprint,
                      updated_at = now()
        RETURNING %s, (xmax = 0) AS inserted
    `, reactionColumns)

	var inserted bool
	reaction, err := scanReaction(r.pool.QueryRow(ctx, query, params.args()...), &inserted)
	if err != nil {
		return domain.Reaction{}, false, mapError(err)
	}
	return reaction, inserted, nil
}

// Delete removes the reaction of an identity.
func (r *ReactionsRepository) Delete(ctx context.Context, movieID, raterKey string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reactions WHERE movie_id = $1 AND rater_key = $2`, movieID, raterKey)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByIdentity retrieves the reaction an identity gave a movie.
func (r *ReactionsRepository) GetByIdentity(ctx context.Context, movieID, raterKey string) (domain.Reaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM reactions WHERE movie_id = $1 AND rater_key = $2`, reactionColumns)
	reaction, err := scanReaction(r.pool.QueryRow(ctx, query, movieID, raterKey))
	if err != nil {
		return domain.Reaction{}, mapError(err)
	}
	return reaction, nil
}

// ListByMovie returns every reaction of a movie.
func (r *ReactionsRepository) ListByMovie(ctx context.Context, movieID string) ([]domain.Reaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM reactions WHERE movie_id = $1 ORDER BY created_at, id`, reactionColumns)
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]domain.Reaction, 0)
	for rows.Next() {
		reaction, err := scanReaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// ListByRater returns the reactions of one identity joined with their movies, newest first.
func (r *ReactionsRepository) ListByRater(ctx context.Context, raterKey string) ([]domain.ReactedMovie, error) {
	query := `
        SELECT x.id, x.movie_id, x.rater_key, x.user_id, x.device_id, x.ip_address, x.network_fingerprint,
               x.reaction_type, x.created_at, x.updated_at,
               m.id, m.title, m.year, m.poster_url, m.external_id, m.created_at, m.updated_at
        FROM reactions x
        JOIN movies m ON m.id = x.movie_id
        WHERE x.rater_key = $1
        ORDER BY x.created_at DESC, x.id DESC
    `
	rows, err := r.pool.Query(ctx, query, raterKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ReactedMovie, 0)
	for rows.Next() {
		var item domain.ReactedMovie
		m := &item.Movie
		reaction, err := scanReaction(rows,
			&m.ID, &m.Title, &m.Year, &m.PosterURL, &m.ExternalID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		item.Reaction = reaction
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored reactions.
func (r *ReactionsRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reactions: %w", err)
	}
	return n, nil
}

func scanReaction(row pgx.Row, extra ...interface{}) (domain.Reaction, error) {
	var (
		reaction domain.Reaction
		kind     string
		id       = &reaction.Identity
	)
	dest := []interface{}{
		&reaction.ID,
		&reaction.MovieID,
		&id.Key,
		&id.UserID,
		&id.DeviceID,
		&id.IP,
		&id.Fingerprint,
		&kind,
		&reaction.CreatedAt,
		&reaction.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Reaction{}, err
	}
	reaction.Kind = domain.ReactionKind(kind)
	return reaction, nil
}
