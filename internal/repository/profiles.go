package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

// ProfilesRepository mirrors OAuth user metadata.
type ProfilesRepository struct {
	pool *pgxpool.Pool
}

// Upsert creates the profile or refreshes its metadata.
func (r *ProfilesRepository) Upsert(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	const query = `
        INSERT INTO user_profiles (id, email, full_name, avatar_url)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (id)
        DO UPDATE SET email = EXCLUDED.email,
                      full_name = EXCLUDED.full_name,
                      avatar_url = EXCLUDED.avatar_url,
                      updated_at = now()
        RETURNING id, email, full_name, avatar_url, created_at, updated_at
    `
	var out domain.UserProfile
	err := r.pool.QueryRow(ctx, query, p.ID, p.Email, p.FullName, p.AvatarURL).Scan(
		&out.ID, &out.Email, &out.FullName, &out.AvatarURL, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return domain.UserProfile{}, mapError(err)
	}
	return out, nil
}

// Get loads a profile by user id.
func (r *ProfilesRepository) Get(ctx context.Context, id string) (domain.UserProfile, error) {
	const query = `
        SELECT id, email, full_name, avatar_url, created_at, updated_at
        FROM user_profiles
        WHERE id = $1
    `
	var out domain.UserProfile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&out.ID, &out.Email, &out.FullName, &out.AvatarURL, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return domain.UserProfile{}, mapError(err)
	}
	return out, nil
}
