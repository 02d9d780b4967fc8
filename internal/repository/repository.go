package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/ratingz/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrAlreadyExists reports a unique constraint violation.
	ErrAlreadyExists = errors.New("repository: already exists")
	// ErrInvalidCursor reports a pagination token that cannot be used with the requested sort.
	ErrInvalidCursor = errors.New("repository: invalid cursor")
)

// postgres error codes mapped onto repository sentinels
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRepr     = "22P02"
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies    *MoviesRepository
	Ratings   *RatingsRepository
	Reactions *ReactionsRepository
	Profiles  *ProfilesRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies:    &MoviesRepository{pool: pool},
		Ratings:   &RatingsRepository{pool: pool},
		Reactions: &ReactionsRepository{pool: pool},
		Profiles:  &ProfilesRepository{pool: pool},
	}
}

// mapError translates driver errors into repository sentinels. A malformed id
// or a missing parent row is reported as not found.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return ErrAlreadyExists
		case codeForeignKeyViolation, codeInvalidTextRepr:
			return ErrNotFound
		}
	}
	return err
}
