package domain

import (
	"fmt"
	"time"
)

// ReactionKind is the two-valued thumbs signal.
type ReactionKind string

const (
	ThumbsUp   ReactionKind = "thumbs_up"
	ThumbsDown ReactionKind = "thumbs_down"
)

// ParseReactionKind validates a wire value.
func ParseReactionKind(v string) (ReactionKind, error) {
	switch ReactionKind(v) {
	case ThumbsUp, ThumbsDown:
		return ReactionKind(v), nil
	}
	return "", fmt.Errorf("unknown reaction type %q", v)
}

// Reaction is one identity's thumbs up/down for one movie.
type Reaction struct {
	ID        string
	MovieID   string
	Identity  Identity
	Kind      ReactionKind
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReactedMovie is a reaction joined with the movie it belongs to.
type ReactedMovie struct {
	Reaction Reaction
	Movie    Movie
}
