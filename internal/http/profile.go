package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/ratingz/internal/auth"
	"github.com/Clark-Hu/ratingz/internal/domain"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := userFromContext(r.Context())
	profile, err := s.profiles.Get(r.Context(), claims.Subject)
	if err != nil {
		s.respondServiceError(w, "load profile", err)
		return
	}
	sum, err := s.profiles.Summary(r.Context(), claims.Subject)
	if err != nil {
		s.respondServiceError(w, "summarize profile", err)
		return
	}
	s.respondJSON(w, http.StatusOK, meResponse{
		Profile: toProfileResponse(profile),
		Summary: profileSummaryResponse{
			TotalRatings:   sum.TotalRatings,
			AverageRating:  sum.AverageRating,
			TotalReactions: sum.TotalReactions,
			ThumbsUp:       sum.ThumbsUp,
			ThumbsDown:     sum.ThumbsDown,
		},
	})
}

// handleSyncProfile copies the token's metadata into the stored profile.
func (s *Server) handleSyncProfile(w http.ResponseWriter, r *http.Request) {
	claims := userFromContext(r.Context())
	profile, err := s.profiles.Sync(r.Context(), profileFromClaims(claims))
	if err != nil {
		s.respondServiceError(w, "sync profile", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleMyRatings(w http.ResponseWriter, r *http.Request) {
	claims := userFromContext(r.Context())
	items, err := s.profiles.Ratings(r.Context(), claims.Subject)
	if err != nil {
		s.respondServiceError(w, "list own ratings", err)
		return
	}
	out := make([]ratedMovieResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ratedMovieResponse{
			Rating: toRatingResponse(item.Rating),
			Movie:  toMovieResponse(item.Movie),
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleMyReactions(w http.ResponseWriter, r *http.Request) {
	claims := userFromContext(r.Context())
	items, err := s.profiles.Reactions(r.Context(), claims.Subject)
	if err != nil {
		s.respondServiceError(w, "list own reactions", err)
		return
	}
	out := make([]reactedMovieResponse, 0, len(items))
	for _, item := range items {
		out = append(out, reactedMovieResponse{
			Reaction: toReactionResponse(item.Reaction),
			Movie:    toMovieResponse(item.Movie),
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func profileFromClaims(c *auth.UserClaims) domain.UserProfile {
	p := domain.UserProfile{ID: c.Subject}
	if c.Email != "" {
		p.Email = &c.Email
	}
	if name := c.DisplayName(); name != "" {
		p.FullName = &name
	}
	if c.UserMetadata.AvatarURL != "" {
		p.AvatarURL = &c.UserMetadata.AvatarURL
	}
	return p
}
