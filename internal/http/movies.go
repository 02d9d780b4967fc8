package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/ratingz/internal/domain"
	"github.com/Clark-Hu/ratingz/internal/identity"
	"github.com/Clark-Hu/ratingz/internal/metrics"
	"github.com/Clark-Hu/ratingz/internal/repository"
)

const deviceCookieMaxAge = 365 * 24 * 60 * 60

type ratingRequest struct {
	Overall     int  `json:"overall" validate:"required,min=1,max=5"`
	Story       *int `json:"story" validate:"omitempty,min=1,max=5"`
	Screenplay  *int `json:"screenplay" validate:"omitempty,min=1,max=5"`
	Direction   *int `json:"direction" validate:"omitempty,min=1,max=5"`
	Performance *int `json:"performance" validate:"omitempty,min=1,max=5"`
	Music       *int `json:"music" validate:"omitempty,min=1,max=5"`
}

type reactionRequest struct {
	Type string `json:"type" validate:"required,oneof=thumbs_up thumbs_down"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	page, err := s.catalog.List(r.Context(), filters)
	if err != nil {
		s.respondServiceError(w, "list movies", err)
		return
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{
		Items:      toSummaryResponses(page.Items),
		NextCursor: page.NextCursor,
	})
}

func buildMovieFilters(query url.Values) (repository.MovieListFilters, error) {
	var filters repository.MovieListFilters

	if q := strings.TrimSpace(query.Get("q")); q != "" {
		filters.Query = &q
	}
	if val := strings.TrimSpace(query.Get("year")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid year value")
		}
		filters.Year = &year
	}
	if val := strings.TrimSpace(query.Get("sort")); val != "" {
		switch val {
		case repository.SortCreated, repository.SortTitle, repository.SortYear:
			filters.Sort = val
		default:
			return filters, fmt.Errorf("invalid sort value")
		}
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit < 0 {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("cursor")); val != "" {
		cursor, err := repository.DecodeCursor(val)
		if err != nil {
			return filters, fmt.Errorf("invalid cursor")
		}
		filters.Cursor = cursor
	}
	return filters, nil
}

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	h, err := s.catalog.Highlights(r.Context())
	if err != nil {
		s.respondServiceError(w, "load highlights", err)
		return
	}
	s.respondJSON(w, http.StatusOK, highlightsResponse{
		TopRated:    toSummaryResponses(h.TopRated),
		MostPopular: toSummaryResponses(h.MostPopular),
		Recent:      toSummaryResponses(h.Recent),
	})
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	detail, err := s.catalog.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "load movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, movieDetailResponse{
		Movie: toMovieResponse(detail.Movie),
		Stats: toStatsResponse(detail.Stats),
	})
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	id, err := s.callerIdentity(r)
	if err != nil {
		s.respondServiceError(w, "resolve identity", err)
		return
	}
	rating, reaction, err := s.feedback.Mine(r.Context(), chi.URLParam(r, "id"), id)
	if err != nil {
		s.respondServiceError(w, "load own feedback", err)
		return
	}

	resp := mineResponse{Policy: string(s.feedback.Policy())}
	if rating != nil {
		rr := toRatingResponse(*rating)
		resp.Rating = &rr
	}
	if reaction != nil {
		rr := toReactionResponse(*reaction)
		resp.Reaction = &rr
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	id, err := s.callerIdentity(r)
	if err != nil {
		s.respondServiceError(w, "resolve identity", err)
		return
	}

	var req ratingRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := s.feedback.SubmitRating(r.Context(), chi.URLParam(r, "id"), id, domain.Scores{
		Overall:     req.Overall,
		Story:       req.Story,
		Screenplay:  req.Screenplay,
		Direction:   req.Direction,
		Performance: req.Performance,
		Music:       req.Music,
	})
	if err != nil {
		s.respondServiceError(w, "submit rating", err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, toRatingResponse(res.Rating))
}

func (s *Server) handleSubmitReaction(w http.ResponseWriter, r *http.Request) {
	id, err := s.callerIdentity(r)
	if err != nil {
		s.respondServiceError(w, "resolve identity", err)
		return
	}

	var req reactionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := s.feedback.SubmitReaction(r.Context(), chi.URLParam(r, "id"), id, domain.ReactionKind(req.Type))
	if err != nil {
		s.respondServiceError(w, "submit reaction", err)
		return
	}

	resp := reactionResultResponse{Outcome: res.Outcome}
	if res.Reaction != nil {
		rr := toReactionResponse(*res.Reaction)
		resp.Reaction = &rr
	}
	status := http.StatusOK
	if res.Outcome == metrics.OutcomeCreated {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, resp)
}

// handleIssueDevice hands out an anonymous device id, reusing a valid one the
// client already presents.
func (s *Server) handleIssueDevice(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	device, err := identity.DeviceID(r)
	if err != nil {
		device = identity.NewDeviceID()
		status = http.StatusCreated
	}
	http.SetCookie(w, &http.Cookie{
		Name:     identity.DeviceCookie,
		Value:    device,
		Path:     "/",
		MaxAge:   deviceCookieMaxAge,
		HttpOnly: true,
		Secure:   s.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	s.respondJSON(w, status, deviceResponse{DeviceID: device})
}

func (s *Server) callerIdentity(r *http.Request) (domain.Identity, error) {
	userID := ""
	if claims := userFromContext(r.Context()); claims != nil {
		userID = claims.Subject
	}
	return identity.FromRequest(r, userID)
}
