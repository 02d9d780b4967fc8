package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/auth"
	"github.com/Clark-Hu/ratingz/internal/repository"
	"github.com/Clark-Hu/ratingz/internal/service"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type movieCreateRequest struct {
	Title      string  `json:"title" validate:"required,max=300"`
	Year       int     `json:"year" validate:"required,min=1888,max=2200"`
	PosterURL  *string `json:"posterUrl" validate:"omitempty,url"`
	ExternalID *string `json:"externalId" validate:"omitempty,externalid"`
}

type movieUpdateRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=1,max=300"`
	Year       *int    `json:"year" validate:"omitempty,min=1888,max=2200"`
	PosterURL  *string `json:"posterUrl" validate:"omitempty,url"`
	ExternalID *string `json:"externalId" validate:"omitempty,externalid"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	token, expiresAt, err := s.admin.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("admin login rejected", zap.String("username", req.Username))
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password")
			return
		}
		s.respondInternal(w, "admin login", err)
		return
	}
	s.respondJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.catalog.Dashboard(r.Context())
	if err != nil {
		s.respondServiceError(w, "load dashboard", err)
		return
	}
	s.respondJSON(w, http.StatusOK, dashboardResponse{
		Totals: toTotalsResponse(dash.Totals),
		Movies: toSummaryResponses(dash.Movies),
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.catalog.Analytics(r.Context())
	if err != nil {
		s.respondServiceError(w, "load analytics", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toAnalyticsResponse(a))
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.PosterURL = normalizeStringPtr(req.PosterURL)
	req.ExternalID = normalizeStringPtr(req.ExternalID)
	if err := s.validate.Struct(&req); err != nil {
		s.respondValidationError(w, err)
		return
	}

	movie, err := s.catalog.Create(r.Context(), service.MovieInput{
		Title:      req.Title,
		Year:       req.Year,
		PosterURL:  req.PosterURL,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		s.respondServiceError(w, "create movie", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/movies/%s", url.PathEscape(movie.ID)))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(movie))
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	var req movieUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	req.PosterURL = normalizeStringPtr(req.PosterURL)
	req.ExternalID = normalizeStringPtr(req.ExternalID)
	if err := s.validate.Struct(&req); err != nil {
		s.respondValidationError(w, err)
		return
	}

	movie, err := s.catalog.Update(r.Context(), chi.URLParam(r, "id"), repository.MovieUpdateParams{
		Title:      req.Title,
		Year:       req.Year,
		PosterURL:  req.PosterURL,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		s.respondServiceError(w, "update movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toMovieResponse(movie))
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondServiceError(w, "delete movie", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}
