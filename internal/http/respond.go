package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/identity"
	"github.com/Clark-Hu/ratingz/internal/repository"
	"github.com/Clark-Hu/ratingz/internal/service"
)

const maxRequestBody = 1 << 20 // 1 MiB

var externalIDPattern = regexp.MustCompile(`^tt\d{7,8}$`)

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("externalid", func(fl validator.FieldLevel) bool {
		return externalIDPattern.MatchString(fl.Field().String())
	})
	return v
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// decodeAndValidate decodes the body into dst and runs its validate tags.
// It writes the error response itself and reports whether the handler may continue.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSONBody(w, r, dst); err != nil {
		s.respondDecodeError(w, err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondValidationError(w, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if err := writeJSON(w, status, payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.As(err, &maxBytesError):
		s.respondError(w, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large")
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func (s *Server) respondValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.respondInternal(w, "validate request", err)
		return
	}
	details := make([]fieldError, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, fieldError{Field: e.Field(), Message: validationMessage(e)})
	}
	s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "Request validation failed",
		Details: details,
	})
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min", "gte":
		return "Must be at least " + e.Param()
	case "max", "lte":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "url":
		return "Invalid URL format"
	case "externalid":
		return "Must look like tt1234567"
	default:
		return "Invalid value"
	}
}

// respondServiceError maps domain errors onto status codes. Anything unknown is
// logged and collapses to INTERNAL_ERROR.
func (s *Server) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrMovieNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
	case errors.Is(err, service.ErrProfileNotFound):
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Profile not found, sync it first")
	case errors.Is(err, service.ErrAlreadyRated):
		s.respondError(w, http.StatusConflict, "ALREADY_RATED", "You have already rated this movie")
	case errors.Is(err, service.ErrAlreadyReacted):
		s.respondError(w, http.StatusConflict, "ALREADY_REACTED", "You have already reacted to this movie")
	case errors.Is(err, service.ErrExternalIDTaken):
		s.respondError(w, http.StatusConflict, "ALREADY_EXISTS", "Another movie already uses this external id")
	case errors.Is(err, service.ErrEditLimitReached):
		s.respondError(w, http.StatusConflict, "EDIT_LIMIT_REACHED", "You can only edit your rating once")
	case errors.Is(err, service.ErrInvalidScore), errors.Is(err, service.ErrInvalidReaction):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, identity.ErrIdentityRequired):
		s.respondError(w, http.StatusBadRequest, "IDENTITY_REQUIRED", "A device id or sign-in is required")
	case errors.Is(err, identity.ErrInvalidDeviceID):
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid device id")
	case errors.Is(err, repository.ErrInvalidCursor):
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cursor")
	default:
		s.respondInternal(w, op, err)
	}
}

func (s *Server) respondInternal(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong, please try again")
}
