package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/auth"
	"github.com/Clark-Hu/ratingz/internal/identity"
)

type ctxKey int

const userClaimsKey ctxKey = iota

func withUser(ctx context.Context, claims *auth.UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// userFromContext returns the verified user claims, or nil for anonymous callers.
func userFromContext(ctx context.Context) *auth.UserClaims {
	claims, _ := ctx.Value(userClaimsKey).(*auth.UserClaims)
	return claims
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("access")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_ip", identity.ClientIP(r)),
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("request", fields...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}

// newRateLimit builds a per-client-IP limiter from a formatted rate such as "30-M".
// An empty rate disables limiting.
func newRateLimit(formatted string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if strings.TrimSpace(formatted) == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), rate)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(identity.ClientIP),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			_ = writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Code:    "RATE_LIMITED",
				Message: "Too many requests, slow down",
			})
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate limiter failed", zap.Error(err))
			_ = writeJSON(w, http.StatusInternalServerError, errorResponse{
				Code:    "INTERNAL_ERROR",
				Message: "Internal server error",
			})
		}),
	)
	return mw.Handler, nil
}

// userSession attaches verified user claims to the request. Requests without a
// bearer token stay anonymous; an invalid token is rejected.
func (s *Server) userSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok || s.users == nil {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := s.users.Verify(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired session token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims)))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) == nil {
			_ = writeJSON(w, http.StatusUnauthorized, errorResponse{
				Code:    "UNAUTHORIZED",
				Message: "Sign in required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		if _, err := s.admin.Verify(token); err != nil {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
