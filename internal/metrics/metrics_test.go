package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/movies/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/movies/a", "/movies/b", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/movies/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/healthz", "200")))
}

func TestRecordFeedback(t *testing.T) {
	m := New()
	m.RecordFeedback("rating", OutcomeCreated)
	m.RecordFeedback("rating", OutcomeRejected)
	m.RecordFeedback("rating", OutcomeRejected)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedback.WithLabelValues("rating", OutcomeCreated)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.feedback.WithLabelValues("rating", OutcomeRejected)))

	var nilMetrics *Metrics
	nilMetrics.RecordFeedback("rating", OutcomeCreated)
}

func TestHandler_ExposesPoolCollector(t *testing.T) {
	m := New()
	require.NoError(t, m.RegisterPool(func() *pgxpool.Stat { return nil }))

	m.RecordFeedback("reaction", OutcomeRemoved)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `ratingz_feedback_total{kind="reaction",outcome="removed"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
