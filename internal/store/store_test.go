package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Clark-Hu/ratingz/internal/pgtest"
	"github.com/Clark-Hu/ratingz/internal/store"
)

func TestStore_HealthAndStats(t *testing.T) {
	db := pgtest.Start(t)

	require.NoError(t, db.Store.HealthCheck(context.Background()))

	stat := db.Store.Stats()
	require.NotNil(t, stat)
	assert.Equal(t, int32(4), stat.MaxConns())
}

func TestStore_NilIsNotInitialized(t *testing.T) {
	var st *store.Store

	err := st.HealthCheck(context.Background())
	assert.True(t, errors.Is(err, store.ErrNotInitialized))
	assert.Nil(t, st.Stats())
	st.Close()
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := store.New(context.Background(), "postgres://%zz@localhost/db", store.Options{
		ConnTimeout: time.Second,
		Logger:      zaptest.NewLogger(t),
	})
	assert.Error(t, err)
}
