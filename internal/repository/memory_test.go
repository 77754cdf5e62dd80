package repository

import (
	"context"
	"testing"
	"time"

	"piscineiro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		session := &models.Session{Token: "tok-1", ClientID: "client-1"}
		err := repo.SetSession(ctx, session)
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, session, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		err := repo.ClearSession(ctx, "tok-1")
		require.NoError(t, err)
		got, _ := repo.GetSession(ctx, "tok-1")
		assert.Nil(t, got)
	})

	t.Run("SessionExpires", func(t *testing.T) {
		short := NewMemorySessionRepository(10 * time.Millisecond)
		session := &models.Session{Token: "tok-2", ClientID: "client-2"}
		require.NoError(t, short.SetSession(ctx, session))

		time.Sleep(20 * time.Millisecond)
		got, err := short.GetSession(ctx, "tok-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "client-3"
		allowed, _ := repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.False(t, allowed)

		// Wait for expiry
		time.Sleep(time.Second + 10*time.Millisecond)
		allowed, _ = repo.CheckRateLimit(ctx, key, 2, time.Second)
		assert.True(t, allowed)
	})
}
