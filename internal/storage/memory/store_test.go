package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/todoq/internal/storage"
	"github.com/steveyegge/todoq/internal/types"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	snap := &storage.Snapshot{
		Projects:   []types.Project{{ID: "p1", Name: "Inbox"}},
		SyncTokens: map[string]string{"projects": "tok"},
		SavedAt:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, snap))
	assert.Equal(t, 1, s.Saves())

	// Mutating the saved value must not leak into the store.
	snap.Projects[0].Name = "Changed"
	snap.SyncTokens["projects"] = "other"

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Inbox", got.Projects[0].Name)
	assert.Equal(t, "tok", got.SyncTokens["projects"])
	assert.Equal(t, snap.SavedAt, got.SavedAt)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Close())

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.Save(ctx, &storage.Snapshot{}), storage.ErrClosed)
	assert.ErrorIs(t, s.Clear(ctx), storage.ErrClosed)
}
