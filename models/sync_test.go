package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyncMode(t *testing.T) {
	t.Run("known modes", func(t *testing.T) {
		mode, err := ParseSyncMode("add_only")
		require.NoError(t, err)
		assert.Equal(t, SyncModeAddOnly, mode)

		mode, err = ParseSyncMode("add_and_remove")
		require.NoError(t, err)
		assert.Equal(t, SyncModeAddAndRemove, mode)
	})

	t.Run("unknown mode is rejected", func(t *testing.T) {
		_, err := ParseSyncMode("remove_only")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown sync mode")
	})
}

func TestGithubAPICacheEntryIsFresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := &GithubAPICacheEntry{UpdatedAt: now.Add(-10 * time.Minute)}

	assert.True(t, entry.IsFresh(now, 15*time.Minute))
	assert.False(t, entry.IsFresh(now, 5*time.Minute))
	assert.False(t, entry.IsFresh(now, 10*time.Minute))
}

func TestGithubRepoLinkOwnerName(t *testing.T) {
	link := &GithubRepoLink{FullName: "acme/platform"}
	assert.Equal(t, "acme", link.Owner())
	assert.Equal(t, "platform", link.Name())

	bare := &GithubRepoLink{FullName: "acme"}
	assert.Equal(t, "acme", bare.Owner())
	assert.Equal(t, "", bare.Name())
}
