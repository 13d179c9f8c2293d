package githubpermissions

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	githubclient "rolebridge/clients/github"
	"rolebridge/models"
)

// fakeCacheStore is an in-memory CacheStore for exercising the TTL logic
// without a database
type fakeCacheStore struct {
	entries     map[string]*models.GithubAPICacheEntry
	permissions map[string]models.GithubUserPermission
	upserts     int
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{
		entries:     map[string]*models.GithubAPICacheEntry{},
		permissions: map[string]models.GithubUserPermission{},
	}
}

func (f *fakeCacheStore) GetAPICacheEntry(
	_ context.Context,
	workspaceID models.WorkspaceID,
	cacheKey string,
) (mo.Option[*models.GithubAPICacheEntry], error) {
	entry, ok := f.entries[string(workspaceID)+"|"+cacheKey]
	if !ok {
		return mo.None[*models.GithubAPICacheEntry](), nil
	}
	return mo.Some(entry), nil
}

func (f *fakeCacheStore) UpsertAPICacheEntry(
	_ context.Context,
	workspaceID models.WorkspaceID,
	cacheKey string,
	payload json.RawMessage,
) error {
	f.upserts++
	f.entries[string(workspaceID)+"|"+cacheKey] = &models.GithubAPICacheEntry{
		WorkspaceID: workspaceID,
		CacheKey:    cacheKey,
		Payload:     payload,
		UpdatedAt:   time.Now(),
	}
	return nil
}

func (f *fakeCacheStore) UpsertPermission(
	_ context.Context,
	workspaceID models.WorkspaceID,
	repoID int64,
	row models.GithubUserPermission,
) error {
	key := fmt.Sprintf("%s|%d|%d", workspaceID, repoID, row.GithubUserID)
	f.permissions[key] = row
	return nil
}

func (f *fakeCacheStore) seed(workspaceID models.WorkspaceID, key string, payload any, age time.Duration) {
	raw, _ := json.Marshal(payload)
	f.entries[string(workspaceID)+"|"+key] = &models.GithubAPICacheEntry{
		WorkspaceID: workspaceID,
		CacheKey:    key,
		Payload:     raw,
		UpdatedAt:   time.Now().Add(-age),
	}
}

func testLink() *models.GithubRepoLink {
	projectID := "p_1"
	return &models.GithubRepoLink{
		ID:              "ghrl_1",
		WorkspaceID:     "ws_1",
		GithubRepoID:    101,
		FullName:        "acme/platform",
		LinkedProjectID: &projectID,
		IsActive:        true,
	}
}

func TestClampCacheTTL(t *testing.T) {
	assert.Equal(t, MinCacheTTL, ClampCacheTTL(5*time.Second))
	assert.Equal(t, MaxCacheTTL, ClampCacheTTL(48*time.Hour))
	assert.Equal(t, 900*time.Second, ClampCacheTTL(900*time.Second))
}

func TestComputeRepoPermissions(t *testing.T) {
	ctx := context.Background()
	ttl := 900 * time.Second

	t.Run("merges collaborators and team members at max permission", func(t *testing.T) {
		mockClient := &githubclient.MockGitHubClient{}
		store := newFakeCacheStore()
		service := NewGithubPermissionsService(mockClient, store)

		// octo-one is a direct collaborator at read and also in a write team
		mockClient.On("ListRepositoryCollaborators", ctx, "tok", "acme", "platform").
			Return([]models.GithubCollaborator{
				{ID: 11, Login: "Octo-One", Permission: models.GithubPermissionRead},
			}, nil)
		mockClient.On("ListRepositoryTeams", ctx, "tok", "acme", "platform").
			Return([]models.GithubRepoTeam{
				{ID: 1, Slug: "platform-team", OrgLogin: "acme", Permission: models.GithubPermissionWrite},
			}, nil)
		mockClient.On("ListTeamMembers", ctx, "tok", "acme", "platform-team").
			Return([]models.GithubTeamMember{
				{ID: 11, Login: "octo-one"},
				{ID: 12, Login: "octo-two"},
			}, nil)

		rows, err := service.ComputeRepoPermissions(ctx, "tok", testLink(), ttl)

		require.NoError(t, err)
		require.Len(t, rows, 2)
		sort.Slice(rows, func(i, j int) bool { return rows[i].GithubUserID < rows[j].GithubUserID })

		assert.Equal(t, int64(11), rows[0].GithubUserID)
		assert.Equal(t, "octo-one", rows[0].GithubLogin)
		assert.Equal(t, models.GithubPermissionWrite, rows[0].Permission)

		assert.Equal(t, int64(12), rows[1].GithubUserID)
		assert.Equal(t, models.GithubPermissionWrite, rows[1].Permission)
		mockClient.AssertExpectations(t)
	})

	t.Run("collaborators are always fetched live, teams come from cache", func(t *testing.T) {
		mockClient := &githubclient.MockGitHubClient{}
		store := newFakeCacheStore()
		service := NewGithubPermissionsService(mockClient, store)

		store.seed("ws_1", "repo_teams/101", []models.GithubRepoTeam{
			{ID: 1, Slug: "platform-team", OrgLogin: "acme", Permission: models.GithubPermissionWrite},
		}, time.Minute)
		store.seed("ws_1", "team_members/acme/platform-team", []models.GithubTeamMember{
			{ID: 12, Login: "octo-two"},
		}, time.Minute)

		mockClient.On("ListRepositoryCollaborators", ctx, "tok", "acme", "platform").
			Return([]models.GithubCollaborator{}, nil)

		rows, err := service.ComputeRepoPermissions(ctx, "tok", testLink(), ttl)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(12), rows[0].GithubUserID)
		mockClient.AssertNotCalled(t, "ListRepositoryTeams", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockClient.AssertNotCalled(t, "ListTeamMembers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired cache entries are refetched and overwritten", func(t *testing.T) {
		mockClient := &githubclient.MockGitHubClient{}
		store := newFakeCacheStore()
		service := NewGithubPermissionsService(mockClient, store)

		store.seed("ws_1", "repo_teams/101", []models.GithubRepoTeam{}, 2*time.Hour)

		mockClient.On("ListRepositoryCollaborators", ctx, "tok", "acme", "platform").
			Return([]models.GithubCollaborator{}, nil)
		mockClient.On("ListRepositoryTeams", ctx, "tok", "acme", "platform").
			Return([]models.GithubRepoTeam{
				{ID: 1, Slug: "platform-team", OrgLogin: "acme", Permission: models.GithubPermissionRead},
			}, nil)
		mockClient.On("ListTeamMembers", ctx, "tok", "acme", "platform-team").
			Return([]models.GithubTeamMember{}, nil)

		_, err := service.ComputeRepoPermissions(ctx, "tok", testLink(), ttl)

		require.NoError(t, err)
		// repo teams refreshed, team members fetched and stored
		assert.Equal(t, 2, store.upserts)
		mockClient.AssertExpectations(t)
	})

	t.Run("fetch failure propagates and leaves stale entry intact", func(t *testing.T) {
		mockClient := &githubclient.MockGitHubClient{}
		store := newFakeCacheStore()
		service := NewGithubPermissionsService(mockClient, store)

		stale := []models.GithubRepoTeam{
			{ID: 1, Slug: "platform-team", OrgLogin: "acme", Permission: models.GithubPermissionWrite},
		}
		store.seed("ws_1", "repo_teams/101", stale, 2*time.Hour)

		mockClient.On("ListRepositoryCollaborators", ctx, "tok", "acme", "platform").
			Return([]models.GithubCollaborator{}, nil)
		mockClient.On("ListRepositoryTeams", ctx, "tok", "acme", "platform").
			Return(nil, fmt.Errorf("upstream returned 502"))

		_, err := service.ComputeRepoPermissions(ctx, "tok", testLink(), ttl)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
		assert.Equal(t, 0, store.upserts)

		entry, ok := store.entries["ws_1|repo_teams/101"]
		require.True(t, ok)
		var kept []models.GithubRepoTeam
		require.NoError(t, json.Unmarshal(entry.Payload, &kept))
		assert.Equal(t, stale, kept)
	})

	t.Run("empty results are cached too", func(t *testing.T) {
		mockClient := &githubclient.MockGitHubClient{}
		store := newFakeCacheStore()
		service := NewGithubPermissionsService(mockClient, store)

		mockClient.On("ListRepositoryCollaborators", ctx, "tok", "acme", "platform").
			Return([]models.GithubCollaborator{}, nil)
		mockClient.On("ListRepositoryTeams", ctx, "tok", "acme", "platform").
			Return([]models.GithubRepoTeam{}, nil)

		rows, err := service.ComputeRepoPermissions(ctx, "tok", testLink(), ttl)

		require.NoError(t, err)
		assert.Empty(t, rows)
		_, ok := store.entries["ws_1|repo_teams/101"]
		assert.True(t, ok)
	})
}

func TestFetchTeamMembers(t *testing.T) {
	ctx := context.Background()
	ttl := 900 * time.Second

	t.Run("second call within TTL hits the cache", func(t *testing.T) {
		mockClient := &githubclient.MockGitHubClient{}
		store := newFakeCacheStore()
		service := NewGithubPermissionsService(mockClient, store)

		members := []models.GithubTeamMember{{ID: 11, Login: "octo-one"}}
		mockClient.On("ListTeamMembers", ctx, "tok", "acme", "platform-team").
			Return(members, nil).Once()

		first, err := service.FetchTeamMembers(ctx, "tok", "ws_1", "acme", "platform-team", ttl)
		require.NoError(t, err)
		second, err := service.FetchTeamMembers(ctx, "tok", "ws_1", "acme", "platform-team", ttl)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		mockClient.AssertExpectations(t)
	})

	t.Run("rejects empty org or team", func(t *testing.T) {
		service := NewGithubPermissionsService(&githubclient.MockGitHubClient{}, newFakeCacheStore())

		_, err := service.FetchTeamMembers(ctx, "tok", "ws_1", "", "platform-team", ttl)
		assert.Error(t, err)
	})
}

func TestRecordPermissionObservations(t *testing.T) {
	store := newFakeCacheStore()
	service := NewGithubPermissionsService(&githubclient.MockGitHubClient{}, store)

	rows := []models.GithubUserPermission{
		{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionWrite},
		{GithubUserID: 12, GithubLogin: "octo-two", Permission: models.GithubPermissionRead},
	}
	err := service.RecordPermissionObservations(context.Background(), "ws_1", 101, rows)

	require.NoError(t, err)
	assert.Len(t, store.permissions, 2)
	assert.Equal(t, models.GithubPermissionWrite, store.permissions["ws_1|101|11"].Permission)
}
