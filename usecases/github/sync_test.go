package github

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rolebridge/appctx"
	"rolebridge/models"
	"rolebridge/services"
)

type testEnv struct {
	txManager   *services.MockTransactionManager
	workspaces  *services.MockWorkspacesService
	projects    *services.MockProjectsService
	members     *services.MockMembersService
	links       *services.MockGithubLinksService
	permissions *services.MockGithubPermissionsService
	settings    *services.MockSettingsService
	audit       *services.MockAuditService
	useCase     *GithubUseCase
}

func newTestEnv() *testEnv {
	env := &testEnv{
		txManager:   &services.MockTransactionManager{},
		workspaces:  &services.MockWorkspacesService{},
		projects:    &services.MockProjectsService{},
		members:     &services.MockMembersService{},
		links:       &services.MockGithubLinksService{},
		permissions: &services.MockGithubPermissionsService{},
		settings:    &services.MockSettingsService{},
		audit:       &services.MockAuditService{},
	}
	env.useCase = NewGithubUseCase(
		env.txManager,
		env.workspaces,
		env.projects,
		env.members,
		env.links,
		env.permissions,
		env.settings,
		env.audit,
	)
	return env
}

func defaultSyncConfig(mode models.SyncMode) *models.GithubSyncConfig {
	return &models.GithubSyncConfig{
		Mode:               mode,
		CacheTTL:           900 * time.Second,
		RoleMapping:        models.DefaultRoleMappingPolicy(),
		TeamMappingEnabled: false,
	}
}

func createTestWorkspace(id, key string) *models.Workspace {
	return &models.Workspace{ID: id, Key: key, Name: key}
}

func createTestUser(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com"}
}

func createTestRepoLink(workspaceID string, repoID int64, fullName, projectID string) models.GithubRepoLink {
	return models.GithubRepoLink{
		ID:              fmt.Sprintf("ghrl_%d", repoID),
		WorkspaceID:     workspaceID,
		GithubRepoID:    repoID,
		FullName:        fullName,
		LinkedProjectID: &projectID,
		IsActive:        true,
	}
}

func createTestUserLink(workspaceID, userID, login string, githubUserID int64) models.GithubUserLink {
	return models.GithubUserLink{
		ID:           "ghul_" + userID,
		WorkspaceID:  workspaceID,
		UserID:       userID,
		GithubLogin:  login,
		GithubUserID: &githubUserID,
	}
}

// setupAuthorizedWorkspace wires the baseline expectations shared by every
// successful-path sync test: workspace resolution, admin check, connection,
// config and token exchange.
func (env *testEnv) setupAuthorizedWorkspace(
	workspace *models.Workspace,
	actor *models.User,
	config *models.GithubSyncConfig,
) {
	env.workspaces.On("GetWorkspaceByKey", mock.Anything, workspace.Key).
		Return(mo.Some(workspace), nil)
	env.members.On("GetWorkspaceMemberRole", mock.Anything, workspace.ID, actor.ID).
		Return(mo.Some(models.WorkspaceRoleOwner), nil)
	env.links.On("GetGithubConnection", mock.Anything, workspace.ID).
		Return(mo.Some(&models.GithubConnection{
			ID:             "ghcn_1",
			WorkspaceID:    workspace.ID,
			InstallationID: "12345",
		}), nil)
	env.settings.On("GetGithubSyncConfig", mock.Anything, workspace.ID).
		Return(config, nil)
	env.permissions.On("IssueInstallationToken", mock.Anything, "12345").
		Return("ghs_installtoken", nil)
}

func matchRepoLink(fullName string) any {
	return mock.MatchedBy(func(link *models.GithubRepoLink) bool {
		return link.FullName == fullName
	})
}

func TestSyncGithubPermissions(t *testing.T) {
	workspace := createTestWorkspace("ws_1", "acme")
	actor := createTestUser("u_admin")
	ctx := appctx.SetUser(context.Background(), actor)

	t.Run("adds members for matched users at mapped roles", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddOnly)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		link := createTestRepoLink(workspace.ID, 101, "acme/platform", "p_1")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{link}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_1"}).
			Return([]models.Project{{ID: "p_1", Key: "platform", WorkspaceID: workspace.ID}}, nil)

		// octo-one: read directly, write via team. octo-two: write via team.
		rows := []models.GithubUserPermission{
			{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionWrite},
			{GithubUserID: 12, GithubLogin: "octo-two", Permission: models.GithubPermissionWrite},
		}
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/platform"), config.CacheTTL).
			Return(rows, nil)

		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{
				createTestUserLink(workspace.ID, "u_1", "octo-one", 11),
				createTestUserLink(workspace.ID, "u_2", "octo-two", 12),
			}, nil)
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_1"}).
			Return([]models.ProjectMember{}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{}, nil)

		env.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		env.members.On("UpsertProjectMember", mock.Anything, "p_1", "u_1", models.ProjectRoleWriter).Return(nil)
		env.members.On("UpsertProjectMember", mock.Anything, "p_1", "u_2", models.ProjectRoleWriter).Return(nil)
		env.permissions.On("RecordPermissionObservations", mock.Anything, workspace.ID, int64(101), rows).Return(nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.NoError(t, err)
		assert.Equal(t, 1, report.ReposProcessed)
		assert.Equal(t, 2, report.UsersMatched)
		assert.Equal(t, 2, report.Added)
		assert.Equal(t, 0, report.Updated)
		assert.Equal(t, 0, report.Removed)
		assert.Equal(t, 0, report.SkippedUnmatched)
		env.members.AssertExpectations(t)
		env.permissions.AssertExpectations(t)
	})

	t.Run("second run with no upstream changes is a no-op", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddOnly)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		link := createTestRepoLink(workspace.ID, 101, "acme/platform", "p_1")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{link}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_1"}).
			Return([]models.Project{{ID: "p_1", Key: "platform", WorkspaceID: workspace.ID}}, nil)

		rows := []models.GithubUserPermission{
			{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionWrite},
		}
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/platform"), config.CacheTTL).
			Return(rows, nil)
		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{createTestUserLink(workspace.ID, "u_1", "octo-one", 11)}, nil)

		// Role store already converged by the previous run
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_1"}).
			Return([]models.ProjectMember{
				{ID: "pm_1", ProjectID: "p_1", UserID: "u_1", Role: models.ProjectRoleWriter},
			}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{}, nil)

		env.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		env.permissions.On("RecordPermissionObservations", mock.Anything, workspace.ID, int64(101), rows).Return(nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.NoError(t, err)
		assert.Equal(t, 0, report.Added)
		assert.Equal(t, 0, report.Updated)
		assert.Equal(t, 0, report.Removed)
		env.members.AssertNotCalled(t, "UpsertProjectMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		env.members.AssertNotCalled(t, "DeleteProjectMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("add_only never downgrades an existing member", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddOnly)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		link := createTestRepoLink(workspace.ID, 101, "acme/platform", "p_1")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{link}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_1"}).
			Return([]models.Project{{ID: "p_1", Key: "platform", WorkspaceID: workspace.ID}}, nil)

		// Upstream now reports read only, but u_1 already holds WRITER
		rows := []models.GithubUserPermission{
			{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionRead},
		}
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/platform"), config.CacheTTL).
			Return(rows, nil)
		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{createTestUserLink(workspace.ID, "u_1", "octo-one", 11)}, nil)
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_1"}).
			Return([]models.ProjectMember{
				{ID: "pm_1", ProjectID: "p_1", UserID: "u_1", Role: models.ProjectRoleWriter},
			}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{}, nil)

		env.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		env.permissions.On("RecordPermissionObservations", mock.Anything, workspace.ID, int64(101), rows).Return(nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.NoError(t, err)
		assert.Equal(t, 0, report.Updated)
		assert.Equal(t, 0, report.Removed)
		env.members.AssertNotCalled(t, "UpsertProjectMember", mock.Anything, "p_1", "u_1", models.ProjectRoleReader)
	})

	t.Run("add_and_remove downgrades an unprotected member", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddAndRemove)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		link := createTestRepoLink(workspace.ID, 101, "acme/platform", "p_1")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{link}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_1"}).
			Return([]models.Project{{ID: "p_1", Key: "platform", WorkspaceID: workspace.ID}}, nil)

		rows := []models.GithubUserPermission{
			{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionRead},
		}
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/platform"), config.CacheTTL).
			Return(rows, nil)
		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{createTestUserLink(workspace.ID, "u_1", "octo-one", 11)}, nil)
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_1"}).
			Return([]models.ProjectMember{
				{ID: "pm_1", ProjectID: "p_1", UserID: "u_1", Role: models.ProjectRoleWriter},
			}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{}, nil)

		env.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		env.members.On("UpsertProjectMember", mock.Anything, "p_1", "u_1", models.ProjectRoleReader).Return(nil)
		env.permissions.On("RecordPermissionObservations", mock.Anything, workspace.ID, int64(101), rows).Return(nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Updated)
		assert.Equal(t, 0, report.ProtectedSkipped)
		env.members.AssertExpectations(t)
	})

	t.Run("protected member is never downgraded or removed", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddAndRemove)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		link := createTestRepoLink(workspace.ID, 101, "acme/platform", "p_1")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{link}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_1"}).
			Return([]models.Project{{ID: "p_1", Key: "platform", WorkspaceID: workspace.ID}}, nil)

		rows := []models.GithubUserPermission{
			{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionRead},
		}
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/platform"), config.CacheTTL).
			Return(rows, nil)
		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{
				createTestUserLink(workspace.ID, "u_1", "octo-one", 11),
				createTestUserLink(workspace.ID, "u_2", "octo-two", 12),
			}, nil)
		// u_1 is a workspace owner; u_2 vanished upstream but is also protected
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_1"}).
			Return([]models.ProjectMember{
				{ID: "pm_1", ProjectID: "p_1", UserID: "u_1", Role: models.ProjectRoleWriter},
				{ID: "pm_2", ProjectID: "p_1", UserID: "u_2", Role: models.ProjectRoleMaintainer},
			}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{"u_1": true, "u_2": true}, nil)

		env.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		env.permissions.On("RecordPermissionObservations", mock.Anything, workspace.ID, int64(101), rows).Return(nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.NoError(t, err)
		assert.Equal(t, 0, report.Updated)
		assert.Equal(t, 0, report.Removed)
		assert.Equal(t, 2, report.ProtectedSkipped)
		env.members.AssertNotCalled(t, "UpsertProjectMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		env.members.AssertNotCalled(t, "DeleteProjectMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("one failing repo does not abort the others", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddAndRemove)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		linkA := createTestRepoLink(workspace.ID, 101, "acme/alpha", "p_a")
		linkB := createTestRepoLink(workspace.ID, 102, "acme/bravo", "p_b")
		linkC := createTestRepoLink(workspace.ID, 103, "acme/charlie", "p_c")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{linkA, linkB, linkC}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_a", "p_b", "p_c"}).
			Return([]models.Project{
				{ID: "p_a", Key: "alpha", WorkspaceID: workspace.ID},
				{ID: "p_b", Key: "bravo", WorkspaceID: workspace.ID},
				{ID: "p_c", Key: "charlie", WorkspaceID: workspace.ID},
			}, nil)

		rowsA := []models.GithubUserPermission{
			{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionWrite},
		}
		rowsC := []models.GithubUserPermission{
			{GithubUserID: 12, GithubLogin: "octo-two", Permission: models.GithubPermissionAdmin},
		}
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/alpha"), config.CacheTTL).
			Return(rowsA, nil)
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/bravo"), config.CacheTTL).
			Return(nil, fmt.Errorf("upstream returned 502"))
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/charlie"), config.CacheTTL).
			Return(rowsC, nil)

		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{
				createTestUserLink(workspace.ID, "u_1", "octo-one", 11),
				createTestUserLink(workspace.ID, "u_2", "octo-two", 12),
			}, nil)

		// Failed repo's project p_b is excluded from the removal scope, so
		// u_3's membership there survives the run
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_a", "p_c"}).
			Return([]models.ProjectMember{}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{}, nil)

		env.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		env.members.On("UpsertProjectMember", mock.Anything, "p_a", "u_1", models.ProjectRoleWriter).Return(nil)
		env.members.On("UpsertProjectMember", mock.Anything, "p_c", "u_2", models.ProjectRoleMaintainer).Return(nil)
		env.permissions.On("RecordPermissionObservations", mock.Anything, workspace.ID, int64(101), rowsA).Return(nil)
		env.permissions.On("RecordPermissionObservations", mock.Anything, workspace.ID, int64(103), rowsC).Return(nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.NoError(t, err)
		assert.Equal(t, 2, report.ReposProcessed)
		assert.Equal(t, 2, report.Added)
		require.Len(t, report.RepoErrors, 1)
		assert.Equal(t, "acme/bravo", report.RepoErrors[0].RepoFullName)
		assert.Contains(t, report.RepoErrors[0].Error, "502")
		env.members.AssertExpectations(t)
		env.permissions.AssertExpectations(t)
	})

	t.Run("dry run computes counts without any writes", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddOnly)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		link := createTestRepoLink(workspace.ID, 101, "acme/platform", "p_1")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{link}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_1"}).
			Return([]models.Project{{ID: "p_1", Key: "platform", WorkspaceID: workspace.ID}}, nil)

		rows := []models.GithubUserPermission{
			{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionWrite},
			{GithubUserID: 12, GithubLogin: "octo-two", Permission: models.GithubPermissionWrite},
		}
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/platform"), config.CacheTTL).
			Return(rows, nil)
		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{
				createTestUserLink(workspace.ID, "u_1", "octo-one", 11),
				createTestUserLink(workspace.ID, "u_2", "octo-two", 12),
			}, nil)
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_1"}).
			Return([]models.ProjectMember{}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{}, nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{DryRun: true})

		require.NoError(t, err)
		assert.True(t, report.DryRun)
		assert.Equal(t, 2, report.Added)
		env.txManager.AssertNotCalled(t, "WithTransaction", mock.Anything, mock.Anything)
		env.members.AssertNotCalled(t, "UpsertProjectMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		env.permissions.AssertNotCalled(t, "RecordPermissionObservations", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unmatched identities are reported, never written", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddOnly)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		link := createTestRepoLink(workspace.ID, 101, "acme/platform", "p_1")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{link}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_1"}).
			Return([]models.Project{{ID: "p_1", Key: "platform", WorkspaceID: workspace.ID}}, nil)

		rows := []models.GithubUserPermission{
			{GithubUserID: 99, GithubLogin: "drive-by", Permission: models.GithubPermissionAdmin},
		}
		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/platform"), config.CacheTTL).
			Return(rows, nil)
		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{}, nil)
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_1"}).
			Return([]models.ProjectMember{}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{}, nil)

		env.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		env.permissions.On("RecordPermissionObservations", mock.Anything, workspace.ID, int64(101), rows).Return(nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.NoError(t, err)
		assert.Equal(t, 0, report.Added)
		assert.Equal(t, 1, report.SkippedUnmatched)
		require.Len(t, report.UnmatchedUsers, 1)
		assert.Equal(t, int64(99), report.UnmatchedUsers[0].GithubUserID)
		assert.Equal(t, "drive-by", report.UnmatchedUsers[0].GithubLogin)
		env.members.AssertNotCalled(t, "UpsertProjectMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repo filter restricts the run", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddOnly)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		linkA := createTestRepoLink(workspace.ID, 101, "acme/alpha", "p_a")
		linkB := createTestRepoLink(workspace.ID, 102, "acme/bravo", "p_b")
		env.links.On("GetActiveLinkedRepoLinks", mock.Anything, workspace.ID).
			Return([]models.GithubRepoLink{linkA, linkB}, nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_a", "p_b"}).
			Return([]models.Project{
				{ID: "p_a", Key: "alpha", WorkspaceID: workspace.ID},
				{ID: "p_b", Key: "bravo", WorkspaceID: workspace.ID},
			}, nil)

		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/alpha"), config.CacheTTL).
			Return([]models.GithubUserPermission{}, nil)
		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{}, nil)
		env.members.On("GetProjectMembersByProjectIDs", mock.Anything, []string{"p_a"}).
			Return([]models.ProjectMember{}, nil)
		env.members.On("GetProtectedUserIDs", mock.Anything, workspace.ID).
			Return(map[string]bool{}, nil)
		env.txManager.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
		env.audit.On("Record", mock.Anything, mock.Anything).Return()

		report, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{
			Repos: []string{"acme/alpha"},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, report.ReposProcessed)
		env.permissions.AssertNotCalled(t, "ComputeRepoPermissions", mock.Anything, mock.Anything, matchRepoLink("acme/bravo"), mock.Anything)
	})

	t.Run("non-admin caller is rejected before any upstream call", func(t *testing.T) {
		env := newTestEnv()
		env.workspaces.On("GetWorkspaceByKey", mock.Anything, "acme").
			Return(mo.Some(workspace), nil)
		env.members.On("GetWorkspaceMemberRole", mock.Anything, workspace.ID, actor.ID).
			Return(mo.Some(models.WorkspaceRoleMember), nil)

		_, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.Error(t, err)
		assert.ErrorContains(t, err, "not an admin")
		env.permissions.AssertNotCalled(t, "IssueInstallationToken", mock.Anything, mock.Anything)
	})

	t.Run("workspace without connection fails as not found", func(t *testing.T) {
		env := newTestEnv()
		env.workspaces.On("GetWorkspaceByKey", mock.Anything, "acme").
			Return(mo.Some(workspace), nil)
		env.members.On("GetWorkspaceMemberRole", mock.Anything, workspace.ID, actor.ID).
			Return(mo.Some(models.WorkspaceRoleOwner), nil)
		env.links.On("GetGithubConnection", mock.Anything, workspace.ID).
			Return(mo.None[*models.GithubConnection](), nil)

		_, err := env.useCase.SyncGithubPermissions(ctx, "acme", models.GithubSyncOptions{})

		require.Error(t, err)
		assert.ErrorContains(t, err, "no GitHub installation connected")
	})
}
