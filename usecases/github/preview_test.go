package github

import (
	"context"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rolebridge/appctx"
	"rolebridge/core"
	"rolebridge/models"
)

func TestGetGithubPermissionPreview(t *testing.T) {
	workspace := createTestWorkspace("ws_1", "acme")
	actor := createTestUser("u_admin")
	ctx := appctx.SetUser(context.Background(), actor)

	t.Run("returns mapped rows without touching the role store", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddOnly)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		link := createTestRepoLink(workspace.ID, 101, "acme/platform", "p_1")
		env.links.On("GetRepoLinkByFullName", mock.Anything, workspace.ID, "acme/platform").
			Return(mo.Some(&link), nil)
		env.projects.On("GetProjectsByIDs", mock.Anything, workspace.ID, []string{"p_1"}).
			Return([]models.Project{{ID: "p_1", Key: "platform", WorkspaceID: workspace.ID}}, nil)

		env.permissions.On("ComputeRepoPermissions", mock.Anything, "ghs_installtoken", matchRepoLink("acme/platform"), config.CacheTTL).
			Return([]models.GithubUserPermission{
				{GithubUserID: 11, GithubLogin: "octo-one", Permission: models.GithubPermissionAdmin},
				{GithubUserID: 99, GithubLogin: "drive-by", Permission: models.GithubPermissionRead},
			}, nil)
		env.links.On("GetGithubUserLinks", mock.Anything, workspace.ID).
			Return([]models.GithubUserLink{createTestUserLink(workspace.ID, "u_1", "octo-one", 11)}, nil)

		preview, err := env.useCase.GetGithubPermissionPreview(ctx, "acme", "acme/platform")

		require.NoError(t, err)
		assert.Equal(t, "acme/platform", preview.RepoFullName)
		assert.Equal(t, "platform", preview.ProjectKey)
		require.Len(t, preview.Rows, 2)

		assert.True(t, preview.Rows[0].Matched)
		require.NotNil(t, preview.Rows[0].UserID)
		assert.Equal(t, "u_1", *preview.Rows[0].UserID)
		assert.Equal(t, models.ProjectRoleMaintainer, preview.Rows[0].MappedRole)

		assert.False(t, preview.Rows[1].Matched)
		assert.Nil(t, preview.Rows[1].UserID)
		assert.Equal(t, models.ProjectRoleReader, preview.Rows[1].MappedRole)

		env.txManager.AssertNotCalled(t, "WithTransaction", mock.Anything, mock.Anything)
		env.members.AssertNotCalled(t, "UpsertProjectMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		env.permissions.AssertNotCalled(t, "RecordPermissionObservations", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unlinked repo fails as not found", func(t *testing.T) {
		env := newTestEnv()
		config := defaultSyncConfig(models.SyncModeAddOnly)
		env.setupAuthorizedWorkspace(workspace, actor, config)

		env.links.On("GetRepoLinkByFullName", mock.Anything, workspace.ID, "acme/orphan").
			Return(mo.None[*models.GithubRepoLink](), nil)

		_, err := env.useCase.GetGithubPermissionPreview(ctx, "acme", "acme/orphan")

		require.Error(t, err)
		assert.True(t, core.IsNotFoundError(err))
	})
}
