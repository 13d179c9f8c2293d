package github

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolebridge/models"
)

func TestIdentityMatcher(t *testing.T) {
	githubID := int64(42)
	links := []models.GithubUserLink{
		{UserID: "u_1", GithubLogin: "Octo-One", GithubUserID: &githubID},
		{UserID: "u_2", GithubLogin: "octo-two"},
	}
	matcher := newIdentityMatcher(links)

	t.Run("numeric id matches first", func(t *testing.T) {
		userID, ok := matcher.Match(42, "renamed-login")
		require.True(t, ok)
		assert.Equal(t, "u_1", userID)
	})

	t.Run("normalized login is the fallback", func(t *testing.T) {
		userID, ok := matcher.Match(7, "@Octo-Two")
		require.True(t, ok)
		assert.Equal(t, "u_2", userID)
	})

	t.Run("unknown identity does not match", func(t *testing.T) {
		_, ok := matcher.Match(99, "stranger")
		assert.False(t, ok)
	})

	t.Run("linked user set covers both match paths", func(t *testing.T) {
		linked := matcher.LinkedUserIDs()
		assert.True(t, linked["u_1"])
		assert.True(t, linked["u_2"])
		assert.False(t, linked["u_3"])
	})
}

func TestUnmatchedCollector(t *testing.T) {
	t.Run("deduplicates by github user id", func(t *testing.T) {
		c := newUnmatchedCollector()
		c.Add(1, "octo-one")
		c.Add(1, "octo-one")
		c.Add(2, "octo-two")

		assert.Equal(t, 2, c.Count())
		assert.Len(t, c.Report(), 2)
	})

	t.Run("report is capped", func(t *testing.T) {
		c := newUnmatchedCollector()
		for i := 0; i < models.MaxUnmatchedUsersReported+50; i++ {
			c.Add(int64(i), fmt.Sprintf("user-%d", i))
		}

		assert.Equal(t, models.MaxUnmatchedUsersReported+50, c.Count())
		assert.Len(t, c.Report(), models.MaxUnmatchedUsersReported)
	})
}

func TestClassifyProjectOps(t *testing.T) {
	existing := []models.ProjectMember{
		{ID: "pm_1", ProjectID: "p_1", UserID: "u_writer", Role: models.ProjectRoleWriter},
		{ID: "pm_2", ProjectID: "p_1", UserID: "u_reader", Role: models.ProjectRoleReader},
		{ID: "pm_3", ProjectID: "p_1", UserID: "u_gone", Role: models.ProjectRoleWriter},
		{ID: "pm_4", ProjectID: "p_1", UserID: "u_unlinked", Role: models.ProjectRoleWriter},
	}
	linked := map[string]bool{"u_writer": true, "u_reader": true, "u_gone": true, "u_new": true}

	t.Run("add_only adds and upgrades only", func(t *testing.T) {
		desired := map[projectMemberKey]models.ProjectRole{
			{ProjectID: "p_1", UserID: "u_new"}:    models.ProjectRoleReader,
			{ProjectID: "p_1", UserID: "u_writer"}: models.ProjectRoleReader,     // would be a downgrade
			{ProjectID: "p_1", UserID: "u_reader"}: models.ProjectRoleMaintainer, // upgrade
		}

		diff := classifyProjectOps(desired, existing, linked, map[string]bool{}, models.SyncModeAddOnly)

		require.Len(t, diff.ToAdd, 1)
		assert.Equal(t, "u_new", diff.ToAdd[0].UserID)
		require.Len(t, diff.ToUpdate, 1)
		assert.Equal(t, "u_reader", diff.ToUpdate[0].UserID)
		assert.Equal(t, models.ProjectRoleMaintainer, diff.ToUpdate[0].NewRole)
		assert.Empty(t, diff.ToRemove)
	})

	t.Run("add_and_remove converges both directions and removes absentees", func(t *testing.T) {
		desired := map[projectMemberKey]models.ProjectRole{
			{ProjectID: "p_1", UserID: "u_writer"}: models.ProjectRoleReader,
		}

		diff := classifyProjectOps(desired, existing, linked, map[string]bool{}, models.SyncModeAddAndRemove)

		require.Len(t, diff.ToUpdate, 1)
		assert.Equal(t, models.ProjectRoleReader, diff.ToUpdate[0].NewRole)

		// u_unlinked has no GitHub identity link, so only u_gone and
		// u_reader are removable
		removedUsers := make([]string, 0, len(diff.ToRemove))
		for _, op := range diff.ToRemove {
			removedUsers = append(removedUsers, op.UserID)
		}
		assert.ElementsMatch(t, []string{"u_gone", "u_reader"}, removedUsers)
	})

	t.Run("protected users are exempt from downgrade and removal", func(t *testing.T) {
		desired := map[projectMemberKey]models.ProjectRole{
			{ProjectID: "p_1", UserID: "u_writer"}: models.ProjectRoleReader,
		}
		protected := map[string]bool{"u_writer": true, "u_gone": true, "u_reader": true}

		diff := classifyProjectOps(desired, existing, linked, protected, models.SyncModeAddAndRemove)

		assert.Empty(t, diff.ToUpdate)
		assert.Empty(t, diff.ToRemove)
		assert.Equal(t, 3, diff.ProtectedSkipped)
	})

	t.Run("equal role is a no-op", func(t *testing.T) {
		desired := map[projectMemberKey]models.ProjectRole{
			{ProjectID: "p_1", UserID: "u_writer"}: models.ProjectRoleWriter,
		}

		diff := classifyProjectOps(desired, existing, linked, map[string]bool{}, models.SyncModeAddOnly)

		assert.Empty(t, diff.ToAdd)
		assert.Empty(t, diff.ToUpdate)
	})
}

func TestClassifyWorkspaceOps(t *testing.T) {
	existing := []models.WorkspaceMember{
		{ID: "wm_1", WorkspaceID: "ws_1", UserID: "u_owner", Role: models.WorkspaceRoleOwner},
		{ID: "wm_2", WorkspaceID: "ws_1", UserID: "u_member", Role: models.WorkspaceRoleMember},
	}
	linked := map[string]bool{"u_owner": true, "u_member": true, "u_new": true}

	t.Run("adds and upgrades", func(t *testing.T) {
		desired := map[string]models.WorkspaceRole{
			"u_new":    models.WorkspaceRoleMember,
			"u_member": models.WorkspaceRoleAdmin,
		}

		diff := classifyWorkspaceOps(desired, existing, linked, models.SyncModeAddOnly)

		require.Len(t, diff.ToAdd, 1)
		assert.Equal(t, "u_new", diff.ToAdd[0].UserID)
		require.Len(t, diff.ToUpdate, 1)
		assert.Equal(t, models.WorkspaceRoleAdmin, diff.ToUpdate[0].NewRole)
	})

	t.Run("existing admins are never downgraded or removed", func(t *testing.T) {
		desired := map[string]models.WorkspaceRole{
			"u_owner": models.WorkspaceRoleMember,
		}

		diff := classifyWorkspaceOps(desired, existing, linked, models.SyncModeAddAndRemove)

		assert.Empty(t, diff.ToUpdate)
		// u_member is linked and absent from desired, so it is removed;
		// u_owner survives despite also being absent-from-desired-in-rank
		require.Len(t, diff.ToRemove, 1)
		assert.Equal(t, "u_member", diff.ToRemove[0].UserID)
		assert.Equal(t, 1, diff.ProtectedSkipped)
	})

	t.Run("add_only ignores downgrades without counting them protected", func(t *testing.T) {
		desired := map[string]models.WorkspaceRole{
			"u_member": models.WorkspaceRoleMember,
		}
		existingAdmin := []models.WorkspaceMember{
			{ID: "wm_2", WorkspaceID: "ws_1", UserID: "u_member", Role: models.WorkspaceRoleAdmin},
		}

		diff := classifyWorkspaceOps(desired, existingAdmin, linked, models.SyncModeAddOnly)

		assert.Empty(t, diff.ToUpdate)
		assert.Empty(t, diff.ToRemove)
		assert.Equal(t, 0, diff.ProtectedSkipped)
	})
}

func TestTransitionActions(t *testing.T) {
	writer := models.ProjectRoleWriter
	reader := models.ProjectRoleReader
	admin := models.WorkspaceRoleAdmin
	member := models.WorkspaceRoleMember

	assert.Equal(t, models.AuditActionProjectMemberAdded, projectTransitionAction(nil, &writer))
	assert.Equal(t, models.AuditActionProjectMemberRemoved, projectTransitionAction(&writer, nil))
	assert.Equal(t, models.AuditActionProjectMemberUpgraded, projectTransitionAction(&reader, &writer))
	assert.Equal(t, models.AuditActionProjectMemberDowngraded, projectTransitionAction(&writer, &reader))

	assert.Equal(t, models.AuditActionWorkspaceMemberAdded, workspaceTransitionAction(nil, &member))
	assert.Equal(t, models.AuditActionWorkspaceMemberRemoved, workspaceTransitionAction(&admin, nil))
	assert.Equal(t, models.AuditActionWorkspaceMemberUpgraded, workspaceTransitionAction(&member, &admin))
	assert.Equal(t, models.AuditActionWorkspaceMemberDowngraded, workspaceTransitionAction(&admin, &member))
}
