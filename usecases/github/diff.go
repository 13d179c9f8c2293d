package github

import (
	"sort"

	"rolebridge/models"
	"rolebridge/utils"
)

// identityMatcher resolves GitHub identities to internal user ids via the
// workspace's GithubUserLink rows. Numeric GitHub user id matches first,
// normalized login is the fallback.
type identityMatcher struct {
	byGithubID map[int64]string
	byLogin    map[string]string
}

func newIdentityMatcher(links []models.GithubUserLink) *identityMatcher {
	m := &identityMatcher{
		byGithubID: make(map[int64]string, len(links)),
		byLogin:    make(map[string]string, len(links)),
	}
	for _, link := range links {
		if link.GithubUserID != nil {
			m.byGithubID[*link.GithubUserID] = link.UserID
		}
		m.byLogin[models.NormalizeGithubLogin(link.GithubLogin)] = link.UserID
	}
	return m
}

func (m *identityMatcher) Match(githubUserID int64, login string) (string, bool) {
	if userID, ok := m.byGithubID[githubUserID]; ok {
		return userID, true
	}
	userID, ok := m.byLogin[models.NormalizeGithubLogin(login)]
	return userID, ok
}

// LinkedUserIDs returns the set of internal user ids that have a GitHub
// identity link. Removal decisions never extend beyond this set.
func (m *identityMatcher) LinkedUserIDs() map[string]bool {
	linked := make(map[string]bool, len(m.byLogin))
	for _, userID := range m.byGithubID {
		linked[userID] = true
	}
	for _, userID := range m.byLogin {
		linked[userID] = true
	}
	return linked
}

// unmatchedCollector deduplicates unmatched GitHub identities across repos
// and teams and caps what a run report carries.
type unmatchedCollector struct {
	seen  map[int64]bool
	users []models.UnmatchedGithubUser
}

func newUnmatchedCollector() *unmatchedCollector {
	return &unmatchedCollector{seen: make(map[int64]bool)}
}

func (c *unmatchedCollector) Add(githubUserID int64, login string) {
	if c.seen[githubUserID] {
		return
	}
	c.seen[githubUserID] = true
	c.users = append(c.users, models.UnmatchedGithubUser{
		GithubUserID: githubUserID,
		GithubLogin:  login,
	})
}

func (c *unmatchedCollector) Count() int {
	return len(c.users)
}

// Report returns the collected identities capped to the report limit,
// ordered by GitHub user id for stable output.
func (c *unmatchedCollector) Report() []models.UnmatchedGithubUser {
	users := make([]models.UnmatchedGithubUser, len(c.users))
	copy(users, c.users)
	sort.Slice(users, func(i, j int) bool { return users[i].GithubUserID < users[j].GithubUserID })
	return utils.Truncate(users, models.MaxUnmatchedUsersReported)
}

// projectMemberKey identifies one project membership in a desired-state map
type projectMemberKey struct {
	ProjectID string
	UserID    string
}

// projectOp is one planned project membership write
type projectOp struct {
	ProjectID string
	UserID    string
	OldRole   *models.ProjectRole
	NewRole   models.ProjectRole
}

// projectDiff is the classified outcome of desired-vs-existing for project
// memberships: three operation lists computed fully before any transaction
// opens, plus the count of changes the protected guard excluded.
type projectDiff struct {
	ToAdd            []projectOp
	ToUpdate         []projectOp
	ToRemove         []projectOp
	ProtectedSkipped int
}

// classifyProjectOps diffs a desired role map against existing members.
//
// add_only is monotonic: adds and strictly-upward updates only.
// add_and_remove converges in both directions and removes linked users
// absent from the desired map, except that protected users are never
// downgraded or removed.
func classifyProjectOps(
	desired map[projectMemberKey]models.ProjectRole,
	existing []models.ProjectMember,
	linkedUserIDs map[string]bool,
	protectedUserIDs map[string]bool,
	mode models.SyncMode,
) projectDiff {
	var diff projectDiff

	existingByKey := make(map[projectMemberKey]models.ProjectMember, len(existing))
	for _, member := range existing {
		existingByKey[projectMemberKey{ProjectID: member.ProjectID, UserID: member.UserID}] = member
	}

	for key, desiredRole := range desired {
		current, present := existingByKey[key]
		if !present {
			diff.ToAdd = append(diff.ToAdd, projectOp{
				ProjectID: key.ProjectID,
				UserID:    key.UserID,
				NewRole:   desiredRole,
			})
			continue
		}

		cmp := models.CompareProjectRoles(desiredRole, current.Role)
		if cmp == 0 {
			continue
		}

		oldRole := current.Role
		op := projectOp{ProjectID: key.ProjectID, UserID: key.UserID, OldRole: &oldRole, NewRole: desiredRole}

		switch mode {
		case models.SyncModeAddOnly:
			if cmp > 0 {
				diff.ToUpdate = append(diff.ToUpdate, op)
			}
		case models.SyncModeAddAndRemove:
			// Protection wins over both upgrade and downgrade intents in
			// this mode
			if protectedUserIDs[key.UserID] {
				diff.ProtectedSkipped++
				continue
			}
			diff.ToUpdate = append(diff.ToUpdate, op)
		}
	}

	if mode == models.SyncModeAddAndRemove {
		for key, current := range existingByKey {
			if _, wanted := desired[key]; wanted {
				continue
			}
			if !linkedUserIDs[key.UserID] {
				continue
			}
			if protectedUserIDs[key.UserID] {
				diff.ProtectedSkipped++
				continue
			}
			oldRole := current.Role
			diff.ToRemove = append(diff.ToRemove, projectOp{
				ProjectID: key.ProjectID,
				UserID:    key.UserID,
				OldRole:   &oldRole,
			})
		}
	}

	sortProjectOps(diff.ToAdd)
	sortProjectOps(diff.ToUpdate)
	sortProjectOps(diff.ToRemove)
	return diff
}

func sortProjectOps(ops []projectOp) {
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].ProjectID != ops[j].ProjectID {
			return ops[i].ProjectID < ops[j].ProjectID
		}
		return ops[i].UserID < ops[j].UserID
	})
}

// workspaceOp is one planned workspace membership write
type workspaceOp struct {
	UserID  string
	OldRole *models.WorkspaceRole
	NewRole models.WorkspaceRole
}

// workspaceDiff mirrors projectDiff for workspace memberships. Workspace
// protection is unconditional: an existing OWNER/ADMIN is never downgraded
// or removed by any mode, because workspace admins are the root of trust.
type workspaceDiff struct {
	ToAdd            []workspaceOp
	ToUpdate         []workspaceOp
	ToRemove         []workspaceOp
	ProtectedSkipped int
}

func classifyWorkspaceOps(
	desired map[string]models.WorkspaceRole,
	existing []models.WorkspaceMember,
	linkedUserIDs map[string]bool,
	mode models.SyncMode,
) workspaceDiff {
	var diff workspaceDiff

	existingByUser := make(map[string]models.WorkspaceMember, len(existing))
	for _, member := range existing {
		existingByUser[member.UserID] = member
	}

	for userID, desiredRole := range desired {
		current, present := existingByUser[userID]
		if !present {
			diff.ToAdd = append(diff.ToAdd, workspaceOp{UserID: userID, NewRole: desiredRole})
			continue
		}

		cmp := models.CompareWorkspaceRoles(desiredRole, current.Role)
		if cmp == 0 {
			continue
		}

		oldRole := current.Role
		op := workspaceOp{UserID: userID, OldRole: &oldRole, NewRole: desiredRole}

		if cmp > 0 {
			diff.ToUpdate = append(diff.ToUpdate, op)
			continue
		}
		if mode != models.SyncModeAddAndRemove {
			continue
		}
		if models.IsWorkspaceAdmin(current.Role) {
			diff.ProtectedSkipped++
			continue
		}
		diff.ToUpdate = append(diff.ToUpdate, op)
	}

	if mode == models.SyncModeAddAndRemove {
		for userID, current := range existingByUser {
			if _, wanted := desired[userID]; wanted {
				continue
			}
			if !linkedUserIDs[userID] {
				continue
			}
			if models.IsWorkspaceAdmin(current.Role) {
				diff.ProtectedSkipped++
				continue
			}
			oldRole := current.Role
			diff.ToRemove = append(diff.ToRemove, workspaceOp{UserID: userID, OldRole: &oldRole})
		}
	}

	sort.Slice(diff.ToAdd, func(i, j int) bool { return diff.ToAdd[i].UserID < diff.ToAdd[j].UserID })
	sort.Slice(diff.ToUpdate, func(i, j int) bool { return diff.ToUpdate[i].UserID < diff.ToUpdate[j].UserID })
	sort.Slice(diff.ToRemove, func(i, j int) bool { return diff.ToRemove[i].UserID < diff.ToRemove[j].UserID })
	return diff
}

// projectTransitionAction resolves the audit action for a project
// membership change from its old-role to new-role transition
func projectTransitionAction(oldRole *models.ProjectRole, newRole *models.ProjectRole) string {
	switch {
	case oldRole == nil:
		return models.AuditActionProjectMemberAdded
	case newRole == nil:
		return models.AuditActionProjectMemberRemoved
	case models.CompareProjectRoles(*newRole, *oldRole) > 0:
		return models.AuditActionProjectMemberUpgraded
	default:
		return models.AuditActionProjectMemberDowngraded
	}
}

// workspaceTransitionAction resolves the audit action for a workspace
// membership change
func workspaceTransitionAction(oldRole *models.WorkspaceRole, newRole *models.WorkspaceRole) string {
	switch {
	case oldRole == nil:
		return models.AuditActionWorkspaceMemberAdded
	case newRole == nil:
		return models.AuditActionWorkspaceMemberRemoved
	case models.CompareWorkspaceRoles(*newRole, *oldRole) > 0:
		return models.AuditActionWorkspaceMemberUpgraded
	default:
		return models.AuditActionWorkspaceMemberDowngraded
	}
}
