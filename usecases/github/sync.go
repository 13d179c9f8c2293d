package github

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"rolebridge/appctx"
	"rolebridge/clients"
	"rolebridge/core"
	"rolebridge/models"
)

// authorizeWorkspaceAdmin resolves the workspace by key and verifies the
// acting user holds a workspace-admin role in it. Authorization failures
// abort before any upstream I/O.
func (u *GithubUseCase) authorizeWorkspaceAdmin(
	ctx context.Context,
	workspaceKey string,
) (*models.Workspace, *models.User, error) {
	actor, ok := appctx.GetUser(ctx)
	if !ok {
		return nil, nil, fmt.Errorf("no acting user in context: %w", core.ErrUnauthorized)
	}

	maybeWorkspace, err := u.workspacesService.GetWorkspaceByKey(ctx, workspaceKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	workspace, ok := maybeWorkspace.Get()
	if !ok {
		return nil, nil, fmt.Errorf("workspace %s: %w", workspaceKey, core.ErrNotFound)
	}

	maybeRole, err := u.membersService.GetWorkspaceMemberRole(ctx, workspace.ID, actor.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get workspace member role: %w", err)
	}
	role, ok := maybeRole.Get()
	if !ok || !models.IsWorkspaceAdmin(role) {
		return nil, nil, fmt.Errorf("user %s is not an admin of workspace %s: %w", actor.ID, workspaceKey, core.ErrUnauthorized)
	}

	return workspace, actor, nil
}

// repoComputation holds one successfully computed repository view
type repoComputation struct {
	Link models.GithubRepoLink
	Rows []models.GithubUserPermission
}

// SyncGithubPermissions runs the direct sync engine for one workspace:
// compute permissions per target repository, match GitHub identities to
// internal users, diff against the project role store and converge it under
// the effective sync mode.
func (u *GithubUseCase) SyncGithubPermissions(
	ctx context.Context,
	workspaceKey string,
	opts models.GithubSyncOptions,
) (*models.GithubSyncReport, error) {
	log.Printf("📋 Starting to sync GitHub permissions for workspace: %s", workspaceKey)

	workspace, actor, err := u.authorizeWorkspaceAdmin(ctx, workspaceKey)
	if err != nil {
		return nil, err
	}

	maybeConnection, err := u.githubLinksService.GetGithubConnection(ctx, workspace.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub connection: %w", err)
	}
	connection, ok := maybeConnection.Get()
	if !ok {
		return nil, fmt.Errorf("workspace %s has no GitHub installation connected: %w", workspaceKey, core.ErrNotFound)
	}

	config, err := u.settingsService.GetGithubSyncConfig(ctx, workspace.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync config: %w", err)
	}
	mode := config.Mode
	if opts.ModeOverride != nil {
		mode = *opts.ModeOverride
	}

	token, err := u.permissionsService.IssueInstallationToken(ctx, connection.InstallationID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue installation token: %w", err)
	}

	links, err := u.githubLinksService.GetActiveLinkedRepoLinks(ctx, workspace.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get repo links: %w", err)
	}

	projectKeyByID, err := u.projectKeysForLinks(ctx, workspace.ID, links)
	if err != nil {
		return nil, err
	}
	links = filterRepoLinks(links, projectKeyByID, opts)

	report := &models.GithubSyncReport{
		WorkspaceKey: workspaceKey,
		Mode:         mode,
		DryRun:       opts.DryRun,
	}

	// Each repo is processed independently so one upstream failure cannot
	// abort the run or cause unrelated members to be removed
	var computations []repoComputation
	processedProjects := map[string]bool{}
	rateLimitWarnings := map[string]bool{}
	for i := range links {
		link := links[i]
		rows, err := u.permissionsService.ComputeRepoPermissions(ctx, token, &link, config.CacheTTL)
		if err != nil {
			log.Printf("⚠️ Failed to compute permissions for repo %s: %v", link.FullName, err)
			report.RepoErrors = append(report.RepoErrors, models.RepoSyncError{
				RepoFullName: link.FullName,
				Error:        err.Error(),
			})
			if errors.Is(err, clients.ErrGithubRateLimited) {
				rateLimitWarnings[fmt.Sprintf("rate limited while processing %s", link.FullName)] = true
			}
			continue
		}

		computations = append(computations, repoComputation{Link: link, Rows: rows})
		processedProjects[*link.LinkedProjectID] = true
		report.ReposProcessed++
	}
	for warning := range rateLimitWarnings {
		report.RateLimitWarnings = append(report.RateLimitWarnings, warning)
	}
	sort.Strings(report.RateLimitWarnings)

	userLinks, err := u.githubLinksService.GetGithubUserLinks(ctx, workspace.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub user links: %w", err)
	}
	matcher := newIdentityMatcher(userLinks)

	desired := map[projectMemberKey]models.ProjectRole{}
	matchedUsers := map[string]bool{}
	unmatched := newUnmatchedCollector()
	for _, computation := range computations {
		projectID := *computation.Link.LinkedProjectID
		for _, row := range computation.Rows {
			userID, ok := matcher.Match(row.GithubUserID, row.GithubLogin)
			if !ok {
				unmatched.Add(row.GithubUserID, row.GithubLogin)
				continue
			}
			matchedUsers[userID] = true

			key := projectMemberKey{ProjectID: projectID, UserID: userID}
			role := config.RoleMapping.ProjectRoleFor(row.Permission)
			if current, present := desired[key]; !present || models.CompareProjectRoles(role, current) > 0 {
				desired[key] = role
			}
		}
	}
	report.UsersMatched = len(matchedUsers)
	report.SkippedUnmatched = unmatched.Count()
	report.UnmatchedUsers = unmatched.Report()

	// Removal decisions only consider projects whose repo computation
	// succeeded this run
	projectIDs := make([]string, 0, len(processedProjects))
	for projectID := range processedProjects {
		projectIDs = append(projectIDs, projectID)
	}
	sort.Strings(projectIDs)

	existing, err := u.membersService.GetProjectMembersByProjectIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing project members: %w", err)
	}
	protectedUserIDs, err := u.membersService.GetProtectedUserIDs(ctx, workspace.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get protected user IDs: %w", err)
	}

	diff := classifyProjectOps(desired, existing, matcher.LinkedUserIDs(), protectedUserIDs, mode)
	report.Added = len(diff.ToAdd)
	report.Updated = len(diff.ToUpdate)
	report.Removed = len(diff.ToRemove)
	report.ProtectedSkipped = diff.ProtectedSkipped

	correlationID := uuid.NewString()

	if !opts.DryRun {
		err = u.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			for _, op := range diff.ToAdd {
				if err := u.membersService.UpsertProjectMember(txCtx, op.ProjectID, op.UserID, op.NewRole); err != nil {
					return err
				}
			}
			for _, op := range diff.ToUpdate {
				if err := u.membersService.UpsertProjectMember(txCtx, op.ProjectID, op.UserID, op.NewRole); err != nil {
					return err
				}
			}
			for _, op := range diff.ToRemove {
				if err := u.membersService.DeleteProjectMember(txCtx, op.ProjectID, op.UserID); err != nil {
					return err
				}
			}
			for _, computation := range computations {
				err := u.permissionsService.RecordPermissionObservations(
					txCtx, workspace.ID, computation.Link.GithubRepoID, computation.Rows)
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to apply sync changes: %w", err)
		}

		u.auditProjectDiff(ctx, workspace, actor.ID, projectKeyByID, diff, mode, opts.DryRun, correlationID)
	}

	u.auditService.Record(ctx, models.AuditRecord{
		WorkspaceID:   workspace.ID,
		ActorUserID:   &actor.ID,
		Action:        models.AuditActionPermissionsComputed,
		CorrelationID: &correlationID,
		Target: map[string]any{
			"source":            "github",
			"workspace_key":     workspaceKey,
			"mode":              mode,
			"dry_run":           opts.DryRun,
			"repos_processed":   report.ReposProcessed,
			"users_matched":     report.UsersMatched,
			"added":             report.Added,
			"updated":           report.Updated,
			"removed":           report.Removed,
			"skipped_unmatched": report.SkippedUnmatched,
			"protected_skipped": report.ProtectedSkipped,
			"unmatched_users":   report.UnmatchedUsers,
			"repo_errors":       report.RepoErrors,
		},
	})
	if !opts.DryRun {
		u.auditService.Record(ctx, models.AuditRecord{
			WorkspaceID:   workspace.ID,
			ActorUserID:   &actor.ID,
			Action:        models.AuditActionPermissionsApplied,
			CorrelationID: &correlationID,
			Target: map[string]any{
				"source":        "github",
				"workspace_key": workspaceKey,
				"mode":          mode,
				"added":         report.Added,
				"updated":       report.Updated,
				"removed":       report.Removed,
			},
		})
	}

	log.Printf("📋 Completed successfully - synced workspace %s: %d added, %d updated, %d removed",
		workspaceKey, report.Added, report.Updated, report.Removed)
	return report, nil
}

// projectKeysForLinks loads the project key for every linked project so
// filters and audit entries can reference keys instead of ids
func (u *GithubUseCase) projectKeysForLinks(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	links []models.GithubRepoLink,
) (map[string]string, error) {
	projectIDSet := map[string]bool{}
	for _, link := range links {
		if link.LinkedProjectID != nil {
			projectIDSet[*link.LinkedProjectID] = true
		}
	}
	projectIDs := make([]string, 0, len(projectIDSet))
	for projectID := range projectIDSet {
		projectIDs = append(projectIDs, projectID)
	}
	sort.Strings(projectIDs)

	projects, err := u.projectsService.GetProjectsByIDs(ctx, workspaceID, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get linked projects: %w", err)
	}

	keyByID := make(map[string]string, len(projects))
	for _, project := range projects {
		keyByID[project.ID] = project.Key
	}
	return keyByID, nil
}

// filterRepoLinks applies the caller's repo-name list and project-key-prefix
// restrictions. Links without a resolvable project are dropped.
func filterRepoLinks(
	links []models.GithubRepoLink,
	projectKeyByID map[string]string,
	opts models.GithubSyncOptions,
) []models.GithubRepoLink {
	repoFilter := map[string]bool{}
	for _, fullName := range opts.Repos {
		repoFilter[strings.ToLower(fullName)] = true
	}

	filtered := make([]models.GithubRepoLink, 0, len(links))
	for _, link := range links {
		if link.LinkedProjectID == nil {
			continue
		}
		projectKey, ok := projectKeyByID[*link.LinkedProjectID]
		if !ok {
			continue
		}
		if len(repoFilter) > 0 && !repoFilter[strings.ToLower(link.FullName)] {
			continue
		}
		if opts.ProjectKeyPrefix != "" && !strings.HasPrefix(projectKey, opts.ProjectKeyPrefix) {
			continue
		}
		filtered = append(filtered, link)
	}
	return filtered
}

// auditProjectDiff emits one audit entry per applied project membership
// change. Runs after the transaction commits so an audit outage can never
// roll back applied changes.
func (u *GithubUseCase) auditProjectDiff(
	ctx context.Context,
	workspace *models.Workspace,
	actorUserID string,
	projectKeyByID map[string]string,
	diff projectDiff,
	mode models.SyncMode,
	dryRun bool,
	correlationID string,
) {
	record := func(op projectOp, removed bool) {
		var newRole *models.ProjectRole
		if !removed {
			role := op.NewRole
			newRole = &role
		}

		target := map[string]any{
			"source":        "github",
			"user_id":       op.UserID,
			"workspace_key": workspace.Key,
			"project_key":   projectKeyByID[op.ProjectID],
			"old_role":      op.OldRole,
			"new_role":      newRole,
			"evidence":      map[string]any{"mode": mode, "dry_run": dryRun},
		}

		projectID := op.ProjectID
		u.auditService.Record(ctx, models.AuditRecord{
			WorkspaceID:   workspace.ID,
			ProjectID:     &projectID,
			ActorUserID:   &actorUserID,
			Action:        projectTransitionAction(op.OldRole, newRole),
			Target:        target,
			CorrelationID: &correlationID,
		})
	}

	for _, op := range diff.ToAdd {
		record(op, false)
	}
	for _, op := range diff.ToUpdate {
		record(op, false)
	}
	for _, op := range diff.ToRemove {
		record(op, true)
	}
}
