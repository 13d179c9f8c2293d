package github

import (
	"context"
	"fmt"
	"log"
	"sort"

	"rolebridge/core"
	"rolebridge/models"
)

type teamKey struct {
	OrgLogin string
	TeamSlug string
}

// ApplyGithubTeamMappings runs the team mapping engine for one workspace,
// driven by a webhook or installation event. Every enabled mapping scoped
// to the installation grants its target role to the mapped team's matched
// members; diffs are applied with the same mode and protection rules as
// the direct sync.
func (u *GithubUseCase) ApplyGithubTeamMappings(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	installationID string,
	eventType string,
	correlationID string,
) (*models.TeamMappingReport, error) {
	log.Printf("📋 Starting to apply GitHub team mappings for workspace: %s (event: %s)", workspaceID, eventType)

	maybeWorkspace, err := u.workspacesService.GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	workspace, ok := maybeWorkspace.Get()
	if !ok {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, core.ErrNotFound)
	}

	config, err := u.settingsService.GetGithubSyncConfig(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync config: %w", err)
	}

	report := &models.TeamMappingReport{
		WorkspaceID: workspaceID,
		Mode:        config.Mode,
		Enabled:     config.TeamMappingEnabled,
	}
	if !config.TeamMappingEnabled {
		log.Printf("📋 Team mapping disabled for workspace %s, nothing to apply", workspaceID)
		return report, nil
	}

	mappings, err := u.githubLinksService.GetEnabledTeamMappings(ctx, workspaceID, installationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team mappings: %w", err)
	}
	if len(mappings) == 0 {
		return report, nil
	}

	token, err := u.permissionsService.IssueInstallationToken(ctx, installationID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue installation token: %w", err)
	}

	// Fetch each distinct team once, regardless of how many mappings share
	// it. A failed team contributes no members but never aborts the run.
	membersByTeam := map[teamKey][]models.GithubTeamMember{}
	failedTeams := map[teamKey]bool{}
	for _, mapping := range mappings {
		key := teamKey{
			OrgLogin: models.NormalizeGithubLogin(mapping.GithubOrgLogin),
			TeamSlug: models.NormalizeGithubLogin(mapping.GithubTeamSlug),
		}
		if _, fetched := membersByTeam[key]; fetched || failedTeams[key] {
			continue
		}

		teamMembers, err := u.permissionsService.FetchTeamMembers(
			ctx, token, workspaceID, key.OrgLogin, key.TeamSlug, config.CacheTTL)
		if err != nil {
			log.Printf("⚠️ Failed to fetch members of team %s/%s: %v", key.OrgLogin, key.TeamSlug, err)
			failedTeams[key] = true
			report.TeamErrors = append(report.TeamErrors, models.TeamFetchError{
				OrgLogin: key.OrgLogin,
				TeamSlug: key.TeamSlug,
				Error:    err.Error(),
			})
			continue
		}
		membersByTeam[key] = teamMembers
	}

	projectIDByKey, projectKeyByID := u.resolveMappingTargets(ctx, workspaceID, mappings, report)

	userLinks, err := u.githubLinksService.GetGithubUserLinks(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub user links: %w", err)
	}
	matcher := newIdentityMatcher(userLinks)

	desiredWorkspace := map[string]models.WorkspaceRole{}
	desiredProject := map[projectMemberKey]models.ProjectRole{}
	targetedProjects := map[string]bool{}
	unmatched := newUnmatchedCollector()

	for _, mapping := range mappings {
		key := teamKey{
			OrgLogin: models.NormalizeGithubLogin(mapping.GithubOrgLogin),
			TeamSlug: models.NormalizeGithubLogin(mapping.GithubTeamSlug),
		}
		teamMembers, fetched := membersByTeam[key]
		if !fetched {
			continue
		}

		switch mapping.TargetType {
		case models.TeamMappingTargetWorkspace:
			role := models.WorkspaceRole(mapping.Role)
			if !models.IsValidWorkspaceRole(role) {
				report.TargetErrors = append(report.TargetErrors, models.TargetResolutionError{
					MappingID: mapping.ID,
					TargetKey: mapping.TargetKey,
					Error:     fmt.Sprintf("invalid workspace role %q", mapping.Role),
				})
				continue
			}
			for _, member := range teamMembers {
				userID, ok := matcher.Match(member.ID, member.Login)
				if !ok {
					unmatched.Add(member.ID, member.Login)
					continue
				}
				if current, present := desiredWorkspace[userID]; !present ||
					models.CompareWorkspaceRoles(role, current) > 0 {
					desiredWorkspace[userID] = role
				}
			}

		case models.TeamMappingTargetProject:
			projectID, resolved := projectIDByKey[mapping.TargetKey]
			if !resolved {
				continue
			}
			role := models.ProjectRole(mapping.Role)
			if !models.IsValidProjectRole(role) {
				report.TargetErrors = append(report.TargetErrors, models.TargetResolutionError{
					MappingID: mapping.ID,
					TargetKey: mapping.TargetKey,
					Error:     fmt.Sprintf("invalid project role %q", mapping.Role),
				})
				continue
			}
			targetedProjects[projectID] = true
			for _, member := range teamMembers {
				userID, ok := matcher.Match(member.ID, member.Login)
				if !ok {
					unmatched.Add(member.ID, member.Login)
					continue
				}
				key := projectMemberKey{ProjectID: projectID, UserID: userID}
				if current, present := desiredProject[key]; !present ||
					models.CompareProjectRoles(role, current) > 0 {
					desiredProject[key] = role
				}
			}
		}
	}
	report.MappingsApplied = len(mappings)
	report.SkippedUnmatched = unmatched.Count()
	report.UnmatchedUsers = unmatched.Report()

	linkedUserIDs := matcher.LinkedUserIDs()

	existingWorkspaceMembers, err := u.membersService.GetWorkspaceMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace members: %w", err)
	}
	wsDiff := classifyWorkspaceOps(desiredWorkspace, existingWorkspaceMembers, linkedUserIDs, config.Mode)

	// Project removal scope is restricted to the projects this run's
	// mappings actually target, so unrelated memberships are never touched
	projectIDs := make([]string, 0, len(targetedProjects))
	for projectID := range targetedProjects {
		projectIDs = append(projectIDs, projectID)
	}
	sort.Strings(projectIDs)

	existingProjectMembers, err := u.membersService.GetProjectMembersByProjectIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get project members: %w", err)
	}
	protectedUserIDs, err := u.membersService.GetProtectedUserIDs(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get protected user IDs: %w", err)
	}
	projDiff := classifyProjectOps(desiredProject, existingProjectMembers, linkedUserIDs, protectedUserIDs, config.Mode)

	report.WorkspaceAdded = len(wsDiff.ToAdd)
	report.WorkspaceUpdated = len(wsDiff.ToUpdate)
	report.WorkspaceRemoved = len(wsDiff.ToRemove)
	report.ProjectAdded = len(projDiff.ToAdd)
	report.ProjectUpdated = len(projDiff.ToUpdate)
	report.ProjectRemoved = len(projDiff.ToRemove)
	report.ProtectedSkipped = wsDiff.ProtectedSkipped + projDiff.ProtectedSkipped

	err = u.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, op := range wsDiff.ToAdd {
			if err := u.membersService.UpsertWorkspaceMember(txCtx, workspaceID, op.UserID, op.NewRole); err != nil {
				return err
			}
		}
		for _, op := range wsDiff.ToUpdate {
			if err := u.membersService.UpsertWorkspaceMember(txCtx, workspaceID, op.UserID, op.NewRole); err != nil {
				return err
			}
		}
		for _, op := range wsDiff.ToRemove {
			if err := u.membersService.DeleteWorkspaceMember(txCtx, workspaceID, op.UserID); err != nil {
				return err
			}
		}
		for _, op := range projDiff.ToAdd {
			if err := u.membersService.UpsertProjectMember(txCtx, op.ProjectID, op.UserID, op.NewRole); err != nil {
				return err
			}
		}
		for _, op := range projDiff.ToUpdate {
			if err := u.membersService.UpsertProjectMember(txCtx, op.ProjectID, op.UserID, op.NewRole); err != nil {
				return err
			}
		}
		for _, op := range projDiff.ToRemove {
			if err := u.membersService.DeleteProjectMember(txCtx, op.ProjectID, op.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply team mapping changes: %w", err)
	}

	u.auditWorkspaceDiff(ctx, workspace, wsDiff, config.Mode, eventType, correlationID)
	u.auditProjectDiffFromMappings(ctx, workspace, projectKeyByID, projDiff, config.Mode, eventType, correlationID)

	u.auditService.Record(ctx, models.AuditRecord{
		WorkspaceID:   workspaceID,
		Action:        models.AuditActionTeamMappingsApplied,
		CorrelationID: optionalString(correlationID),
		Target: map[string]any{
			"source":            "github",
			"workspace_key":     workspace.Key,
			"event_type":        eventType,
			"mode":              config.Mode,
			"mappings_applied":  report.MappingsApplied,
			"workspace_added":   report.WorkspaceAdded,
			"workspace_updated": report.WorkspaceUpdated,
			"workspace_removed": report.WorkspaceRemoved,
			"project_added":     report.ProjectAdded,
			"project_updated":   report.ProjectUpdated,
			"project_removed":   report.ProjectRemoved,
			"skipped_unmatched": report.SkippedUnmatched,
			"protected_skipped": report.ProtectedSkipped,
			"unmatched_users":   report.UnmatchedUsers,
			"team_errors":       report.TeamErrors,
			"target_errors":     report.TargetErrors,
		},
	})

	log.Printf("📋 Completed successfully - applied team mappings for workspace %s: ws %d/%d/%d, proj %d/%d/%d",
		workspaceID,
		report.WorkspaceAdded, report.WorkspaceUpdated, report.WorkspaceRemoved,
		report.ProjectAdded, report.ProjectUpdated, report.ProjectRemoved)
	return report, nil
}

// resolveMappingTargets resolves project target keys to project ids.
// Unresolved keys are recorded on the report and their mappings are skipped.
func (u *GithubUseCase) resolveMappingTargets(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	mappings []models.GithubTeamMapping,
	report *models.TeamMappingReport,
) (map[string]string, map[string]string) {
	projectIDByKey := map[string]string{}
	projectKeyByID := map[string]string{}

	for _, mapping := range mappings {
		if mapping.TargetType != models.TeamMappingTargetProject {
			continue
		}
		if _, done := projectIDByKey[mapping.TargetKey]; done {
			continue
		}

		maybeProject, err := u.projectsService.GetProjectByKey(ctx, workspaceID, mapping.TargetKey)
		if err != nil {
			report.TargetErrors = append(report.TargetErrors, models.TargetResolutionError{
				MappingID: mapping.ID,
				TargetKey: mapping.TargetKey,
				Error:     err.Error(),
			})
			continue
		}
		project, ok := maybeProject.Get()
		if !ok {
			report.TargetErrors = append(report.TargetErrors, models.TargetResolutionError{
				MappingID: mapping.ID,
				TargetKey: mapping.TargetKey,
				Error:     "project not found",
			})
			continue
		}

		projectIDByKey[mapping.TargetKey] = project.ID
		projectKeyByID[project.ID] = project.Key
	}

	return projectIDByKey, projectKeyByID
}

func (u *GithubUseCase) auditWorkspaceDiff(
	ctx context.Context,
	workspace *models.Workspace,
	diff workspaceDiff,
	mode models.SyncMode,
	eventType string,
	correlationID string,
) {
	record := func(op workspaceOp, removed bool) {
		var newRole *models.WorkspaceRole
		if !removed {
			role := op.NewRole
			newRole = &role
		}

		u.auditService.Record(ctx, models.AuditRecord{
			WorkspaceID:   workspace.ID,
			Action:        workspaceTransitionAction(op.OldRole, newRole),
			CorrelationID: optionalString(correlationID),
			Target: map[string]any{
				"source":        "github",
				"user_id":       op.UserID,
				"workspace_key": workspace.Key,
				"old_role":      op.OldRole,
				"new_role":      newRole,
				"evidence":      map[string]any{"mode": mode, "event_type": eventType},
			},
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

func (u *GithubUseCase) auditProjectDiffFromMappings(
	ctx context.Context,
	workspace *models.Workspace,
	projectKeyByID map[string]string,
	diff projectDiff,
	mode models.SyncMode,
	eventType string,
	correlationID string,
) {
	record := func(op projectOp, removed bool) {
		var newRole *models.ProjectRole
		if !removed {
			role := op.NewRole
			newRole = &role
		}

		projectID := op.ProjectID
		u.auditService.Record(ctx, models.AuditRecord{
			WorkspaceID:   workspace.ID,
			ProjectID:     &projectID,
			Action:        projectTransitionAction(op.OldRole, newRole),
			CorrelationID: optionalString(correlationID),
			Target: map[string]any{
				"source":        "github",
				"user_id":       op.UserID,
				"workspace_key": workspace.Key,
				"project_key":   projectKeyByID[op.ProjectID],
				"old_role":      op.OldRole,
				"new_role":      newRole,
				"evidence":      map[string]any{"mode": mode, "event_type": eventType},
			},
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

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
