package github

import (
	"context"
	"fmt"
	"log"
	"sort"

	"rolebridge/core"
	"rolebridge/models"
)

// GetGithubPermissionPreview computes the permission view for a single
// repository and returns the rows with their mapped roles and identity
// matches, without touching the role store. Admin "what would happen"
// inspection.
func (u *GithubUseCase) GetGithubPermissionPreview(
	ctx context.Context,
	workspaceKey string,
	repoFullName string,
) (*models.GithubPermissionPreview, error) {
	log.Printf("📋 Starting to preview GitHub permissions for repo: %s", repoFullName)

	workspace, _, err := u.authorizeWorkspaceAdmin(ctx, workspaceKey)
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

	maybeLink, err := u.githubLinksService.GetRepoLinkByFullName(ctx, workspace.ID, repoFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to get repo link: %w", err)
	}
	link, ok := maybeLink.Get()
	if !ok || !link.IsActive || link.LinkedProjectID == nil {
		return nil, fmt.Errorf("repo %s is not linked to a project: %w", repoFullName, core.ErrNotFound)
	}

	maybeProject, err := u.projectsService.GetProjectsByIDs(ctx, workspace.ID, []string{*link.LinkedProjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to get linked project: %w", err)
	}
	if len(maybeProject) == 0 {
		return nil, fmt.Errorf("linked project for repo %s: %w", repoFullName, core.ErrNotFound)
	}
	project := maybeProject[0]

	config, err := u.settingsService.GetGithubSyncConfig(ctx, workspace.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync config: %w", err)
	}

	token, err := u.permissionsService.IssueInstallationToken(ctx, connection.InstallationID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue installation token: %w", err)
	}

	computed, err := u.permissionsService.ComputeRepoPermissions(ctx, token, link, config.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to compute permissions for repo %s: %w", repoFullName, err)
	}

	userLinks, err := u.githubLinksService.GetGithubUserLinks(ctx, workspace.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub user links: %w", err)
	}
	matcher := newIdentityMatcher(userLinks)

	rows := make([]models.PermissionPreviewRow, 0, len(computed))
	for _, row := range computed {
		previewRow := models.PermissionPreviewRow{
			GithubUserID: row.GithubUserID,
			GithubLogin:  row.GithubLogin,
			Permission:   row.Permission,
			MappedRole:   config.RoleMapping.ProjectRoleFor(row.Permission),
		}
		if userID, ok := matcher.Match(row.GithubUserID, row.GithubLogin); ok {
			previewRow.UserID = &userID
			previewRow.Matched = true
		}
		rows = append(rows, previewRow)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].GithubUserID < rows[j].GithubUserID })

	log.Printf("📋 Completed successfully - previewed %d rows for repo %s", len(rows), repoFullName)
	return &models.GithubPermissionPreview{
		RepoFullName: link.FullName,
		ProjectKey:   project.Key,
		Rows:         rows,
	}, nil
}
