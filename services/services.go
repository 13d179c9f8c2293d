package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"rolebridge/models"
)

// TransactionManager defines the interface for managing database transactions
type TransactionManager interface {
	// WithTransaction executes fn within a transaction, committing on nil
	// error and rolling back otherwise
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}

// UsersService defines the interface for user-related operations
type UsersService interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (mo.Option[*models.User], error)
	GetUserByID(ctx context.Context, id string) (mo.Option[*models.User], error)
}

// WorkspacesService defines the interface for workspace lookups
type WorkspacesService interface {
	GetWorkspaceByKey(ctx context.Context, key string) (mo.Option[*models.Workspace], error)
	GetWorkspaceByID(ctx context.Context, id models.WorkspaceID) (mo.Option[*models.Workspace], error)
}

// ProjectsService defines the interface for project lookups
type ProjectsService interface {
	GetProjectByKey(ctx context.Context, workspaceID models.WorkspaceID, key string) (mo.Option[*models.Project], error)
	GetProjectsByIDs(ctx context.Context, workspaceID models.WorkspaceID, projectIDs []string) ([]models.Project, error)
}

// MembersService defines the canonical role store operations for both
// workspace and project scopes. Write methods participate in a
// context-carried transaction when one is present.
type MembersService interface {
	GetWorkspaceMembers(ctx context.Context, workspaceID models.WorkspaceID) ([]models.WorkspaceMember, error)
	// GetProtectedUserIDs returns the ids of workspace OWNER/ADMIN users,
	// the set exempt from automatic downgrade and removal
	GetProtectedUserIDs(ctx context.Context, workspaceID models.WorkspaceID) (map[string]bool, error)
	GetWorkspaceMemberRole(
		ctx context.Context,
		workspaceID models.WorkspaceID,
		userID string,
	) (mo.Option[models.WorkspaceRole], error)
	UpsertWorkspaceMember(
		ctx context.Context,
		workspaceID models.WorkspaceID,
		userID string,
		role models.WorkspaceRole,
	) error
	DeleteWorkspaceMember(ctx context.Context, workspaceID models.WorkspaceID, userID string) error

	GetProjectMembersByProjectIDs(ctx context.Context, projectIDs []string) ([]models.ProjectMember, error)
	UpsertProjectMember(ctx context.Context, projectID, userID string, role models.ProjectRole) error
	DeleteProjectMember(ctx context.Context, projectID, userID string) error
}

// GithubLinksService defines lookups over the GitHub binding tables:
// repo links, user links, team mappings and the App connection
type GithubLinksService interface {
	GetGithubConnection(ctx context.Context, workspaceID models.WorkspaceID) (mo.Option[*models.GithubConnection], error)
	GetActiveLinkedRepoLinks(ctx context.Context, workspaceID models.WorkspaceID) ([]models.GithubRepoLink, error)
	GetRepoLinkByFullName(
		ctx context.Context,
		workspaceID models.WorkspaceID,
		fullName string,
	) (mo.Option[*models.GithubRepoLink], error)
	GetGithubUserLinks(ctx context.Context, workspaceID models.WorkspaceID) ([]models.GithubUserLink, error)
	GetEnabledTeamMappings(
		ctx context.Context,
		workspaceID models.WorkspaceID,
		installationID string,
	) ([]models.GithubTeamMapping, error)
}

// GithubPermissionsService defines the upstream-facing half of a sync run:
// token exchange, cached fetches and per-repository permission computation
type GithubPermissionsService interface {
	IssueInstallationToken(ctx context.Context, installationID string) (string, error)
	// ComputeRepoPermissions merges direct collaborators (always live) with
	// every linked team's members (cached) into one
	// highest-permission-per-user view
	ComputeRepoPermissions(
		ctx context.Context,
		token string,
		link *models.GithubRepoLink,
		cacheTTL time.Duration,
	) ([]models.GithubUserPermission, error)
	// FetchTeamMembers returns an org team's members through the TTL cache
	FetchTeamMembers(
		ctx context.Context,
		token string,
		workspaceID models.WorkspaceID,
		orgLogin, teamSlug string,
		cacheTTL time.Duration,
	) ([]models.GithubTeamMember, error)
	// RecordPermissionObservations upserts the informational permission
	// cache rows for a repository's computed view
	RecordPermissionObservations(
		ctx context.Context,
		workspaceID models.WorkspaceID,
		repoID int64,
		rows []models.GithubUserPermission,
	) error
}

// SettingsService defines the workspace settings provider consumed by the
// sync engines
type SettingsService interface {
	// GetGithubSyncConfig assembles the effective, fully defaulted sync
	// configuration for one workspace
	GetGithubSyncConfig(ctx context.Context, workspaceID models.WorkspaceID) (*models.GithubSyncConfig, error)
	UpsertBooleanSetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value bool) error
	UpsertStringSetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value string) error
	UpsertStringArraySetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value []string) error
}

// AuditService records history entries. Recording is fire-and-forget:
// failures are logged and never propagate, so an audit outage can never
// roll back a role-store transaction.
type AuditService interface {
	Record(ctx context.Context, record models.AuditRecord)
}
