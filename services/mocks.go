package services

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"rolebridge/models"
)

// MockTransactionManager implements TransactionManager for testing
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if fn != nil {
		// Execute the function for testing
		return fn(ctx)
	}
	return args.Error(0)
}

func (m *MockTransactionManager) BeginTransaction(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *MockTransactionManager) CommitTransaction(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransactionManager) RollbackTransaction(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUsersService is a mock implementation of the UsersService interface
type MockUsersService struct {
	mock.Mock
}

func (m *MockUsersService) GetUserByAPIKey(ctx context.Context, apiKey string) (mo.Option[*models.User], error) {
	args := m.Called(ctx, apiKey)
	return args.Get(0).(mo.Option[*models.User]), args.Error(1)
}

func (m *MockUsersService) GetUserByID(ctx context.Context, id string) (mo.Option[*models.User], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.User]), args.Error(1)
}

// MockWorkspacesService is a mock implementation of the WorkspacesService interface
type MockWorkspacesService struct {
	mock.Mock
}

func (m *MockWorkspacesService) GetWorkspaceByKey(ctx context.Context, key string) (mo.Option[*models.Workspace], error) {
	args := m.Called(ctx, key)
	return args.Get(0).(mo.Option[*models.Workspace]), args.Error(1)
}

func (m *MockWorkspacesService) GetWorkspaceByID(ctx context.Context, id models.WorkspaceID) (mo.Option[*models.Workspace], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Workspace]), args.Error(1)
}

// MockProjectsService is a mock implementation of the ProjectsService interface
type MockProjectsService struct {
	mock.Mock
}

func (m *MockProjectsService) GetProjectByKey(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
) (mo.Option[*models.Project], error) {
	args := m.Called(ctx, workspaceID, key)
	return args.Get(0).(mo.Option[*models.Project]), args.Error(1)
}

func (m *MockProjectsService) GetProjectsByIDs(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	projectIDs []string,
) ([]models.Project, error) {
	args := m.Called(ctx, workspaceID, projectIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

// MockMembersService is a mock implementation of the MembersService interface
type MockMembersService struct {
	mock.Mock
}

func (m *MockMembersService) GetWorkspaceMembers(ctx context.Context, workspaceID models.WorkspaceID) ([]models.WorkspaceMember, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkspaceMember), args.Error(1)
}

func (m *MockMembersService) GetProtectedUserIDs(ctx context.Context, workspaceID models.WorkspaceID) (map[string]bool, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockMembersService) GetWorkspaceMemberRole(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	userID string,
) (mo.Option[models.WorkspaceRole], error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Get(0).(mo.Option[models.WorkspaceRole]), args.Error(1)
}

func (m *MockMembersService) UpsertWorkspaceMember(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	userID string,
	role models.WorkspaceRole,
) error {
	args := m.Called(ctx, workspaceID, userID, role)
	return args.Error(0)
}

func (m *MockMembersService) DeleteWorkspaceMember(ctx context.Context, workspaceID models.WorkspaceID, userID string) error {
	args := m.Called(ctx, workspaceID, userID)
	return args.Error(0)
}

func (m *MockMembersService) GetProjectMembersByProjectIDs(ctx context.Context, projectIDs []string) ([]models.ProjectMember, error) {
	args := m.Called(ctx, projectIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectMember), args.Error(1)
}

func (m *MockMembersService) UpsertProjectMember(ctx context.Context, projectID, userID string, role models.ProjectRole) error {
	args := m.Called(ctx, projectID, userID, role)
	return args.Error(0)
}

func (m *MockMembersService) DeleteProjectMember(ctx context.Context, projectID, userID string) error {
	args := m.Called(ctx, projectID, userID)
	return args.Error(0)
}

// MockGithubLinksService is a mock implementation of the GithubLinksService interface
type MockGithubLinksService struct {
	mock.Mock
}

func (m *MockGithubLinksService) GetGithubConnection(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) (mo.Option[*models.GithubConnection], error) {
	args := m.Called(ctx, workspaceID)
	return args.Get(0).(mo.Option[*models.GithubConnection]), args.Error(1)
}

func (m *MockGithubLinksService) GetActiveLinkedRepoLinks(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) ([]models.GithubRepoLink, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GithubRepoLink), args.Error(1)
}

func (m *MockGithubLinksService) GetRepoLinkByFullName(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	fullName string,
) (mo.Option[*models.GithubRepoLink], error) {
	args := m.Called(ctx, workspaceID, fullName)
	return args.Get(0).(mo.Option[*models.GithubRepoLink]), args.Error(1)
}

func (m *MockGithubLinksService) GetGithubUserLinks(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) ([]models.GithubUserLink, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GithubUserLink), args.Error(1)
}

func (m *MockGithubLinksService) GetEnabledTeamMappings(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	installationID string,
) ([]models.GithubTeamMapping, error) {
	args := m.Called(ctx, workspaceID, installationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GithubTeamMapping), args.Error(1)
}

// MockGithubPermissionsService is a mock implementation of the GithubPermissionsService interface
type MockGithubPermissionsService struct {
	mock.Mock
}

func (m *MockGithubPermissionsService) IssueInstallationToken(ctx context.Context, installationID string) (string, error) {
	args := m.Called(ctx, installationID)
	return args.String(0), args.Error(1)
}

func (m *MockGithubPermissionsService) ComputeRepoPermissions(
	ctx context.Context,
	token string,
	link *models.GithubRepoLink,
	cacheTTL time.Duration,
) ([]models.GithubUserPermission, error) {
	args := m.Called(ctx, token, link, cacheTTL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GithubUserPermission), args.Error(1)
}

func (m *MockGithubPermissionsService) FetchTeamMembers(
	ctx context.Context,
	token string,
	workspaceID models.WorkspaceID,
	orgLogin, teamSlug string,
	cacheTTL time.Duration,
) ([]models.GithubTeamMember, error) {
	args := m.Called(ctx, token, workspaceID, orgLogin, teamSlug, cacheTTL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GithubTeamMember), args.Error(1)
}

func (m *MockGithubPermissionsService) RecordPermissionObservations(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	repoID int64,
	rows []models.GithubUserPermission,
) error {
	args := m.Called(ctx, workspaceID, repoID, rows)
	return args.Error(0)
}

// MockSettingsService is a mock implementation of the SettingsService interface
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) GetGithubSyncConfig(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) (*models.GithubSyncConfig, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GithubSyncConfig), args.Error(1)
}

func (m *MockSettingsService) UpsertBooleanSetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value bool) error {
	args := m.Called(ctx, workspaceID, key, value)
	return args.Error(0)
}

func (m *MockSettingsService) UpsertStringSetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value string) error {
	args := m.Called(ctx, workspaceID, key, value)
	return args.Error(0)
}

func (m *MockSettingsService) UpsertStringArraySetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value []string) error {
	args := m.Called(ctx, workspaceID, key, value)
	return args.Error(0)
}

// MockAuditService is a mock implementation of the AuditService interface
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, record models.AuditRecord) {
	m.Called(ctx, record)
}
