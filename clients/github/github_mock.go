package github

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rolebridge/models"
)

// MockGitHubClient is a mock implementation of the clients.GitHubClient interface
type MockGitHubClient struct {
	mock.Mock
}

func (m *MockGitHubClient) IssueInstallationToken(ctx context.Context, installationID string) (string, error) {
	args := m.Called(ctx, installationID)
	return args.String(0), args.Error(1)
}

func (m *MockGitHubClient) ListRepositoryCollaborators(
	ctx context.Context,
	token, owner, repo string,
) ([]models.GithubCollaborator, error) {
	args := m.Called(ctx, token, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GithubCollaborator), args.Error(1)
}

func (m *MockGitHubClient) ListRepositoryTeams(
	ctx context.Context,
	token, owner, repo string,
) ([]models.GithubRepoTeam, error) {
	args := m.Called(ctx, token, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GithubRepoTeam), args.Error(1)
}

func (m *MockGitHubClient) ListTeamMembers(
	ctx context.Context,
	token, orgLogin, teamSlug string,
) ([]models.GithubTeamMember, error) {
	args := m.Called(ctx, token, orgLogin, teamSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GithubTeamMember), args.Error(1)
}
