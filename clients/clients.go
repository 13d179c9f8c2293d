package clients

import (
	"context"
	"errors"

	"rolebridge/models"
)

// ErrGithubRateLimited marks upstream failures caused by GitHub's rate
// limiter. Engines surface these as per-repo warnings rather than aborting
// a run.
var ErrGithubRateLimited = errors.New("github rate limit exceeded")

// GitHubClient defines the GitHub App API operations the sync engines
// consume. Implementations authenticate as the App and exchange installation
// access tokens on behalf of callers.
type GitHubClient interface {
	// IssueInstallationToken exchanges the App JWT for a short-lived
	// installation access token
	IssueInstallationToken(ctx context.Context, installationID string) (string, error)

	// ListRepositoryCollaborators returns the direct collaborators of a
	// repository with their effective permissions
	ListRepositoryCollaborators(ctx context.Context, token, owner, repo string) ([]models.GithubCollaborator, error)

	// ListRepositoryTeams returns the org teams granted access to a
	// repository
	ListRepositoryTeams(ctx context.Context, token, owner, repo string) ([]models.GithubRepoTeam, error)

	// ListTeamMembers returns the members of an org team
	ListTeamMembers(ctx context.Context, token, orgLogin, teamSlug string) ([]models.GithubTeamMember, error)
}
