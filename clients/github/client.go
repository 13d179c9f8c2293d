package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rolebridge/clients"
	"rolebridge/models"
)

const (
	apiBaseURL = "https://api.github.com"
	perPage    = 100
)

// GitHubClient implements the clients.GitHubClient interface against the
// live GitHub REST API, authenticating as a GitHub App
type GitHubClient struct {
	httpClient *http.Client
	jwtSigner  *appJWTSigner
}

// NewGitHubClient creates a new GitHub App client from the App id and its
// PEM-encoded RSA private key
func NewGitHubClient(appID string, privateKey []byte) (clients.GitHubClient, error) {
	jwtSigner, err := newAppJWTSigner(appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT signer: %w", err)
	}

	return &GitHubClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		jwtSigner:  jwtSigner,
	}, nil
}

// IssueInstallationToken exchanges the App JWT for a short-lived
// installation access token
func (c *GitHubClient) IssueInstallationToken(ctx context.Context, installationID string) (string, error) {
	if installationID == "" {
		return "", fmt.Errorf("installation ID cannot be empty")
	}

	jwtToken, err := c.jwtSigner.getToken()
	if err != nil {
		return "", fmt.Errorf("failed to get app JWT: %w", err)
	}

	url := fmt.Sprintf("%s/app/installations/%s/access_tokens", apiBaseURL, installationID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	setAPIHeaders(req, jwtToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to issue installation token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", apiError(resp, "failed to issue installation token")
	}

	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode installation token: %w", err)
	}
	if tokenResp.Token == "" {
		return "", fmt.Errorf("no token in installation token response")
	}

	return tokenResp.Token, nil
}

// collaboratorPayload covers the two shapes GitHub uses to report a
// collaborator's permission: a role_name string and a permissions map
type collaboratorPayload struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	RoleName    string `json:"role_name"`
	Permissions struct {
		Admin    bool `json:"admin"`
		Maintain bool `json:"maintain"`
		Push     bool `json:"push"`
		Triage   bool `json:"triage"`
		Pull     bool `json:"pull"`
	} `json:"permissions"`
}

func (p collaboratorPayload) permission() models.GithubPermission {
	if p.RoleName != "" {
		return models.NormalizeGithubPermission(p.RoleName)
	}
	switch {
	case p.Permissions.Admin:
		return models.GithubPermissionAdmin
	case p.Permissions.Maintain:
		return models.GithubPermissionMaintain
	case p.Permissions.Push:
		return models.GithubPermissionWrite
	case p.Permissions.Triage:
		return models.GithubPermissionTriage
	default:
		return models.GithubPermissionRead
	}
}

// ListRepositoryCollaborators returns the direct collaborators of a
// repository with their effective permissions
func (c *GitHubClient) ListRepositoryCollaborators(
	ctx context.Context,
	token, owner, repo string,
) ([]models.GithubCollaborator, error) {
	collaborators := []models.GithubCollaborator{}

	for page := 1; ; page++ {
		url := fmt.Sprintf(
			"%s/repos/%s/%s/collaborators?affiliation=direct&per_page=%d&page=%d",
			apiBaseURL, owner, repo, perPage, page,
		)

		var pagePayload []collaboratorPayload
		if err := c.getJSON(ctx, token, url, &pagePayload); err != nil {
			return nil, fmt.Errorf("failed to list collaborators for %s/%s: %w", owner, repo, err)
		}

		for _, item := range pagePayload {
			collaborators = append(collaborators, models.GithubCollaborator{
				ID:         item.ID,
				Login:      item.Login,
				Permission: item.permission(),
			})
		}

		if len(pagePayload) < perPage {
			return collaborators, nil
		}
	}
}

// ListRepositoryTeams returns the org teams granted access to a repository
func (c *GitHubClient) ListRepositoryTeams(
	ctx context.Context,
	token, owner, repo string,
) ([]models.GithubRepoTeam, error) {
	teams := []models.GithubRepoTeam{}

	for page := 1; ; page++ {
		url := fmt.Sprintf(
			"%s/repos/%s/%s/teams?per_page=%d&page=%d",
			apiBaseURL, owner, repo, perPage, page,
		)

		var pagePayload []struct {
			ID           int64  `json:"id"`
			Slug         string `json:"slug"`
			Permission   string `json:"permission"`
			Organization struct {
				Login string `json:"login"`
			} `json:"organization"`
		}
		if err := c.getJSON(ctx, token, url, &pagePayload); err != nil {
			return nil, fmt.Errorf("failed to list teams for %s/%s: %w", owner, repo, err)
		}

		for _, item := range pagePayload {
			orgLogin := item.Organization.Login
			if orgLogin == "" {
				// Repo teams always belong to the org owning the repo
				orgLogin = owner
			}
			teams = append(teams, models.GithubRepoTeam{
				ID:         item.ID,
				Slug:       item.Slug,
				OrgLogin:   orgLogin,
				Permission: models.NormalizeGithubPermission(item.Permission),
			})
		}

		if len(pagePayload) < perPage {
			return teams, nil
		}
	}
}

// ListTeamMembers returns the members of an org team
func (c *GitHubClient) ListTeamMembers(
	ctx context.Context,
	token, orgLogin, teamSlug string,
) ([]models.GithubTeamMember, error) {
	members := []models.GithubTeamMember{}

	for page := 1; ; page++ {
		url := fmt.Sprintf(
			"%s/orgs/%s/teams/%s/members?per_page=%d&page=%d",
			apiBaseURL, orgLogin, teamSlug, perPage, page,
		)

		var pagePayload []struct {
			ID    int64  `json:"id"`
			Login string `json:"login"`
		}
		if err := c.getJSON(ctx, token, url, &pagePayload); err != nil {
			return nil, fmt.Errorf("failed to list members for team %s/%s: %w", orgLogin, teamSlug, err)
		}

		for _, item := range pagePayload {
			members = append(members, models.GithubTeamMember{
				ID:    item.ID,
				Login: item.Login,
			})
		}

		if len(pagePayload) < perPage {
			return members, nil
		}
	}
}

func (c *GitHubClient) getJSON(ctx context.Context, token, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	setAPIHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp, "GitHub API error")
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func setAPIHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}

func apiError(resp *http.Response, msg string) error {
	body, _ := io.ReadAll(resp.Body)

	if isRateLimited(resp) {
		return fmt.Errorf("%s: status %d: %w", msg, resp.StatusCode, clients.ErrGithubRateLimited)
	}

	return fmt.Errorf("%s: status %d, body: %s", msg, resp.StatusCode, string(body))
}

func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return resp.Header.Get("X-RateLimit-Remaining") == "0" ||
		resp.Header.Get("Retry-After") != ""
}
