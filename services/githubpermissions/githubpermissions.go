package githubpermissions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"rolebridge/clients"
	"rolebridge/models"
)

// CacheStore is the persistence surface the service needs: the TTL cache
// over upstream responses plus the informational permission observations.
// Implemented by db.PostgresGithubCachesRepository.
type CacheStore interface {
	GetAPICacheEntry(
		ctx context.Context,
		workspaceID models.WorkspaceID,
		cacheKey string,
	) (mo.Option[*models.GithubAPICacheEntry], error)
	UpsertAPICacheEntry(
		ctx context.Context,
		workspaceID models.WorkspaceID,
		cacheKey string,
		payload json.RawMessage,
	) error
	UpsertPermission(
		ctx context.Context,
		workspaceID models.WorkspaceID,
		repoID int64,
		row models.GithubUserPermission,
	) error
}

const (
	// DefaultCacheTTL is used when a workspace has no explicit TTL setting
	DefaultCacheTTL = 900 * time.Second
	MinCacheTTL     = 30 * time.Second
	MaxCacheTTL     = 86400 * time.Second
)

// ClampCacheTTL bounds a configured TTL to the supported window
func ClampCacheTTL(ttl time.Duration) time.Duration {
	if ttl < MinCacheTTL {
		return MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		return MaxCacheTTL
	}
	return ttl
}

// GithubPermissionsService owns the upstream-facing half of a sync run:
// installation token exchange, the TTL cache over rate-limit-sensitive
// GitHub responses, and per-repository permission computation.
type GithubPermissionsService struct {
	githubClient clients.GitHubClient
	cachesRepo   CacheStore
	now          func() time.Time
}

func NewGithubPermissionsService(
	githubClient clients.GitHubClient,
	cachesRepo CacheStore,
) *GithubPermissionsService {
	return &GithubPermissionsService{
		githubClient: githubClient,
		cachesRepo:   cachesRepo,
		now:          time.Now,
	}
}

func (s *GithubPermissionsService) IssueInstallationToken(
	ctx context.Context,
	installationID string,
) (string, error) {
	if installationID == "" {
		return "", fmt.Errorf("installation ID cannot be empty")
	}

	token, err := s.githubClient.IssueInstallationToken(ctx, installationID)
	if err != nil {
		return "", fmt.Errorf("failed to issue installation token: %w", err)
	}

	return token, nil
}

func repoTeamsCacheKey(repoID int64) string {
	return fmt.Sprintf("repo_teams/%d", repoID)
}

func teamMembersCacheKey(orgLogin, teamSlug string) string {
	return fmt.Sprintf("team_members/%s/%s", orgLogin, teamSlug)
}

// getOrRefresh returns the cached payload for key if it is within ttl,
// otherwise calls fetch, stores the result (even when empty) and returns it.
// A fetch failure propagates without touching the existing cache row, so a
// later call inside the TTL window can still serve the stale-but-present
// data once the upstream recovers.
func getOrRefresh[T any](
	ctx context.Context,
	s *GithubPermissionsService,
	workspaceID models.WorkspaceID,
	key string,
	ttl time.Duration,
	fetch func() ([]T, error),
) ([]T, error) {
	cached, err := s.cachesRepo.GetAPICacheEntry(ctx, workspaceID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	if entry, ok := cached.Get(); ok && entry.IsFresh(s.now(), ttl) {
		var payload []T
		if err := json.Unmarshal(entry.Payload, &payload); err == nil {
			return payload, nil
		}
		// Undecodable rows are treated as a miss and overwritten below
		log.Printf("⚠️ Discarding undecodable cache entry %s", key)
	}

	payload, err := fetch()
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache payload %s: %w", key, err)
	}
	if err := s.cachesRepo.UpsertAPICacheEntry(ctx, workspaceID, key, raw); err != nil {
		return nil, fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}

	return payload, nil
}

// FetchRepoTeams returns a repository's teams through the TTL cache
func (s *GithubPermissionsService) FetchRepoTeams(
	ctx context.Context,
	token string,
	link *models.GithubRepoLink,
	cacheTTL time.Duration,
) ([]models.GithubRepoTeam, error) {
	return getOrRefresh(ctx, s, link.WorkspaceID, repoTeamsCacheKey(link.GithubRepoID), cacheTTL,
		func() ([]models.GithubRepoTeam, error) {
			return s.githubClient.ListRepositoryTeams(ctx, token, link.Owner(), link.Name())
		})
}

// FetchTeamMembers returns an org team's members through the TTL cache.
// Team member lists are the larger, more rate-limit-sensitive call.
func (s *GithubPermissionsService) FetchTeamMembers(
	ctx context.Context,
	token string,
	workspaceID models.WorkspaceID,
	orgLogin, teamSlug string,
	cacheTTL time.Duration,
) ([]models.GithubTeamMember, error) {
	if orgLogin == "" || teamSlug == "" {
		return nil, fmt.Errorf("org login and team slug cannot be empty")
	}

	return getOrRefresh(ctx, s, workspaceID, teamMembersCacheKey(orgLogin, teamSlug), cacheTTL,
		func() ([]models.GithubTeamMember, error) {
			return s.githubClient.ListTeamMembers(ctx, token, orgLogin, teamSlug)
		})
}

// ComputeRepoPermissions computes the highest-permission-per-user view of
// one repository: direct collaborators (always fetched live - the list is
// small and changes frequently) merged with every linked team's members
// (fetched through the TTL cache). The result has no side effects - the
// caller decides whether to persist observations.
func (s *GithubPermissionsService) ComputeRepoPermissions(
	ctx context.Context,
	token string,
	link *models.GithubRepoLink,
	cacheTTL time.Duration,
) ([]models.GithubUserPermission, error) {
	log.Printf("📋 Starting to compute permissions for repo: %s", link.FullName)

	collaborators, err := s.githubClient.ListRepositoryCollaborators(ctx, token, link.Owner(), link.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}

	type seenUser struct {
		login      string
		permission models.GithubPermission
	}
	merged := map[int64]*seenUser{}

	for _, collab := range collaborators {
		merged[collab.ID] = &seenUser{
			login:      models.NormalizeGithubLogin(collab.Login),
			permission: collab.Permission,
		}
	}

	teams, err := s.FetchRepoTeams(ctx, token, link, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repo teams: %w", err)
	}

	for _, team := range teams {
		teamMembers, err := s.FetchTeamMembers(ctx, token, link.WorkspaceID, team.OrgLogin, team.Slug, cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch members of team %s/%s: %w", team.OrgLogin, team.Slug, err)
		}

		for _, member := range teamMembers {
			if existing, ok := merged[member.ID]; ok {
				existing.permission = models.MaxGithubPermission(existing.permission, team.Permission)
				continue
			}
			merged[member.ID] = &seenUser{
				login:      models.NormalizeGithubLogin(member.Login),
				permission: team.Permission,
			}
		}
	}

	rows := make([]models.GithubUserPermission, 0, len(merged))
	for githubUserID, user := range merged {
		rows = append(rows, models.GithubUserPermission{
			GithubUserID: githubUserID,
			GithubLogin:  user.login,
			Permission:   user.permission,
		})
	}

	log.Printf("📋 Completed successfully - computed %d permission rows for %s", len(rows), link.FullName)
	return rows, nil
}

// RecordPermissionObservations upserts the informational permission cache
// rows for a repository's computed view
func (s *GithubPermissionsService) RecordPermissionObservations(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	repoID int64,
	rows []models.GithubUserPermission,
) error {
	for _, row := range rows {
		if err := s.cachesRepo.UpsertPermission(ctx, workspaceID, repoID, row); err != nil {
			return fmt.Errorf("failed to record permission observation: %w", err)
		}
	}
	return nil
}
