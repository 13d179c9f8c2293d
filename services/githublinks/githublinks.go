package githublinks

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"rolebridge/db"
	"rolebridge/models"
)

// GithubLinksService exposes the GitHub binding tables: the App connection,
// repo links, user links and team mappings
type GithubLinksService struct {
	linksRepo    *db.PostgresGithubLinksRepository
	mappingsRepo *db.PostgresGithubTeamMappingsRepository
}

func NewGithubLinksService(
	linksRepo *db.PostgresGithubLinksRepository,
	mappingsRepo *db.PostgresGithubTeamMappingsRepository,
) *GithubLinksService {
	return &GithubLinksService{
		linksRepo:    linksRepo,
		mappingsRepo: mappingsRepo,
	}
}

func (s *GithubLinksService) GetGithubConnection(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) (mo.Option[*models.GithubConnection], error) {
	if workspaceID == "" {
		return mo.None[*models.GithubConnection](), fmt.Errorf("workspace ID cannot be empty")
	}

	connection, err := s.linksRepo.GetGithubConnectionByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return mo.None[*models.GithubConnection](), fmt.Errorf("failed to get github connection: %w", err)
	}

	return connection, nil
}

func (s *GithubLinksService) GetActiveLinkedRepoLinks(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) ([]models.GithubRepoLink, error) {
	log.Printf("📋 Starting to get active repo links for workspace: %s", workspaceID)

	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	links, err := s.linksRepo.GetActiveLinkedRepoLinks(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active repo links: %w", err)
	}

	log.Printf("📋 Completed successfully - found %d active repo links", len(links))
	return links, nil
}

func (s *GithubLinksService) GetRepoLinkByFullName(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	fullName string,
) (mo.Option[*models.GithubRepoLink], error) {
	if workspaceID == "" {
		return mo.None[*models.GithubRepoLink](), fmt.Errorf("workspace ID cannot be empty")
	}
	if fullName == "" {
		return mo.None[*models.GithubRepoLink](), fmt.Errorf("repo full name cannot be empty")
	}

	link, err := s.linksRepo.GetRepoLinkByFullName(ctx, workspaceID, fullName)
	if err != nil {
		return mo.None[*models.GithubRepoLink](), fmt.Errorf("failed to get repo link: %w", err)
	}

	return link, nil
}

func (s *GithubLinksService) GetGithubUserLinks(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) ([]models.GithubUserLink, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	links, err := s.linksRepo.GetGithubUserLinksByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get github user links: %w", err)
	}

	return links, nil
}

func (s *GithubLinksService) GetEnabledTeamMappings(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	installationID string,
) ([]models.GithubTeamMapping, error) {
	log.Printf("📋 Starting to get enabled team mappings for workspace: %s", workspaceID)

	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	mappings, err := s.mappingsRepo.GetEnabledTeamMappings(ctx, workspaceID, installationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled team mappings: %w", err)
	}

	log.Printf("📋 Completed successfully - found %d enabled team mappings", len(mappings))
	return mappings, nil
}
