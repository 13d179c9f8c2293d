package projects

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"rolebridge/db"
	"rolebridge/models"
)

type ProjectsService struct {
	projectsRepo *db.PostgresProjectsRepository
}

func NewProjectsService(repo *db.PostgresProjectsRepository) *ProjectsService {
	return &ProjectsService{projectsRepo: repo}
}

func (s *ProjectsService) GetProjectByKey(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
) (mo.Option[*models.Project], error) {
	if workspaceID == "" {
		return mo.None[*models.Project](), fmt.Errorf("workspace ID cannot be empty")
	}
	if key == "" {
		return mo.None[*models.Project](), fmt.Errorf("project key cannot be empty")
	}

	project, err := s.projectsRepo.GetProjectByKey(ctx, workspaceID, key)
	if err != nil {
		return mo.None[*models.Project](), fmt.Errorf("failed to get project by key: %w", err)
	}

	return project, nil
}

func (s *ProjectsService) GetProjectsByIDs(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	projectIDs []string,
) ([]models.Project, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	projects, err := s.projectsRepo.GetProjectsByIDs(ctx, workspaceID, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects by IDs: %w", err)
	}

	return projects, nil
}
