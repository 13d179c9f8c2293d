package workspaces

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"rolebridge/db"
	"rolebridge/models"
)

type WorkspacesService struct {
	workspacesRepo *db.PostgresWorkspacesRepository
}

func NewWorkspacesService(repo *db.PostgresWorkspacesRepository) *WorkspacesService {
	return &WorkspacesService{workspacesRepo: repo}
}

func (s *WorkspacesService) GetWorkspaceByKey(
	ctx context.Context,
	key string,
) (mo.Option[*models.Workspace], error) {
	log.Printf("📋 Starting to get workspace by key: %s", key)

	if key == "" {
		return mo.None[*models.Workspace](), fmt.Errorf("workspace key cannot be empty")
	}

	workspace, err := s.workspacesRepo.GetWorkspaceByKey(ctx, key)
	if err != nil {
		return mo.None[*models.Workspace](), fmt.Errorf("failed to get workspace: %w", err)
	}

	if workspace.IsPresent() {
		log.Printf("📋 Completed successfully - found workspace: %s", key)
	} else {
		log.Printf("📋 Completed successfully - workspace not found: %s", key)
	}

	return workspace, nil
}

func (s *WorkspacesService) GetWorkspaceByID(
	ctx context.Context,
	id models.WorkspaceID,
) (mo.Option[*models.Workspace], error) {
	if id == "" {
		return mo.None[*models.Workspace](), fmt.Errorf("workspace ID cannot be empty")
	}

	workspace, err := s.workspacesRepo.GetWorkspaceByID(ctx, id)
	if err != nil {
		return mo.None[*models.Workspace](), fmt.Errorf("failed to get workspace: %w", err)
	}

	return workspace, nil
}
