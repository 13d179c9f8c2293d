package members

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"rolebridge/db"
	"rolebridge/models"
)

// MembersService is the canonical role store for both workspace and project
// scopes. Outside of manual admin action, sync engine applies are the only
// writers.
type MembersService struct {
	workspaceMembersRepo *db.PostgresWorkspaceMembersRepository
	projectMembersRepo   *db.PostgresProjectMembersRepository
}

func NewMembersService(
	workspaceMembersRepo *db.PostgresWorkspaceMembersRepository,
	projectMembersRepo *db.PostgresProjectMembersRepository,
) *MembersService {
	return &MembersService{
		workspaceMembersRepo: workspaceMembersRepo,
		projectMembersRepo:   projectMembersRepo,
	}
}

func (s *MembersService) GetWorkspaceMembers(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) ([]models.WorkspaceMember, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	members, err := s.workspaceMembersRepo.GetWorkspaceMembersByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace members: %w", err)
	}

	return members, nil
}

// GetProtectedUserIDs returns the ids of workspace OWNER/ADMIN users.
// These users are never downgraded or removed by a sync run.
func (s *MembersService) GetProtectedUserIDs(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) (map[string]bool, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	admins, err := s.workspaceMembersRepo.GetWorkspaceMembersWithRoles(
		ctx,
		workspaceID,
		[]models.WorkspaceRole{models.WorkspaceRoleOwner, models.WorkspaceRoleAdmin},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get protected users: %w", err)
	}

	protected := make(map[string]bool, len(admins))
	for _, member := range admins {
		protected[member.UserID] = true
	}

	return protected, nil
}

func (s *MembersService) GetWorkspaceMemberRole(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	userID string,
) (mo.Option[models.WorkspaceRole], error) {
	if workspaceID == "" {
		return mo.None[models.WorkspaceRole](), fmt.Errorf("workspace ID cannot be empty")
	}
	if userID == "" {
		return mo.None[models.WorkspaceRole](), fmt.Errorf("user ID cannot be empty")
	}

	members, err := s.workspaceMembersRepo.GetWorkspaceMembersByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return mo.None[models.WorkspaceRole](), fmt.Errorf("failed to get workspace members: %w", err)
	}

	for _, member := range members {
		if member.UserID == userID {
			return mo.Some(member.Role), nil
		}
	}

	return mo.None[models.WorkspaceRole](), nil
}

func (s *MembersService) UpsertWorkspaceMember(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	userID string,
	role models.WorkspaceRole,
) error {
	if workspaceID == "" {
		return fmt.Errorf("workspace ID cannot be empty")
	}
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if !models.IsValidWorkspaceRole(role) {
		return fmt.Errorf("invalid workspace role: %q", role)
	}

	if _, err := s.workspaceMembersRepo.UpsertWorkspaceMember(ctx, workspaceID, userID, role); err != nil {
		return fmt.Errorf("failed to upsert workspace member: %w", err)
	}

	log.Printf("📋 Upserted workspace member %s with role %s", userID, role)
	return nil
}

func (s *MembersService) DeleteWorkspaceMember(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	userID string,
) error {
	if workspaceID == "" {
		return fmt.Errorf("workspace ID cannot be empty")
	}
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	if err := s.workspaceMembersRepo.DeleteWorkspaceMember(ctx, workspaceID, userID); err != nil {
		return fmt.Errorf("failed to delete workspace member: %w", err)
	}

	log.Printf("📋 Deleted workspace member %s", userID)
	return nil
}

func (s *MembersService) GetProjectMembersByProjectIDs(
	ctx context.Context,
	projectIDs []string,
) ([]models.ProjectMember, error) {
	members, err := s.projectMembersRepo.GetProjectMembersByProjectIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get project members: %w", err)
	}

	return members, nil
}

func (s *MembersService) UpsertProjectMember(
	ctx context.Context,
	projectID, userID string,
	role models.ProjectRole,
) error {
	if projectID == "" {
		return fmt.Errorf("project ID cannot be empty")
	}
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if !models.IsValidProjectRole(role) {
		return fmt.Errorf("invalid project role: %q", role)
	}

	if _, err := s.projectMembersRepo.UpsertProjectMember(ctx, projectID, userID, role); err != nil {
		return fmt.Errorf("failed to upsert project member: %w", err)
	}

	log.Printf("📋 Upserted project member %s on project %s with role %s", userID, projectID, role)
	return nil
}

func (s *MembersService) DeleteProjectMember(
	ctx context.Context,
	projectID, userID string,
) error {
	if projectID == "" {
		return fmt.Errorf("project ID cannot be empty")
	}
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	if err := s.projectMembersRepo.DeleteProjectMember(ctx, projectID, userID); err != nil {
		return fmt.Errorf("failed to delete project member: %w", err)
	}

	log.Printf("📋 Deleted project member %s from project %s", userID, projectID)
	return nil
}
