package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"rolebridge/core"
	dbtx "rolebridge/db/tx"
	"rolebridge/models"
)

type PostgresWorkspaceMembersRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for workspace_members table
var workspaceMembersColumns = []string{
	"id",
	"workspace_id",
	"user_id",
	"role",
	"created_at",
	"updated_at",
}

func NewPostgresWorkspaceMembersRepository(db *sqlx.DB, schema string) *PostgresWorkspaceMembersRepository {
	return &PostgresWorkspaceMembersRepository{db: db, schema: schema}
}

func (r *PostgresWorkspaceMembersRepository) GetWorkspaceMembersByWorkspaceID(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) ([]models.WorkspaceMember, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(workspaceMembersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.workspace_members
		WHERE workspace_id = $1`, columnsStr, r.schema)

	members := []models.WorkspaceMember{}
	err := db.SelectContext(ctx, &members, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace members: %w", err)
	}

	return members, nil
}

// GetWorkspaceMembersWithRoles returns the members of a workspace holding
// one of the given roles. Used to load the protected set (OWNER/ADMIN).
func (r *PostgresWorkspaceMembersRepository) GetWorkspaceMembersWithRoles(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	roles []models.WorkspaceRole,
) ([]models.WorkspaceMember, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}
	if len(roles) == 0 {
		return []models.WorkspaceMember{}, nil
	}

	db := dbtx.GetTransactional(ctx, r.db)

	roleStrs := make([]string, len(roles))
	for i, role := range roles {
		roleStrs[i] = string(role)
	}

	columnsStr := strings.Join(workspaceMembersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.workspace_members
		WHERE workspace_id = $1 AND role = ANY($2)`, columnsStr, r.schema)

	members := []models.WorkspaceMember{}
	err := db.SelectContext(ctx, &members, query, workspaceID, pq.Array(roleStrs))
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace members with roles: %w", err)
	}

	return members, nil
}

// UpsertWorkspaceMember inserts a member or updates their role in place.
// Keyed by (workspace_id, user_id) so repeated applies stay idempotent.
func (r *PostgresWorkspaceMembersRepository) UpsertWorkspaceMember(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	userID string,
	role models.WorkspaceRole,
) (*models.WorkspaceMember, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	id := core.NewID("wsm")
	columnsStr := strings.Join(workspaceMembersColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.workspace_members (id, workspace_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, user_id)
		DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = NOW()
		RETURNING %s`, r.schema, columnsStr)

	var member models.WorkspaceMember
	err := db.QueryRowxContext(ctx, query, id, workspaceID, userID, role).StructScan(&member)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert workspace member: %w", err)
	}

	return &member, nil
}

func (r *PostgresWorkspaceMembersRepository) DeleteWorkspaceMember(
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

	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		DELETE FROM %s.workspace_members
		WHERE workspace_id = $1 AND user_id = $2`, r.schema)

	if _, err := db.ExecContext(ctx, query, workspaceID, userID); err != nil {
		return fmt.Errorf("failed to delete workspace member: %w", err)
	}

	return nil
}
