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

type PostgresProjectMembersRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for project_members table
var projectMembersColumns = []string{
	"id",
	"project_id",
	"user_id",
	"role",
	"created_at",
	"updated_at",
}

func NewPostgresProjectMembersRepository(db *sqlx.DB, schema string) *PostgresProjectMembersRepository {
	return &PostgresProjectMembersRepository{db: db, schema: schema}
}

func (r *PostgresProjectMembersRepository) GetProjectMembersByProjectIDs(
	ctx context.Context,
	projectIDs []string,
) ([]models.ProjectMember, error) {
	if len(projectIDs) == 0 {
		return []models.ProjectMember{}, nil
	}

	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(projectMembersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.project_members
		WHERE project_id = ANY($1)`, columnsStr, r.schema)

	members := []models.ProjectMember{}
	err := db.SelectContext(ctx, &members, query, pq.Array(projectIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get project members: %w", err)
	}

	return members, nil
}

// UpsertProjectMember inserts a member or updates their role in place.
// Keyed by (project_id, user_id) so repeated applies stay idempotent.
func (r *PostgresProjectMembersRepository) UpsertProjectMember(
	ctx context.Context,
	projectID, userID string,
	role models.ProjectRole,
) (*models.ProjectMember, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	id := core.NewID("pm")
	columnsStr := strings.Join(projectMembersColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.project_members (id, project_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id)
		DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = NOW()
		RETURNING %s`, r.schema, columnsStr)

	var member models.ProjectMember
	err := db.QueryRowxContext(ctx, query, id, projectID, userID, role).StructScan(&member)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert project member: %w", err)
	}

	return &member, nil
}

func (r *PostgresProjectMembersRepository) DeleteProjectMember(
	ctx context.Context,
	projectID, userID string,
) error {
	if projectID == "" {
		return fmt.Errorf("project ID cannot be empty")
	}
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		DELETE FROM %s.project_members
		WHERE project_id = $1 AND user_id = $2`, r.schema)

	if _, err := db.ExecContext(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("failed to delete project member: %w", err)
	}

	return nil
}
