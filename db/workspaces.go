package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	"rolebridge/models"
)

type PostgresWorkspacesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for workspaces table
var workspacesColumns = []string{
	"id",
	"key",
	"name",
	"created_at",
	"updated_at",
}

func NewPostgresWorkspacesRepository(db *sqlx.DB, schema string) *PostgresWorkspacesRepository {
	return &PostgresWorkspacesRepository{db: db, schema: schema}
}

func (r *PostgresWorkspacesRepository) GetWorkspaceByKey(
	ctx context.Context,
	key string,
) (mo.Option[*models.Workspace], error) {
	if key == "" {
		return mo.None[*models.Workspace](), fmt.Errorf("workspace key cannot be empty")
	}

	columnsStr := strings.Join(workspacesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.workspaces
		WHERE key = $1`, columnsStr, r.schema)

	var workspace models.Workspace
	err := r.db.GetContext(ctx, &workspace, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Workspace](), nil
		}
		return mo.None[*models.Workspace](), fmt.Errorf("failed to get workspace by key: %w", err)
	}

	return mo.Some(&workspace), nil
}

func (r *PostgresWorkspacesRepository) GetWorkspaceByID(
	ctx context.Context,
	id models.WorkspaceID,
) (mo.Option[*models.Workspace], error) {
	if id == "" {
		return mo.None[*models.Workspace](), fmt.Errorf("workspace ID cannot be empty")
	}

	columnsStr := strings.Join(workspacesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.workspaces
		WHERE id = $1`, columnsStr, r.schema)

	var workspace models.Workspace
	err := r.db.GetContext(ctx, &workspace, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Workspace](), nil
		}
		return mo.None[*models.Workspace](), fmt.Errorf("failed to get workspace by ID: %w", err)
	}

	return mo.Some(&workspace), nil
}

func (r *PostgresWorkspacesRepository) CreateWorkspace(
	ctx context.Context,
	workspace *models.Workspace,
) error {
	columnsStr := strings.Join(workspacesColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.workspaces (id, key, name)
		VALUES ($1, $2, $3)
		RETURNING %s`, r.schema, columnsStr)

	err := r.db.QueryRowxContext(ctx, query, workspace.ID, workspace.Key, workspace.Name).
		StructScan(workspace)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	return nil
}
