package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/mo"

	"rolebridge/models"
)

type PostgresProjectsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for projects table
var projectsColumns = []string{
	"id",
	"key",
	"name",
	"workspace_id",
	"created_at",
	"updated_at",
}

func NewPostgresProjectsRepository(db *sqlx.DB, schema string) *PostgresProjectsRepository {
	return &PostgresProjectsRepository{db: db, schema: schema}
}

func (r *PostgresProjectsRepository) GetProjectByKey(
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

	columnsStr := strings.Join(projectsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.projects
		WHERE workspace_id = $1 AND key = $2`, columnsStr, r.schema)

	var project models.Project
	err := r.db.GetContext(ctx, &project, query, workspaceID, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Project](), nil
		}
		return mo.None[*models.Project](), fmt.Errorf("failed to get project by key: %w", err)
	}

	return mo.Some(&project), nil
}

func (r *PostgresProjectsRepository) GetProjectsByIDs(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	projectIDs []string,
) ([]models.Project, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}
	if len(projectIDs) == 0 {
		return []models.Project{}, nil
	}

	columnsStr := strings.Join(projectsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.projects
		WHERE workspace_id = $1 AND id = ANY($2)`, columnsStr, r.schema)

	projects := []models.Project{}
	err := r.db.SelectContext(ctx, &projects, query, workspaceID, pq.Array(projectIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get projects by IDs: %w", err)
	}

	return projects, nil
}

func (r *PostgresProjectsRepository) CreateProject(
	ctx context.Context,
	project *models.Project,
) error {
	columnsStr := strings.Join(projectsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.projects (id, key, name, workspace_id)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, r.schema, columnsStr)

	err := r.db.QueryRowxContext(ctx, query, project.ID, project.Key, project.Name, project.WorkspaceID).
		StructScan(project)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}
