package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"rolebridge/core"
	"rolebridge/models"
)

type PostgresGithubLinksRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for github_repo_links table
var githubRepoLinksColumns = []string{
	"id",
	"workspace_id",
	"github_repo_id",
	"full_name",
	"linked_project_id",
	"is_active",
	"created_at",
	"updated_at",
}

// Column names for github_user_links table
var githubUserLinksColumns = []string{
	"id",
	"workspace_id",
	"user_id",
	"github_login",
	"github_user_id",
	"created_at",
	"updated_at",
}

// Column names for github_connections table
var githubConnectionsColumns = []string{
	"id",
	"workspace_id",
	"installation_id",
	"created_at",
	"updated_at",
}

func NewPostgresGithubLinksRepository(db *sqlx.DB, schema string) *PostgresGithubLinksRepository {
	return &PostgresGithubLinksRepository{db: db, schema: schema}
}

// GetActiveLinkedRepoLinks returns the sync targets of a workspace: active
// repo links bound to a project.
func (r *PostgresGithubLinksRepository) GetActiveLinkedRepoLinks(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) ([]models.GithubRepoLink, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	columnsStr := strings.Join(githubRepoLinksColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.github_repo_links
		WHERE workspace_id = $1 AND is_active = TRUE AND linked_project_id IS NOT NULL
		ORDER BY full_name`, columnsStr, r.schema)

	links := []models.GithubRepoLink{}
	err := r.db.SelectContext(ctx, &links, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active repo links: %w", err)
	}

	return links, nil
}

func (r *PostgresGithubLinksRepository) GetRepoLinkByFullName(
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

	columnsStr := strings.Join(githubRepoLinksColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.github_repo_links
		WHERE workspace_id = $1 AND full_name = $2`, columnsStr, r.schema)

	var link models.GithubRepoLink
	err := r.db.GetContext(ctx, &link, query, workspaceID, fullName)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.GithubRepoLink](), nil
		}
		return mo.None[*models.GithubRepoLink](), fmt.Errorf("failed to get repo link: %w", err)
	}

	return mo.Some(&link), nil
}

// UpsertRepoLink records a discovered repository, keyed by the repo's
// numeric GitHub id within the workspace.
func (r *PostgresGithubLinksRepository) UpsertRepoLink(
	ctx context.Context,
	link *models.GithubRepoLink,
) error {
	id := core.NewID("grl")
	columnsStr := strings.Join(githubRepoLinksColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.github_repo_links (id, workspace_id, github_repo_id, full_name, linked_project_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, github_repo_id)
		DO UPDATE SET
			full_name = EXCLUDED.full_name,
			linked_project_id = EXCLUDED.linked_project_id,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING %s`, r.schema, columnsStr)

	err := r.db.QueryRowxContext(
		ctx,
		query,
		id, link.WorkspaceID, link.GithubRepoID, link.FullName, link.LinkedProjectID, link.IsActive,
	).StructScan(link)
	if err != nil {
		return fmt.Errorf("failed to upsert repo link: %w", err)
	}

	return nil
}

func (r *PostgresGithubLinksRepository) GetGithubUserLinksByWorkspaceID(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) ([]models.GithubUserLink, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	columnsStr := strings.Join(githubUserLinksColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.github_user_links
		WHERE workspace_id = $1`, columnsStr, r.schema)

	links := []models.GithubUserLink{}
	err := r.db.SelectContext(ctx, &links, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get github user links: %w", err)
	}

	return links, nil
}

func (r *PostgresGithubLinksRepository) CreateGithubUserLink(
	ctx context.Context,
	link *models.GithubUserLink,
) error {
	id := core.NewID("gul")
	columnsStr := strings.Join(githubUserLinksColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.github_user_links (id, workspace_id, user_id, github_login, github_user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, r.schema, columnsStr)

	err := r.db.QueryRowxContext(
		ctx,
		query,
		id, link.WorkspaceID, link.UserID, models.NormalizeGithubLogin(link.GithubLogin), link.GithubUserID,
	).StructScan(link)
	if err != nil {
		return fmt.Errorf("failed to create github user link: %w", err)
	}

	return nil
}

func (r *PostgresGithubLinksRepository) DeleteGithubUserLink(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	linkID string,
) error {
	if workspaceID == "" {
		return fmt.Errorf("workspace ID cannot be empty")
	}
	if linkID == "" {
		return fmt.Errorf("link ID cannot be empty")
	}

	query := fmt.Sprintf(`
		DELETE FROM %s.github_user_links
		WHERE id = $1 AND workspace_id = $2`, r.schema)

	result, err := r.db.ExecContext(ctx, query, linkID, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to delete github user link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("github user link not found")
	}

	return nil
}

func (r *PostgresGithubLinksRepository) GetGithubConnectionByWorkspaceID(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) (mo.Option[*models.GithubConnection], error) {
	if workspaceID == "" {
		return mo.None[*models.GithubConnection](), fmt.Errorf("workspace ID cannot be empty")
	}

	columnsStr := strings.Join(githubConnectionsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.github_connections
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, columnsStr, r.schema)

	var connection models.GithubConnection
	err := r.db.GetContext(ctx, &connection, query, workspaceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.GithubConnection](), nil
		}
		return mo.None[*models.GithubConnection](), fmt.Errorf("failed to get github connection: %w", err)
	}

	return mo.Some(&connection), nil
}

func (r *PostgresGithubLinksRepository) CreateGithubConnection(
	ctx context.Context,
	connection *models.GithubConnection,
) error {
	id := core.NewID("ghc")
	columnsStr := strings.Join(githubConnectionsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.github_connections (id, workspace_id, installation_id)
		VALUES ($1, $2, $3)
		RETURNING %s`, r.schema, columnsStr)

	err := r.db.QueryRowxContext(ctx, query, id, connection.WorkspaceID, connection.InstallationID).
		StructScan(connection)
	if err != nil {
		return fmt.Errorf("failed to create github connection: %w", err)
	}

	return nil
}
