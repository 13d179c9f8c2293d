package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"rolebridge/core"
	dbtx "rolebridge/db/tx"
	"rolebridge/models"
)

type PostgresGithubCachesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for github_permission_cache table
var githubPermissionCacheColumns = []string{
	"id",
	"workspace_id",
	"github_repo_id",
	"github_user_id",
	"github_login",
	"permission",
	"updated_at",
}

// Column names for github_api_cache table
var githubAPICacheColumns = []string{
	"id",
	"workspace_id",
	"cache_key",
	"payload",
	"updated_at",
}

func NewPostgresGithubCachesRepository(db *sqlx.DB, schema string) *PostgresGithubCachesRepository {
	return &PostgresGithubCachesRepository{db: db, schema: schema}
}

// UpsertPermission records the last observed permission for a (repo, user)
// pair. Keyed by the natural key so concurrent runs never duplicate rows.
func (r *PostgresGithubCachesRepository) UpsertPermission(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	repoID int64,
	row models.GithubUserPermission,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	id := core.NewID("gpc")
	query := fmt.Sprintf(`
		INSERT INTO %s.github_permission_cache (
			id, workspace_id, github_repo_id, github_user_id, github_login, permission
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, github_repo_id, github_user_id)
		DO UPDATE SET
			github_login = EXCLUDED.github_login,
			permission = EXCLUDED.permission,
			updated_at = NOW()`, r.schema)

	_, err := db.ExecContext(
		ctx,
		query,
		id, workspaceID, repoID, row.GithubUserID, row.GithubLogin, row.Permission,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert permission cache row: %w", err)
	}

	return nil
}

func (r *PostgresGithubCachesRepository) GetPermissionsByRepoID(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	repoID int64,
) ([]models.GithubPermissionCacheEntry, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	columnsStr := strings.Join(githubPermissionCacheColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.github_permission_cache
		WHERE workspace_id = $1 AND github_repo_id = $2`, columnsStr, r.schema)

	entries := []models.GithubPermissionCacheEntry{}
	err := r.db.SelectContext(ctx, &entries, query, workspaceID, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get permission cache rows: %w", err)
	}

	return entries, nil
}

// GetAPICacheEntry returns the cached upstream response for a key, fresh or
// not. The TTL check belongs to the caller - a pure function of updated_at.
func (r *PostgresGithubCachesRepository) GetAPICacheEntry(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	cacheKey string,
) (mo.Option[*models.GithubAPICacheEntry], error) {
	if workspaceID == "" {
		return mo.None[*models.GithubAPICacheEntry](), fmt.Errorf("workspace ID cannot be empty")
	}
	if cacheKey == "" {
		return mo.None[*models.GithubAPICacheEntry](), fmt.Errorf("cache key cannot be empty")
	}

	columnsStr := strings.Join(githubAPICacheColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.github_api_cache
		WHERE workspace_id = $1 AND cache_key = $2`, columnsStr, r.schema)

	var entry models.GithubAPICacheEntry
	err := r.db.GetContext(ctx, &entry, query, workspaceID, cacheKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.GithubAPICacheEntry](), nil
		}
		return mo.None[*models.GithubAPICacheEntry](), fmt.Errorf("failed to get api cache entry: %w", err)
	}

	return mo.Some(&entry), nil
}

// UpsertAPICacheEntry overwrites the cached response for a key. Keyed by
// (workspace_id, cache_key) so concurrent refreshes converge on one row.
func (r *PostgresGithubCachesRepository) UpsertAPICacheEntry(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	cacheKey string,
	payload json.RawMessage,
) error {
	id := core.NewID("gac")
	query := fmt.Sprintf(`
		INSERT INTO %s.github_api_cache (id, workspace_id, cache_key, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, cache_key)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()`, r.schema)

	_, err := r.db.ExecContext(ctx, query, id, workspaceID, cacheKey, []byte(payload))
	if err != nil {
		return fmt.Errorf("failed to upsert api cache entry: %w", err)
	}

	return nil
}
