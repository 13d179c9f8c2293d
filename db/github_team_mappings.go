package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"rolebridge/core"
	"rolebridge/models"
)

type PostgresGithubTeamMappingsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for github_team_mappings table
var githubTeamMappingsColumns = []string{
	"id",
	"workspace_id",
	"github_org_login",
	"github_team_slug",
	"target_type",
	"target_key",
	"role",
	"priority",
	"enabled",
	"provider_installation_id",
	"created_at",
	"updated_at",
}

func NewPostgresGithubTeamMappingsRepository(db *sqlx.DB, schema string) *PostgresGithubTeamMappingsRepository {
	return &PostgresGithubTeamMappingsRepository{db: db, schema: schema}
}

// GetEnabledTeamMappings returns the enabled mappings of a workspace scoped
// to the given installation, plus installation-agnostic ones, ordered by
// priority then creation time.
func (r *PostgresGithubTeamMappingsRepository) GetEnabledTeamMappings(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	installationID string,
) ([]models.GithubTeamMapping, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	columnsStr := strings.Join(githubTeamMappingsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.github_team_mappings
		WHERE workspace_id = $1
		  AND enabled = TRUE
		  AND (provider_installation_id IS NULL OR provider_installation_id = $2)
		ORDER BY priority, created_at`, columnsStr, r.schema)

	mappings := []models.GithubTeamMapping{}
	err := r.db.SelectContext(ctx, &mappings, query, workspaceID, installationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled team mappings: %w", err)
	}

	return mappings, nil
}

func (r *PostgresGithubTeamMappingsRepository) CreateTeamMapping(
	ctx context.Context,
	mapping *models.GithubTeamMapping,
) error {
	id := core.NewID("gtm")
	columnsStr := strings.Join(githubTeamMappingsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.github_team_mappings (
			id, workspace_id, github_org_login, github_team_slug,
			target_type, target_key, role, priority, enabled, provider_installation_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`, r.schema, columnsStr)

	err := r.db.QueryRowxContext(
		ctx,
		query,
		id,
		mapping.WorkspaceID,
		strings.ToLower(mapping.GithubOrgLogin),
		strings.ToLower(mapping.GithubTeamSlug),
		mapping.TargetType,
		mapping.TargetKey,
		mapping.Role,
		mapping.Priority,
		mapping.Enabled,
		mapping.ProviderInstallationID,
	).StructScan(mapping)
	if err != nil {
		return fmt.Errorf("failed to create team mapping: %w", err)
	}

	return nil
}
