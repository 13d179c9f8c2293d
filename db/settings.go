package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/mo"

	"rolebridge/core"
	dbtx "rolebridge/db/tx"
	"rolebridge/models"
)

type PostgresSettingsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for settings table
var settingsColumns = []string{
	"id",
	"workspace_id",
	"key",
	"value_boolean",
	"value_string",
	"value_stringarr",
	"created_at",
	"updated_at",
}

func NewPostgresSettingsRepository(db *sqlx.DB, schema string) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db, schema: schema}
}

func (r *PostgresSettingsRepository) UpsertBooleanSetting(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
	value bool,
) (*models.Setting, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	id := core.NewID("set")
	returningStr := strings.Join(settingsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.settings (id, workspace_id, key, value_boolean)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, key)
		DO UPDATE SET
			value_boolean = EXCLUDED.value_boolean,
			value_string = NULL,
			value_stringarr = NULL,
			updated_at = NOW()
		RETURNING %s`, r.schema, returningStr)

	var setting models.Setting
	err := db.QueryRowxContext(ctx, query, id, workspaceID, key, value).StructScan(&setting)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert boolean setting: %w", err)
	}

	return &setting, nil
}

func (r *PostgresSettingsRepository) UpsertStringSetting(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
	value string,
) (*models.Setting, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	id := core.NewID("set")
	returningStr := strings.Join(settingsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.settings (id, workspace_id, key, value_string)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, key)
		DO UPDATE SET
			value_boolean = NULL,
			value_string = EXCLUDED.value_string,
			value_stringarr = NULL,
			updated_at = NOW()
		RETURNING %s`, r.schema, returningStr)

	var setting models.Setting
	err := db.QueryRowxContext(ctx, query, id, workspaceID, key, value).StructScan(&setting)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert string setting: %w", err)
	}

	return &setting, nil
}

func (r *PostgresSettingsRepository) UpsertStringArraySetting(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
	value []string,
) (*models.Setting, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	id := core.NewID("set")
	returningStr := strings.Join(settingsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.settings (id, workspace_id, key, value_stringarr)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workspace_id, key)
		DO UPDATE SET
			value_boolean = NULL,
			value_string = NULL,
			value_stringarr = EXCLUDED.value_stringarr,
			updated_at = NOW()
		RETURNING %s`, r.schema, returningStr)

	var setting models.Setting
	err := db.QueryRowxContext(ctx, query, id, workspaceID, key, pq.StringArray(value)).StructScan(&setting)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert string array setting: %w", err)
	}

	return &setting, nil
}

func (r *PostgresSettingsRepository) GetSetting(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
) (mo.Option[*models.Setting], error) {
	if workspaceID == "" {
		return mo.None[*models.Setting](), fmt.Errorf("workspace ID cannot be empty")
	}
	if key == "" {
		return mo.None[*models.Setting](), fmt.Errorf("setting key cannot be empty")
	}

	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(settingsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.settings
		WHERE workspace_id = $1 AND key = $2`, columnsStr, r.schema)

	var setting models.Setting
	err := db.GetContext(ctx, &setting, query, workspaceID, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.Setting](), nil
		}
		return mo.None[*models.Setting](), fmt.Errorf("failed to get setting: %w", err)
	}

	return mo.Some(&setting), nil
}
