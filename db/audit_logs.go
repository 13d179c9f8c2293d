package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"rolebridge/models"
)

type PostgresAuditLogsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for audit_logs table
var auditLogsColumns = []string{
	"id",
	"workspace_id",
	"project_id",
	"actor_user_id",
	"action",
	"target",
	"correlation_id",
	"created_at",
}

func NewPostgresAuditLogsRepository(db *sqlx.DB, schema string) *PostgresAuditLogsRepository {
	return &PostgresAuditLogsRepository{db: db, schema: schema}
}

// InsertAuditLogEntry appends one history record. The table is append-only;
// there are no update or delete methods on purpose.
func (r *PostgresAuditLogsRepository) InsertAuditLogEntry(
	ctx context.Context,
	entry *models.AuditLogEntry,
) error {
	columnsStr := strings.Join(auditLogsColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.audit_logs (id, workspace_id, project_id, actor_user_id, action, target, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, r.schema, columnsStr)

	err := r.db.QueryRowxContext(
		ctx,
		query,
		entry.ID,
		entry.WorkspaceID,
		entry.ProjectID,
		entry.ActorUserID,
		entry.Action,
		[]byte(entry.Target),
		entry.CorrelationID,
	).StructScan(entry)
	if err != nil {
		return fmt.Errorf("failed to insert audit log entry: %w", err)
	}

	return nil
}

func (r *PostgresAuditLogsRepository) GetAuditLogEntriesByWorkspaceID(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	limit int,
) ([]models.AuditLogEntry, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}
	if limit <= 0 {
		limit = 100
	}

	columnsStr := strings.Join(auditLogsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.audit_logs
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, columnsStr, r.schema)

	entries := []models.AuditLogEntry{}
	err := r.db.SelectContext(ctx, &entries, query, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log entries: %w", err)
	}

	return entries, nil
}
