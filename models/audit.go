package models

import (
	"encoding/json"
	"time"
)

// Audit action names for membership changes driven by GitHub signals
const (
	AuditActionProjectMemberAdded        = "access.project_member.added"
	AuditActionProjectMemberUpgraded     = "access.project_member.upgraded"
	AuditActionProjectMemberDowngraded   = "access.project_member.downgraded"
	AuditActionProjectMemberRemoved      = "access.project_member.removed"
	AuditActionWorkspaceMemberAdded      = "access.workspace_member.added"
	AuditActionWorkspaceMemberUpgraded   = "access.workspace_member.upgraded"
	AuditActionWorkspaceMemberDowngraded = "access.workspace_member.downgraded"
	AuditActionWorkspaceMemberRemoved    = "access.workspace_member.removed"
	AuditActionPermissionsComputed       = "github.permissions.computed"
	AuditActionPermissionsApplied        = "github.permissions.applied"
	AuditActionTeamMappingsApplied       = "github.team_mappings.applied"
)

// AuditLogEntry is an immutable history record. Rows are append-only.
type AuditLogEntry struct {
	ID            string          `db:"id"             json:"id"`
	WorkspaceID   WorkspaceID     `db:"workspace_id"   json:"workspace_id"`
	ProjectID     *string         `db:"project_id"     json:"project_id"`
	ActorUserID   *string         `db:"actor_user_id"  json:"actor_user_id"`
	Action        string          `db:"action"         json:"action"`
	Target        json.RawMessage `db:"target"         json:"target"`
	CorrelationID *string         `db:"correlation_id" json:"correlation_id"`
	CreatedAt     time.Time       `db:"created_at"     json:"created_at"`
}

// AuditRecord is the write-side shape handed to the audit recorder. Target
// carries enough before/after state to reconstruct the decision.
type AuditRecord struct {
	WorkspaceID   WorkspaceID
	ProjectID     *string
	ActorUserID   *string
	Action        string
	Target        map[string]any
	CorrelationID *string
}
