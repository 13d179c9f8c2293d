package audit

import (
	"context"
	"encoding/json"
	"log"

	"rolebridge/core"
	"rolebridge/db"
	"rolebridge/models"
)

// AuditService appends history records. Recording is fire-and-forget:
// failures are logged and swallowed so that an audit outage can never roll
// back a role-store transaction that already committed.
type AuditService struct {
	auditLogsRepo *db.PostgresAuditLogsRepository
}

func NewAuditService(auditLogsRepo *db.PostgresAuditLogsRepository) *AuditService {
	return &AuditService{auditLogsRepo: auditLogsRepo}
}

func (s *AuditService) Record(ctx context.Context, record models.AuditRecord) {
	if record.WorkspaceID == "" || record.Action == "" {
		log.Printf("⚠️ Dropping audit record with missing workspace ID or action")
		return
	}

	target, err := json.Marshal(record.Target)
	if err != nil {
		log.Printf("❌ Failed to marshal audit target for %s: %v", record.Action, err)
		return
	}

	entry := &models.AuditLogEntry{
		ID:            core.NewID("aud"),
		WorkspaceID:   record.WorkspaceID,
		ProjectID:     record.ProjectID,
		ActorUserID:   record.ActorUserID,
		Action:        record.Action,
		Target:        target,
		CorrelationID: record.CorrelationID,
	}

	if err := s.auditLogsRepo.InsertAuditLogEntry(ctx, entry); err != nil {
		log.Printf("❌ Failed to record audit entry %s: %v", record.Action, err)
	}
}
