package models

import (
	"time"
)

type Project struct {
	ID          string      `db:"id"           json:"id"`
	Key         string      `db:"key"          json:"key"`
	Name        string      `db:"name"         json:"name"`
	WorkspaceID WorkspaceID `db:"workspace_id" json:"workspace_id"`
	CreatedAt   time.Time   `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"   json:"updated_at"`
}
