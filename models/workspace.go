package models

import (
	"time"
)

// WorkspaceID is the tenant boundary identifier used across all repositories
type WorkspaceID = string

type Workspace struct {
	ID        WorkspaceID `db:"id"         json:"id"`
	Key       string      `db:"key"        json:"key"`
	Name      string      `db:"name"       json:"name"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
