package models

import (
	"time"
)

// WorkspaceRole is the canonical workspace-scoped role
type WorkspaceRole string

const (
	WorkspaceRoleOwner  WorkspaceRole = "OWNER"
	WorkspaceRoleAdmin  WorkspaceRole = "ADMIN"
	WorkspaceRoleMember WorkspaceRole = "MEMBER"
)

var workspaceRoleRank = map[WorkspaceRole]int{
	WorkspaceRoleMember: 0,
	WorkspaceRoleAdmin:  1,
	WorkspaceRoleOwner:  2,
}

// CompareWorkspaceRoles returns a negative number if a ranks below b,
// zero if equal, and a positive number if a ranks above b.
// Unknown roles rank below MEMBER.
func CompareWorkspaceRoles(a, b WorkspaceRole) int {
	return workspaceRoleRankOf(a) - workspaceRoleRankOf(b)
}

func workspaceRoleRankOf(r WorkspaceRole) int {
	if rank, ok := workspaceRoleRank[r]; ok {
		return rank
	}
	return -1
}

// IsValidWorkspaceRole reports whether r is one of the canonical workspace roles
func IsValidWorkspaceRole(r WorkspaceRole) bool {
	_, ok := workspaceRoleRank[r]
	return ok
}

// IsWorkspaceAdmin reports whether r carries workspace administration rights
func IsWorkspaceAdmin(r WorkspaceRole) bool {
	return r == WorkspaceRoleOwner || r == WorkspaceRoleAdmin
}

type WorkspaceMember struct {
	ID          string        `db:"id"           json:"id"`
	WorkspaceID WorkspaceID   `db:"workspace_id" json:"workspace_id"`
	UserID      string        `db:"user_id"      json:"user_id"`
	Role        WorkspaceRole `db:"role"         json:"role"`
	CreatedAt   time.Time     `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"   json:"updated_at"`
}
