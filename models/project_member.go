package models

import (
	"time"
)

// ProjectRole is the canonical project-scoped role
type ProjectRole string

const (
	ProjectRoleOwner      ProjectRole = "OWNER"
	ProjectRoleMaintainer ProjectRole = "MAINTAINER"
	ProjectRoleWriter     ProjectRole = "WRITER"
	ProjectRoleReader     ProjectRole = "READER"
)

var projectRoleRank = map[ProjectRole]int{
	ProjectRoleReader:     0,
	ProjectRoleWriter:     1,
	ProjectRoleMaintainer: 2,
	ProjectRoleOwner:      3,
}

// CompareProjectRoles returns a negative number if a ranks below b,
// zero if equal, and a positive number if a ranks above b.
// Unknown roles rank below READER.
func CompareProjectRoles(a, b ProjectRole) int {
	return projectRoleRankOf(a) - projectRoleRankOf(b)
}

func projectRoleRankOf(r ProjectRole) int {
	if rank, ok := projectRoleRank[r]; ok {
		return rank
	}
	return -1
}

// IsValidProjectRole reports whether r is one of the canonical project roles
func IsValidProjectRole(r ProjectRole) bool {
	_, ok := projectRoleRank[r]
	return ok
}

type ProjectMember struct {
	ID        string      `db:"id"         json:"id"`
	ProjectID string      `db:"project_id" json:"project_id"`
	UserID    string      `db:"user_id"    json:"user_id"`
	Role      ProjectRole `db:"role"       json:"role"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
