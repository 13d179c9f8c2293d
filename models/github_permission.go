package models

import (
	"strings"
)

// GithubPermission is a GitHub repository permission level as reported for
// a collaborator or a repository team
type GithubPermission string

const (
	GithubPermissionAdmin    GithubPermission = "admin"
	GithubPermissionMaintain GithubPermission = "maintain"
	GithubPermissionWrite    GithubPermission = "write"
	GithubPermissionTriage   GithubPermission = "triage"
	GithubPermissionRead     GithubPermission = "read"
)

var githubPermissionRank = map[GithubPermission]int{
	GithubPermissionRead:     0,
	GithubPermissionTriage:   1,
	GithubPermissionWrite:    2,
	GithubPermissionMaintain: 3,
	GithubPermissionAdmin:    4,
}

// CompareGithubPermissions returns a negative number if a ranks below b,
// zero if equal, and a positive number if a ranks above b.
// Unknown permissions rank below read.
func CompareGithubPermissions(a, b GithubPermission) int {
	return githubPermissionRankOf(a) - githubPermissionRankOf(b)
}

func githubPermissionRankOf(p GithubPermission) int {
	if rank, ok := githubPermissionRank[p]; ok {
		return rank
	}
	return -1
}

// MaxGithubPermission returns the higher-ranked of the two permissions.
// Used to merge multiple permission sources for the same user.
func MaxGithubPermission(a, b GithubPermission) GithubPermission {
	if CompareGithubPermissions(a, b) >= 0 {
		return a
	}
	return b
}

// NormalizeGithubPermission maps the permission strings GitHub uses across
// its API surfaces (role_name values, legacy permission names) onto the
// canonical five levels. Unknown values normalize to read.
func NormalizeGithubPermission(raw string) GithubPermission {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return GithubPermissionAdmin
	case "maintain":
		return GithubPermissionMaintain
	case "write", "push":
		return GithubPermissionWrite
	case "triage":
		return GithubPermissionTriage
	default:
		return GithubPermissionRead
	}
}

// NormalizeGithubLogin lowercases a GitHub login and strips a leading "@".
// This is the canonical join key when a numeric GitHub user id is unavailable.
func NormalizeGithubLogin(login string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(login), "@"))
}

// RoleMappingPolicy maps GitHub permission levels onto canonical project
// roles. It is loaded once per sync run and passed explicitly into every
// computation - ranking code never reads ambient configuration.
type RoleMappingPolicy struct {
	mapping map[GithubPermission]ProjectRole
}

// NewRoleMappingPolicy builds a policy from an explicit table. Entries with
// invalid roles are dropped so lookups for them fail closed to READER.
func NewRoleMappingPolicy(table map[GithubPermission]ProjectRole) RoleMappingPolicy {
	mapping := make(map[GithubPermission]ProjectRole, len(table))
	for perm, role := range table {
		if IsValidProjectRole(role) {
			mapping[perm] = role
		}
	}
	return RoleMappingPolicy{mapping: mapping}
}

// DefaultRoleMappingPolicy returns the default permission-to-role table:
// admin/maintain map to MAINTAINER, write to WRITER, triage/read to READER.
func DefaultRoleMappingPolicy() RoleMappingPolicy {
	return NewRoleMappingPolicy(map[GithubPermission]ProjectRole{
		GithubPermissionAdmin:    ProjectRoleMaintainer,
		GithubPermissionMaintain: ProjectRoleMaintainer,
		GithubPermissionWrite:    ProjectRoleWriter,
		GithubPermissionTriage:   ProjectRoleReader,
		GithubPermissionRead:     ProjectRoleReader,
	})
}

// ProjectRoleFor looks up the project role for a permission level.
// Missing entries fail closed to READER.
func (p RoleMappingPolicy) ProjectRoleFor(permission GithubPermission) ProjectRole {
	if role, ok := p.mapping[permission]; ok {
		return role
	}
	return ProjectRoleReader
}
