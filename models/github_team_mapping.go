package models

import (
	"time"
)

// TeamMappingTargetType identifies what a team mapping grants roles on
type TeamMappingTargetType string

const (
	TeamMappingTargetWorkspace TeamMappingTargetType = "workspace"
	TeamMappingTargetProject   TeamMappingTargetType = "project"
)

// GithubTeamMapping is an admin-declared rule binding a GitHub org/team to
// a workspace- or project-role target. A nil ProviderInstallationID means
// the rule applies to any installation of the workspace.
type GithubTeamMapping struct {
	ID                     string                `db:"id"                       json:"id"`
	WorkspaceID            WorkspaceID           `db:"workspace_id"             json:"workspace_id"`
	GithubOrgLogin         string                `db:"github_org_login"         json:"github_org_login"`
	GithubTeamSlug         string                `db:"github_team_slug"         json:"github_team_slug"`
	TargetType             TeamMappingTargetType `db:"target_type"              json:"target_type"`
	TargetKey              string                `db:"target_key"               json:"target_key"`
	Role                   string                `db:"role"                     json:"role"`
	Priority               int                   `db:"priority"                 json:"priority"`
	Enabled                bool                  `db:"enabled"                  json:"enabled"`
	ProviderInstallationID *string               `db:"provider_installation_id" json:"provider_installation_id"`
	CreatedAt              time.Time             `db:"created_at"               json:"created_at"`
	UpdatedAt              time.Time             `db:"updated_at"               json:"updated_at"`
}
