package models

import (
	"time"

	"github.com/lib/pq"
)

// SettingType represents the type of setting value
type SettingType string

const (
	SettingTypeBool      SettingType = "bool"
	SettingTypeString    SettingType = "string"
	SettingTypeStringArr SettingType = "stringarr"
)

// SettingKeyDefinition defines a supported setting key with its expected type
type SettingKeyDefinition struct {
	Key  string
	Type SettingType
}

// Workspace-scoped setting keys consumed by the sync engines
const (
	SettingKeySyncMode           = "github/sync_mode"
	SettingKeyCacheTTLSeconds    = "github/cache_ttl_seconds"
	SettingKeyTeamMappingEnabled = "github/team_mapping_enabled"
	SettingKeyRoleMapping        = "github/role_mapping"
)

// SupportedSettings is the registry of all supported setting keys with their types
var SupportedSettings = map[string]SettingKeyDefinition{
	SettingKeySyncMode: {
		Key:  SettingKeySyncMode,
		Type: SettingTypeString,
	},
	SettingKeyCacheTTLSeconds: {
		Key:  SettingKeyCacheTTLSeconds,
		Type: SettingTypeString,
	},
	SettingKeyTeamMappingEnabled: {
		Key:  SettingKeyTeamMappingEnabled,
		Type: SettingTypeBool,
	},
	SettingKeyRoleMapping: {
		Key:  SettingKeyRoleMapping,
		Type: SettingTypeStringArr,
	},
}

// Setting represents a generic workspace setting with all possible value types
type Setting struct {
	ID             string         `db:"id"              json:"id"`
	WorkspaceID    WorkspaceID    `db:"workspace_id"    json:"workspace_id"`
	Key            string         `db:"key"             json:"key"`
	ValueBoolean   *bool          `db:"value_boolean"   json:"value_boolean,omitempty"`
	ValueString    *string        `db:"value_string"    json:"value_string,omitempty"`
	ValueStringArr pq.StringArray `db:"value_stringarr" json:"value_stringarr,omitempty"`
	CreatedAt      time.Time      `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"      json:"updated_at"`
}

// GithubSyncConfig is the effective, fully defaulted sync configuration for
// one workspace, assembled once per run
type GithubSyncConfig struct {
	Mode               SyncMode
	CacheTTL           time.Duration
	RoleMapping        RoleMappingPolicy
	TeamMappingEnabled bool
}
