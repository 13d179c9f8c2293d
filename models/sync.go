package models

import (
	"fmt"
)

// SyncMode controls how far a sync run is allowed to converge the role store
type SyncMode string

const (
	// SyncModeAddOnly is monotonic: members are added or upgraded, never
	// downgraded or removed
	SyncModeAddOnly SyncMode = "add_only"
	// SyncModeAddAndRemove performs full reconciliation, subject to
	// protected-user guards
	SyncModeAddAndRemove SyncMode = "add_and_remove"
)

// ParseSyncMode validates a sync mode string
func ParseSyncMode(raw string) (SyncMode, error) {
	switch SyncMode(raw) {
	case SyncModeAddOnly:
		return SyncModeAddOnly, nil
	case SyncModeAddAndRemove:
		return SyncModeAddAndRemove, nil
	default:
		return "", fmt.Errorf("unknown sync mode: %q", raw)
	}
}

// GithubSyncOptions are the caller-supplied knobs for a direct sync run
type GithubSyncOptions struct {
	DryRun bool `json:"dry_run"`
	// Repos restricts the run to the given repository full names
	Repos []string `json:"repos,omitempty"`
	// ProjectKeyPrefix restricts the run to repos linked to projects whose
	// key carries the prefix
	ProjectKeyPrefix string `json:"project_key_prefix,omitempty"`
	// ModeOverride overrides the workspace's configured sync mode for this
	// run only
	ModeOverride *SyncMode `json:"mode,omitempty"`
}

// RepoSyncError records a single repository's failure without aborting the
// run it belongs to
type RepoSyncError struct {
	RepoFullName string `json:"repo_full_name"`
	Error        string `json:"error"`
}

// TeamFetchError records a single team's member-fetch failure
type TeamFetchError struct {
	OrgLogin string `json:"org_login"`
	TeamSlug string `json:"team_slug"`
	Error    string `json:"error"`
}

// TargetResolutionError records a team mapping whose target could not be
// resolved to an internal entity
type TargetResolutionError struct {
	MappingID string `json:"mapping_id"`
	TargetKey string `json:"target_key"`
	Error     string `json:"error"`
}

// UnmatchedGithubUser is a GitHub identity seen upstream with no
// GithubUserLink. Never an error - recorded for admin review.
type UnmatchedGithubUser struct {
	GithubUserID int64  `json:"github_user_id"`
	GithubLogin  string `json:"github_login"`
}

// MaxUnmatchedUsersReported caps the unmatched list carried in run reports
const MaxUnmatchedUsersReported = 1000

// GithubSyncReport is the structured result of a direct sync run
type GithubSyncReport struct {
	WorkspaceKey      string                `json:"workspace_key"`
	Mode              SyncMode              `json:"mode"`
	DryRun            bool                  `json:"dry_run"`
	ReposProcessed    int                   `json:"repos_processed"`
	UsersMatched      int                   `json:"users_matched"`
	Added             int                   `json:"added"`
	Updated           int                   `json:"updated"`
	Removed           int                   `json:"removed"`
	SkippedUnmatched  int                   `json:"skipped_unmatched"`
	ProtectedSkipped  int                   `json:"protected_skipped"`
	RateLimitWarnings []string              `json:"rate_limit_warnings,omitempty"`
	UnmatchedUsers    []UnmatchedGithubUser `json:"unmatched_users,omitempty"`
	RepoErrors        []RepoSyncError       `json:"repo_errors,omitempty"`
}

// PermissionPreviewRow is one row of a read-only permission preview
type PermissionPreviewRow struct {
	GithubUserID int64            `json:"github_user_id"`
	GithubLogin  string           `json:"github_login"`
	Permission   GithubPermission `json:"permission"`
	MappedRole   ProjectRole      `json:"mapped_role"`
	UserID       *string          `json:"user_id,omitempty"`
	Matched      bool             `json:"matched"`
}

// GithubPermissionPreview is the result of the read-only preview operation.
// It never touches the role store.
type GithubPermissionPreview struct {
	RepoFullName string                 `json:"repo_full_name"`
	ProjectKey   string                 `json:"project_key"`
	Rows         []PermissionPreviewRow `json:"rows"`
}

// TeamMappingReport is the structured result of a team mapping run
type TeamMappingReport struct {
	WorkspaceID      WorkspaceID             `json:"workspace_id"`
	Mode             SyncMode                `json:"mode"`
	Enabled          bool                    `json:"enabled"`
	MappingsApplied  int                     `json:"mappings_applied"`
	WorkspaceAdded   int                     `json:"workspace_added"`
	WorkspaceUpdated int                     `json:"workspace_updated"`
	WorkspaceRemoved int                     `json:"workspace_removed"`
	ProjectAdded     int                     `json:"project_added"`
	ProjectUpdated   int                     `json:"project_updated"`
	ProjectRemoved   int                     `json:"project_removed"`
	SkippedUnmatched int                     `json:"skipped_unmatched"`
	ProtectedSkipped int                     `json:"protected_skipped"`
	UnmatchedUsers   []UnmatchedGithubUser   `json:"unmatched_users,omitempty"`
	TeamErrors       []TeamFetchError        `json:"team_errors,omitempty"`
	TargetErrors     []TargetResolutionError `json:"target_errors,omitempty"`
}
