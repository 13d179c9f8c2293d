package models

import (
	"encoding/json"
	"time"
)

// GithubPermissionCacheEntry is the last observed computed permission for a
// (repo, user) pair. Informational only - never read to make role decisions.
type GithubPermissionCacheEntry struct {
	ID           string           `db:"id"             json:"id"`
	WorkspaceID  WorkspaceID      `db:"workspace_id"   json:"workspace_id"`
	GithubRepoID int64            `db:"github_repo_id" json:"github_repo_id"`
	GithubUserID int64            `db:"github_user_id" json:"github_user_id"`
	GithubLogin  string           `db:"github_login"   json:"github_login"`
	Permission   GithubPermission `db:"permission"     json:"permission"`
	UpdatedAt    time.Time        `db:"updated_at"     json:"updated_at"`
}

// GithubAPICacheEntry is a TTL cache row for an upstream GitHub API
// response, keyed by a composite natural key (repo teams, team members).
// Rows are overwritten in place on refetch.
type GithubAPICacheEntry struct {
	ID          string          `db:"id"           json:"id"`
	WorkspaceID WorkspaceID     `db:"workspace_id" json:"workspace_id"`
	CacheKey    string          `db:"cache_key"    json:"cache_key"`
	Payload     json.RawMessage `db:"payload"      json:"payload"`
	UpdatedAt   time.Time       `db:"updated_at"   json:"updated_at"`
}

// IsFresh reports whether the entry is within its TTL as of now
func (e *GithubAPICacheEntry) IsFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.UpdatedAt) < ttl
}
