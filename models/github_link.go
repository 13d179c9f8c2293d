package models

import (
	"time"
)

// GithubRepoLink binds a GitHub repository to a project. Links with
// IsActive=false or without a linked project are excluded from sync runs.
type GithubRepoLink struct {
	ID              string      `db:"id"                json:"id"`
	WorkspaceID     WorkspaceID `db:"workspace_id"      json:"workspace_id"`
	GithubRepoID    int64       `db:"github_repo_id"    json:"github_repo_id"`
	FullName        string      `db:"full_name"         json:"full_name"`
	LinkedProjectID *string     `db:"linked_project_id" json:"linked_project_id"`
	IsActive        bool        `db:"is_active"         json:"is_active"`
	CreatedAt       time.Time   `db:"created_at"        json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"        json:"updated_at"`
}

// Owner returns the owner half of the repository full name ("owner/name")
func (l *GithubRepoLink) Owner() string {
	for i := 0; i < len(l.FullName); i++ {
		if l.FullName[i] == '/' {
			return l.FullName[:i]
		}
	}
	return l.FullName
}

// Name returns the repository half of the full name ("owner/name")
func (l *GithubRepoLink) Name() string {
	for i := 0; i < len(l.FullName); i++ {
		if l.FullName[i] == '/' {
			return l.FullName[i+1:]
		}
	}
	return ""
}

// GithubUserLink binds an internal user to a GitHub identity. It is the only
// path from a GitHub identity to an internal user - unmatched identities
// never cause role writes. GithubLogin is stored normalized (lowercase,
// "@"-stripped).
type GithubUserLink struct {
	ID           string      `db:"id"             json:"id"`
	WorkspaceID  WorkspaceID `db:"workspace_id"   json:"workspace_id"`
	UserID       string      `db:"user_id"        json:"user_id"`
	GithubLogin  string      `db:"github_login"   json:"github_login"`
	GithubUserID *int64      `db:"github_user_id" json:"github_user_id"`
	CreatedAt    time.Time   `db:"created_at"     json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"     json:"updated_at"`
}

// GithubConnection records the GitHub App installation connected to a
// workspace. A workspace without a connection cannot be synced.
type GithubConnection struct {
	ID             string      `db:"id"              json:"id"`
	WorkspaceID    WorkspaceID `db:"workspace_id"    json:"workspace_id"`
	InstallationID string      `db:"installation_id" json:"installation_id"`
	CreatedAt      time.Time   `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"      json:"updated_at"`
}
