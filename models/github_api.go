package models

// GithubCollaborator is a direct repository collaborator together with the
// effective permission GitHub reports for them
type GithubCollaborator struct {
	ID         int64            `json:"id"`
	Login      string           `json:"login"`
	Permission GithubPermission `json:"permission"`
}

// GithubRepoTeam is a team granted access to a repository
type GithubRepoTeam struct {
	ID         int64            `json:"id"`
	Slug       string           `json:"slug"`
	OrgLogin   string           `json:"org_login"`
	Permission GithubPermission `json:"permission"`
}

// GithubTeamMember is a member of an org team
type GithubTeamMember struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// GithubUserPermission is one row of a per-repository permission
// computation: the maximum permission observed for a GitHub user across
// direct collaborator access and every linked team
type GithubUserPermission struct {
	GithubUserID int64            `json:"github_user_id"`
	GithubLogin  string           `json:"github_login"`
	Permission   GithubPermission `json:"permission"`
}
