package github

import (
	"rolebridge/services"
)

// GithubUseCase drives role reconciliation from GitHub authorization
// signals: the direct per-repository sync engine, the read-only permission
// preview and the team mapping engine driven by webhook events.
type GithubUseCase struct {
	txManager          services.TransactionManager
	workspacesService  services.WorkspacesService
	projectsService    services.ProjectsService
	membersService     services.MembersService
	githubLinksService services.GithubLinksService
	permissionsService services.GithubPermissionsService
	settingsService    services.SettingsService
	auditService       services.AuditService
}

// NewGithubUseCase creates a new instance of GithubUseCase
func NewGithubUseCase(
	txManager services.TransactionManager,
	workspacesService services.WorkspacesService,
	projectsService services.ProjectsService,
	membersService services.MembersService,
	githubLinksService services.GithubLinksService,
	permissionsService services.GithubPermissionsService,
	settingsService services.SettingsService,
	auditService services.AuditService,
) *GithubUseCase {
	return &GithubUseCase{
		txManager:          txManager,
		workspacesService:  workspacesService,
		projectsService:    projectsService,
		membersService:     membersService,
		githubLinksService: githubLinksService,
		permissionsService: permissionsService,
		settingsService:    settingsService,
		auditService:       auditService,
	}
}
