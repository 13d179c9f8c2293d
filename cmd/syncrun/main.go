package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"rolebridge/appctx"
	githubclient "rolebridge/clients/github"
	"rolebridge/config"
	"rolebridge/db"
	"rolebridge/models"
	"rolebridge/services/audit"
	"rolebridge/services/githublinks"
	"rolebridge/services/githubpermissions"
	"rolebridge/services/members"
	"rolebridge/services/projects"
	"rolebridge/services/settings"
	"rolebridge/services/txmanager"
	"rolebridge/services/users"
	"rolebridge/services/workspaces"
	githubusecase "rolebridge/usecases/github"
	"rolebridge/utils"
)

func main() {
	workspaceKey := flag.String("workspace", "", "workspace key to sync (required)")
	apiKey := flag.String("api-key", os.Getenv("ROLEBRIDGE_API_KEY"), "API key of the acting user (defaults to ROLEBRIDGE_API_KEY)")
	dryRun := flag.Bool("dry-run", false, "compute the full report without writing to the role store")
	mode := flag.String("mode", "", "override the configured sync mode (add_only or add_and_remove)")
	repos := flag.String("repos", "", "comma-separated repository full names to restrict the run to")
	projectKeyPrefix := flag.String("project-key-prefix", "", "restrict the run to repos linked to projects with this key prefix")
	flag.Parse()

	if *workspaceKey == "" {
		log.Fatalf("❌ -workspace is required")
	}
	if *apiKey == "" {
		log.Fatalf("❌ -api-key (or ROLEBRIDGE_API_KEY) is required")
	}

	opts := models.GithubSyncOptions{
		DryRun:           *dryRun,
		ProjectKeyPrefix: *projectKeyPrefix,
	}
	if *repos != "" {
		for _, repo := range strings.Split(*repos, ",") {
			if trimmed := strings.TrimSpace(repo); trimmed != "" {
				opts.Repos = append(opts.Repos, trimmed)
			}
		}
		opts.Repos = utils.DedupStrings(opts.Repos)
	}
	if *mode != "" {
		parsed, err := models.ParseSyncMode(*mode)
		if err != nil {
			log.Fatalf("❌ Invalid sync mode: %v", err)
		}
		opts.ModeOverride = &parsed
	}

	log.Printf("🔄 Starting GitHub permission sync for workspace: %s", *workspaceKey)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	workspacesRepo := db.NewPostgresWorkspacesRepository(dbConn, cfg.DatabaseSchema)
	projectsRepo := db.NewPostgresProjectsRepository(dbConn, cfg.DatabaseSchema)
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	workspaceMembersRepo := db.NewPostgresWorkspaceMembersRepository(dbConn, cfg.DatabaseSchema)
	projectMembersRepo := db.NewPostgresProjectMembersRepository(dbConn, cfg.DatabaseSchema)
	githubLinksRepo := db.NewPostgresGithubLinksRepository(dbConn, cfg.DatabaseSchema)
	teamMappingsRepo := db.NewPostgresGithubTeamMappingsRepository(dbConn, cfg.DatabaseSchema)
	cachesRepo := db.NewPostgresGithubCachesRepository(dbConn, cfg.DatabaseSchema)
	settingsRepo := db.NewPostgresSettingsRepository(dbConn, cfg.DatabaseSchema)
	auditLogsRepo := db.NewPostgresAuditLogsRepository(dbConn, cfg.DatabaseSchema)

	txManager := txmanager.NewTransactionManager(dbConn)

	ghClient, err := githubclient.NewGitHubClient(cfg.GitHubConfig.AppID, []byte(cfg.GitHubConfig.AppPrivateKey))
	if err != nil {
		log.Fatalf("❌ Failed to create GitHub client: %v", err)
	}

	usersService := users.NewUsersService(usersRepo)
	githubUseCase := githubusecase.NewGithubUseCase(
		txManager,
		workspaces.NewWorkspacesService(workspacesRepo),
		projects.NewProjectsService(projectsRepo),
		members.NewMembersService(workspaceMembersRepo, projectMembersRepo),
		githublinks.NewGithubLinksService(githubLinksRepo, teamMappingsRepo),
		githubpermissions.NewGithubPermissionsService(ghClient, cachesRepo),
		settings.NewSettingsService(settingsRepo),
		audit.NewAuditService(auditLogsRepo),
	)

	ctx := context.Background()

	maybeUser, err := usersService.GetUserByAPIKey(ctx, *apiKey)
	if err != nil {
		log.Fatalf("❌ Failed to resolve acting user: %v", err)
	}
	actor, ok := maybeUser.Get()
	if !ok {
		log.Fatalf("❌ No user found for the provided API key")
	}
	ctx = appctx.SetUser(ctx, actor)

	report, err := githubUseCase.SyncGithubPermissions(ctx, *workspaceKey, opts)
	if err != nil {
		log.Fatalf("❌ Sync failed: %v", err)
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("❌ Failed to encode report: %v", err)
	}
	fmt.Println(string(encoded))

	log.Printf("✅ Sync completed - added: %d, updated: %d, removed: %d, repos processed: %d",
		report.Added, report.Updated, report.Removed, report.ReposProcessed)
	if len(report.RepoErrors) > 0 {
		log.Printf("⚠️ %d repositories failed during this run", len(report.RepoErrors))
		os.Exit(1)
	}
}
