package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	githubclient "rolebridge/clients/github"
	"rolebridge/config"
	"rolebridge/db"
	"rolebridge/handlers"
	"rolebridge/middleware"
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
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
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

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	ghClient, err := githubclient.NewGitHubClient(cfg.GitHubConfig.AppID, []byte(cfg.GitHubConfig.AppPrivateKey))
	if err != nil {
		return err
	}

	usersService := users.NewUsersService(usersRepo)
	workspacesService := workspaces.NewWorkspacesService(workspacesRepo)
	projectsService := projects.NewProjectsService(projectsRepo)
	membersService := members.NewMembersService(workspaceMembersRepo, projectMembersRepo)
	githubLinksService := githublinks.NewGithubLinksService(githubLinksRepo, teamMappingsRepo)
	permissionsService := githubpermissions.NewGithubPermissionsService(ghClient, cachesRepo)
	settingsService := settings.NewSettingsService(settingsRepo)
	auditService := audit.NewAuditService(auditLogsRepo)

	githubUseCase := githubusecase.NewGithubUseCase(
		txManager,
		workspacesService,
		projectsService,
		membersService,
		githubLinksService,
		permissionsService,
		settingsService,
		auditService,
	)

	syncHandler := handlers.NewGithubSyncHandler(githubUseCase)
	authMiddleware := middleware.NewAPIKeyAuthMiddleware(usersService)

	router := mux.NewRouter()
	syncHandler.RegisterRoutes(router, authMiddleware.WithAuth)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
