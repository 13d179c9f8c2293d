package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"rolebridge/appctx"
	"rolebridge/config"
	"rolebridge/core"
	"rolebridge/db"
	"rolebridge/models"
)

// LoadTestConfig loads configuration for integration tests from environment
// variables. Tests calling it should skip when it returns an error so the
// suite still passes without a database.
func LoadTestConfig() (*config.AppConfig, error) {
	_ = godotenv.Load("../.env.test") // From package directories
	_ = godotenv.Load(".env.test")    // From root directory
	_ = godotenv.Load()               // Default .env file

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseSchema == "" {
		return nil, fmt.Errorf("DB_SCHEMA is not set")
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: databaseSchema,
	}, nil
}

// CreateTestUser creates a user with a unique email and API key
func CreateTestUser(t *testing.T, usersRepo *db.PostgresUsersRepository) *models.User {
	apiKey := "rbk_test_" + uuid.New().String()
	user := &models.User{
		ID:     core.NewID("u"),
		Email:  fmt.Sprintf("test-%s@example.com", uuid.New().String()),
		APIKey: &apiKey,
	}
	err := usersRepo.CreateUser(context.Background(), user)
	require.NoError(t, err, "Failed to create test user")
	return user
}

// CreateTestWorkspace creates a workspace with a unique key
func CreateTestWorkspace(t *testing.T, workspacesRepo *db.PostgresWorkspacesRepository) *models.Workspace {
	workspace := &models.Workspace{
		ID:   models.WorkspaceID(core.NewID("ws")),
		Key:  "test-ws-" + uuid.New().String(),
		Name: "Test Workspace",
	}
	err := workspacesRepo.CreateWorkspace(context.Background(), workspace)
	require.NoError(t, err, "Failed to create test workspace")
	return workspace
}

// CreateTestProject creates a project with a unique key in the given workspace
func CreateTestProject(
	t *testing.T,
	projectsRepo *db.PostgresProjectsRepository,
	workspaceID models.WorkspaceID,
) *models.Project {
	project := &models.Project{
		ID:          core.NewID("p"),
		Key:         "test-project-" + uuid.New().String(),
		Name:        "Test Project",
		WorkspaceID: workspaceID,
	}
	err := projectsRepo.CreateProject(context.Background(), project)
	require.NoError(t, err, "Failed to create test project")
	return project
}

// CreateTestContext creates a context with the given user set as the actor
func CreateTestContext(user *models.User) context.Context {
	return appctx.SetUser(context.Background(), user)
}
