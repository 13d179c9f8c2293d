package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type GitHubConfig struct {
	AppID         string
	AppPrivateKey string
}

// IsConfigured returns true if all required GitHub App configuration is present
func (c GitHubConfig) IsConfigured() bool {
	return c.AppID != "" &&
		c.AppPrivateKey != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	UseStrictConfig    bool // If true, error when any integration is not fully configured

	GitHubConfig GitHubConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		GitHubConfig: GitHubConfig{
			AppID:         os.Getenv("GITHUB_APP_ID"),
			AppPrivateKey: os.Getenv("GITHUB_APP_PRIVATE_KEY"),
		},
	}

	if config.GitHubConfig.IsConfigured() {
		log.Printf("✅ GitHub App configured")
	} else {
		log.Printf("⚠️ GitHub App not configured - sync features will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("GitHub App is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
