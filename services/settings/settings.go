package settings

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"rolebridge/models"
	"rolebridge/services/githubpermissions"
)

// SettingsStore is the persistence surface for workspace settings.
// Implemented by db.PostgresSettingsRepository.
type SettingsStore interface {
	GetSetting(ctx context.Context, workspaceID models.WorkspaceID, key string) (mo.Option[*models.Setting], error)
	UpsertBooleanSetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value bool) (*models.Setting, error)
	UpsertStringSetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value string) (*models.Setting, error)
	UpsertStringArraySetting(ctx context.Context, workspaceID models.WorkspaceID, key string, value []string) (*models.Setting, error)
}

// SettingsService wraps the settings table with typed accessors and
// assembles the effective sync configuration for a workspace
type SettingsService struct {
	settingsRepo SettingsStore
}

func NewSettingsService(settingsRepo SettingsStore) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

func validateSettingKey(key string, wantType models.SettingType) error {
	def, ok := models.SupportedSettings[key]
	if !ok {
		return fmt.Errorf("unsupported setting key: %s", key)
	}
	if def.Type != wantType {
		return fmt.Errorf("setting %s has type %s, not %s", key, def.Type, wantType)
	}
	return nil
}

func (s *SettingsService) UpsertBooleanSetting(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
	value bool,
) error {
	log.Printf("📋 Starting to upsert boolean setting %s for workspace: %s", key, workspaceID)
	if workspaceID == "" {
		return fmt.Errorf("workspace ID cannot be empty")
	}
	if err := validateSettingKey(key, models.SettingTypeBool); err != nil {
		return err
	}

	if _, err := s.settingsRepo.UpsertBooleanSetting(ctx, workspaceID, key, value); err != nil {
		return fmt.Errorf("failed to upsert boolean setting: %w", err)
	}

	log.Printf("📋 Completed successfully - upserted boolean setting %s", key)
	return nil
}

func (s *SettingsService) UpsertStringSetting(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
	value string,
) error {
	log.Printf("📋 Starting to upsert string setting %s for workspace: %s", key, workspaceID)
	if workspaceID == "" {
		return fmt.Errorf("workspace ID cannot be empty")
	}
	if err := validateSettingKey(key, models.SettingTypeString); err != nil {
		return err
	}

	if _, err := s.settingsRepo.UpsertStringSetting(ctx, workspaceID, key, value); err != nil {
		return fmt.Errorf("failed to upsert string setting: %w", err)
	}

	log.Printf("📋 Completed successfully - upserted string setting %s", key)
	return nil
}

func (s *SettingsService) UpsertStringArraySetting(
	ctx context.Context,
	workspaceID models.WorkspaceID,
	key string,
	value []string,
) error {
	log.Printf("📋 Starting to upsert string array setting %s for workspace: %s", key, workspaceID)
	if workspaceID == "" {
		return fmt.Errorf("workspace ID cannot be empty")
	}
	if err := validateSettingKey(key, models.SettingTypeStringArr); err != nil {
		return err
	}

	if _, err := s.settingsRepo.UpsertStringArraySetting(ctx, workspaceID, key, value); err != nil {
		return fmt.Errorf("failed to upsert string array setting: %w", err)
	}

	log.Printf("📋 Completed successfully - upserted string array setting %s", key)
	return nil
}

// GetGithubSyncConfig assembles the effective sync configuration for one
// workspace. Missing or malformed settings fall back to the documented
// defaults rather than failing the run: add_only mode, a 900s cache TTL
// clamped to [30s, 24h], the default role mapping, team mapping disabled.
func (s *SettingsService) GetGithubSyncConfig(
	ctx context.Context,
	workspaceID models.WorkspaceID,
) (*models.GithubSyncConfig, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}

	config := &models.GithubSyncConfig{
		Mode:               models.SyncModeAddOnly,
		CacheTTL:           githubpermissions.DefaultCacheTTL,
		RoleMapping:        models.DefaultRoleMappingPolicy(),
		TeamMappingEnabled: false,
	}

	modeSetting, err := s.settingsRepo.GetSetting(ctx, workspaceID, models.SettingKeySyncMode)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync mode setting: %w", err)
	}
	if setting, ok := modeSetting.Get(); ok && setting.ValueString != nil {
		mode, err := models.ParseSyncMode(*setting.ValueString)
		if err != nil {
			log.Printf("⚠️ Workspace %s has invalid sync mode %q, using add_only", workspaceID, *setting.ValueString)
		} else {
			config.Mode = mode
		}
	}

	ttlSetting, err := s.settingsRepo.GetSetting(ctx, workspaceID, models.SettingKeyCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to get cache TTL setting: %w", err)
	}
	if setting, ok := ttlSetting.Get(); ok && setting.ValueString != nil {
		seconds, err := strconv.Atoi(strings.TrimSpace(*setting.ValueString))
		if err != nil {
			log.Printf("⚠️ Workspace %s has invalid cache TTL %q, using default", workspaceID, *setting.ValueString)
		} else {
			config.CacheTTL = githubpermissions.ClampCacheTTL(time.Duration(seconds) * time.Second)
		}
	}

	mappingSetting, err := s.settingsRepo.GetSetting(ctx, workspaceID, models.SettingKeyRoleMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to get role mapping setting: %w", err)
	}
	if setting, ok := mappingSetting.Get(); ok && len(setting.ValueStringArr) > 0 {
		config.RoleMapping = parseRoleMapping(workspaceID, setting.ValueStringArr)
	}

	teamMappingSetting, err := s.settingsRepo.GetSetting(ctx, workspaceID, models.SettingKeyTeamMappingEnabled)
	if err != nil {
		return nil, fmt.Errorf("failed to get team mapping setting: %w", err)
	}
	if setting, ok := teamMappingSetting.Get(); ok && setting.ValueBoolean != nil {
		config.TeamMappingEnabled = *setting.ValueBoolean
	}

	return config, nil
}

// parseRoleMapping decodes "permission=role" entries. Entries naming an
// unknown permission or role are skipped with a warning; the entries that
// survive start from the default table so unmentioned permissions keep
// their default target role.
func parseRoleMapping(workspaceID models.WorkspaceID, entries []string) models.RoleMappingPolicy {
	table := map[models.GithubPermission]models.ProjectRole{
		models.GithubPermissionAdmin:    models.ProjectRoleMaintainer,
		models.GithubPermissionMaintain: models.ProjectRoleMaintainer,
		models.GithubPermissionWrite:    models.ProjectRoleWriter,
		models.GithubPermissionTriage:   models.ProjectRoleReader,
		models.GithubPermissionRead:     models.ProjectRoleReader,
	}

	for _, entry := range entries {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			log.Printf("⚠️ Workspace %s has malformed role mapping entry %q, skipping", workspaceID, entry)
			continue
		}

		perm := models.GithubPermission(strings.ToLower(strings.TrimSpace(parts[0])))
		if _, known := table[perm]; !known {
			log.Printf("⚠️ Workspace %s maps unknown permission %q, skipping", workspaceID, parts[0])
			continue
		}

		role := models.ProjectRole(strings.ToUpper(strings.TrimSpace(parts[1])))
		if !models.IsValidProjectRole(role) {
			log.Printf("⚠️ Workspace %s maps %s to unknown role %q, skipping", workspaceID, perm, parts[1])
			continue
		}

		table[perm] = role
	}

	return models.NewRoleMappingPolicy(table)
}
