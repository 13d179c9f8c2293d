package users

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"rolebridge/core"
	"rolebridge/db"
	"rolebridge/models"
)

type UsersService struct {
	usersRepo *db.PostgresUsersRepository
}

func NewUsersService(repo *db.PostgresUsersRepository) *UsersService {
	return &UsersService{usersRepo: repo}
}

func (s *UsersService) GetUserByAPIKey(ctx context.Context, apiKey string) (mo.Option[*models.User], error) {
	if apiKey == "" {
		return mo.None[*models.User](), fmt.Errorf("API key cannot be empty")
	}

	user, err := s.usersRepo.GetUserByAPIKey(ctx, apiKey)
	if err != nil {
		return mo.None[*models.User](), fmt.Errorf("failed to get user by API key: %w", err)
	}

	return user, nil
}

func (s *UsersService) GetUserByID(ctx context.Context, id string) (mo.Option[*models.User], error) {
	if id == "" {
		return mo.None[*models.User](), fmt.Errorf("user ID cannot be empty")
	}
	if !core.IsValidULID(id) {
		return mo.None[*models.User](), fmt.Errorf("user ID must be a valid ULID")
	}

	user, err := s.usersRepo.GetUserByID(ctx, id)
	if err != nil {
		return mo.None[*models.User](), fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}
