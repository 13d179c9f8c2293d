package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"rolebridge/models"
)

type PostgresUsersRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for users table
var usersColumns = []string{
	"id",
	"email",
	"api_key",
	"created_at",
	"updated_at",
}

func NewPostgresUsersRepository(db *sqlx.DB, schema string) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, schema: schema}
}

func (r *PostgresUsersRepository) GetUserByAPIKey(
	ctx context.Context,
	apiKey string,
) (mo.Option[*models.User], error) {
	if apiKey == "" {
		return mo.None[*models.User](), fmt.Errorf("API key cannot be empty")
	}

	columnsStr := strings.Join(usersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.users
		WHERE api_key = $1`, columnsStr, r.schema)

	var user models.User
	err := r.db.GetContext(ctx, &user, query, apiKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.User](), nil
		}
		return mo.None[*models.User](), fmt.Errorf("failed to get user by API key: %w", err)
	}

	return mo.Some(&user), nil
}

func (r *PostgresUsersRepository) GetUserByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.User], error) {
	if id == "" {
		return mo.None[*models.User](), fmt.Errorf("user ID cannot be empty")
	}

	columnsStr := strings.Join(usersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.users
		WHERE id = $1`, columnsStr, r.schema)

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.User](), nil
		}
		return mo.None[*models.User](), fmt.Errorf("failed to get user by ID: %w", err)
	}

	return mo.Some(&user), nil
}

func (r *PostgresUsersRepository) CreateUser(
	ctx context.Context,
	user *models.User,
) error {
	columnsStr := strings.Join(usersColumns, ", ")
	query := fmt.Sprintf(`
		INSERT INTO %s.users (id, email, api_key)
		VALUES ($1, $2, $3)
		RETURNING %s`, r.schema, columnsStr)

	err := r.db.QueryRowxContext(ctx, query, user.ID, user.Email, user.APIKey).
		StructScan(user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}
