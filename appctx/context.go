package appctx

import (
	"context"

	"rolebridge/models"
)

// Context key for storing the acting user entity
type contextKey string

const UserContextKey contextKey = "user"

// SetUser adds the acting user entity to the request context
func SetUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUser extracts the acting user entity from the request context
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}
