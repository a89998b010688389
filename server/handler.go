package server

import (
	"context"
	"fmt"

	"github.com/Hungichi/melodies-BE/config"
	"github.com/Hungichi/melodies-BE/core/auth"
	"github.com/Hungichi/melodies-BE/model"
	"github.com/Hungichi/melodies-BE/repository"
	"github.com/Hungichi/melodies-BE/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	userRepo    repository.UserRepository
	songRepo    repository.SongRepository
	requestRepo repository.ArtistRequestRepository
	store       storage.ObjectStorage
	tokens      *auth.TokenService
	cfg         *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	songRepo repository.SongRepository,
	requestRepo repository.ArtistRequestRepository,
	store storage.ObjectStorage,
	tokens *auth.TokenService,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:    userRepo,
		songRepo:    songRepo,
		requestRepo: requestRepo,
		store:       store,
		tokens:      tokens,
		cfg:         cfg,
	}
}

type contextKey string

const (
	userIDKey contextKey = "userID"
	userKey   contextKey = "user"
)

// GetUserIDFromContext extracts the authenticated user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// GetUserFromContext extracts the resolved user from the request context.
// Only set on routes wrapped with RequireRole.
func GetUserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}
