package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"propcost/internal/models"
	"propcost/internal/storage"
)

// Auth resolves the principal behind a session token. Tokens are issued
// by the application's login flow, not by this service.
type Auth interface {
	Authenticate(token string) (models.User, error)
	DeleteToken(token string) error
}

type AuthService struct {
	storage storage.Auth
	now     func() time.Time
}

func NewAuthService(storage storage.Auth) *AuthService {
	return &AuthService{
		storage: storage,
		now:     time.Now,
	}
}

// Authenticate returns the user owning token. Unknown and expired tokens
// yield models.ErrUnauthenticated; an expired token is cleared.
func (a *AuthService) Authenticate(token string) (models.User, error) {
	if token == "" {
		return models.User{}, models.ErrUnauthenticated
	}
	user, err := a.storage.GetUserByToken(token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUnauthenticated
		}
		return models.User{}, fmt.Errorf("lookup session: %w", err)
	}
	if user.ExpiresAt == nil || user.ExpiresAt.Before(a.now()) {
		if err := a.storage.DeleteToken(token); err != nil {
			return models.User{}, fmt.Errorf("delete expired session: %w", err)
		}
		return models.User{}, models.ErrUnauthenticated
	}
	user.IsAuth = true
	return user, nil
}

func (a *AuthService) DeleteToken(token string) error {
	return a.storage.DeleteToken(token)
}
