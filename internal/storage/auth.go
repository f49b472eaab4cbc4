package storage

import (
	"database/sql"
	"time"

	"propcost/internal/models"
)

// Auth resolves session tokens issued by the application's login flow.
type Auth interface {
	GetUserByToken(token string) (models.User, error)
	DeleteToken(token string) error
}

type AuthStorage struct {
	db *sql.DB
}

func NewAuthStorage(db *sql.DB) *AuthStorage {
	return &AuthStorage{
		db: db,
	}
}

const getUserByTokenQuery = `SELECT id, email, username, role, expiresAt FROM user WHERE session_token = ?;`

func (a *AuthStorage) GetUserByToken(token string) (models.User, error) {
	var (
		user      models.User
		expiresAt sql.NullTime
	)
	err := a.db.QueryRow(getUserByTokenQuery, token).
		Scan(&user.Id, &user.Email, &user.Username, &user.Role, &expiresAt)
	if err != nil {
		return models.User{}, err
	}
	if !expiresAt.Valid {
		return models.User{}, sql.ErrNoRows
	}
	exp := expiresAt.Time
	user.ExpiresAt = &exp
	return user, nil
}

func (a *AuthStorage) DeleteToken(token string) error {
	query := `UPDATE user SET session_token = NULL, expiresAt = NULL WHERE session_token = ?;`
	if _, err := a.db.Exec(query, token); err != nil {
		return err
	}
	return nil
}

// SaveToken attaches a session token to the user with the given username.
func (a *AuthStorage) SaveToken(token string, expired time.Time, username string) error {
	query := `UPDATE user SET session_token = ?, expiresAt = ? WHERE username = ?;`
	if _, err := a.db.Exec(query, token, expired, username); err != nil {
		return err
	}
	return nil
}
