// Package services содержит логику бизнес-уровня для регистрации и аутентификации.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/transcript-gateway/internal/lib/jwt"
	"github.com/magabrotheeeer/transcript-gateway/internal/lib/password"
	"github.com/magabrotheeeer/transcript-gateway/internal/models"
	"github.com/magabrotheeeer/transcript-gateway/internal/storage"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
// Несуществующий пользователь и неверный пароль снаружи неразличимы.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его ID.
	RegisterUser(ctx context.Context, user models.User) (int64, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// LoginResult — результат успешного логина: токен сессии и текущее
// состояние подписки.
type LoginResult struct {
	Token              string
	SubscriptionStatus string
	SubscriptionExpiry *time.Time
}

// AuthService отвечает за регистрацию и авторизацию пользователей.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля и подпиской
// в дефолтном состоянии inactive. Занятый username отдаётся как ошибка
// хранилища ErrUsernameTaken.
func (s *AuthService) Register(ctx context.Context, username, rawPassword string) (int64, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return 0, err
	}
	user := models.User{
		UID:                uuid.NewString(),
		Username:           username,
		PasswordHash:       hashed,
		SubscriptionStatus: models.SubscriptionInactive,
	}
	return s.users.RegisterUser(ctx, user)
}

// Login проверяет пароль пользователя и генерирует JWT сессии.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{
		Token:              token,
		SubscriptionStatus: user.SubscriptionStatus,
		SubscriptionExpiry: user.SubscriptionExpiry,
	}, nil
}
