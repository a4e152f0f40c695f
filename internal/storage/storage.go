// Package storage определяет интерфейс хранилища пользователей и предоставляет
// реализации на SQLite (файловая база по умолчанию) и PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/transcript-gateway/internal/config"
	"github.com/magabrotheeeer/transcript-gateway/internal/models"
)

// Ошибки хранилища, на которые завязана бизнес-логика.
var (
	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken возвращается при нарушении уникального индекса по username.
	// Уникальность обеспечивается на уровне базы, а не проверкой перед вставкой.
	ErrUsernameTaken = errors.New("username already taken")
)

// Storage описывает контракт хранилища пользователей и обработанных событий оплаты.
type Storage interface {
	// RegisterUser сохраняет нового пользователя и возвращает его числовой ID.
	// При занятом username возвращает ErrUsernameTaken.
	RegisterUser(ctx context.Context, user models.User) (int64, error)

	// GetUserByUsername возвращает пользователя или ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// ActivateSubscription выставляет статус active и дату истечения подписки.
	// Для неизвестного username возвращает ErrUserNotFound.
	ActivateSubscription(ctx context.Context, username string, expiry time.Time) error

	// MarkEventProcessed фиксирует идентификатор обработанного события оплаты.
	// Возвращает false, если событие уже было обработано ранее.
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)

	// UnmarkEvent снимает отметку об обработке события, чтобы повторная
	// доставка сработала после неудавшейся активации.
	UnmarkEvent(ctx context.Context, eventID string) error

	// Ping проверяет доступность базы.
	Ping(ctx context.Context) error

	// Close закрывает соединение с базой.
	Close() error
}

// New создаёт хранилище в зависимости от настроенного драйвера.
func New(cfg config.Storage) (Storage, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(cfg.DSN, cfg.MigrationsPath)
	case "sqlite", "":
		return NewSQLite(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}
