package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "modernc.org/sqlite"

	"github.com/magabrotheeeer/transcript-gateway/internal/models"
)

// sqliteUniqueConstraint — код ошибки SQLITE_CONSTRAINT_UNIQUE.
const sqliteUniqueConstraint = 2067

// SQLiteStorage реализует Storage поверх файловой базы SQLite.
type SQLiteStorage struct {
	DB *sql.DB
}

// NewSQLite открывает (или создаёт) файловую базу и инициализирует схему.
func NewSQLite(dsn string) (*SQLiteStorage, error) {
	const op = "storage.NewSQLite"

	// Для базы в памяти нужен общий кеш, иначе каждое соединение пула
	// получает свою пустую базу.
	if dsn == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: set WAL mode: %w", op, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: enable foreign keys: %w", op, err)
	}

	s := &SQLiteStorage{DB: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			subscription_status TEXT NOT NULL DEFAULT 'inactive',
			subscription_expiry DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE TABLE IF NOT EXISTS processed_events (
			event_id TEXT PRIMARY KEY,
			processed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := s.DB.Exec(m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// RegisterUser сохраняет нового пользователя и возвращает его ID.
func (s *SQLiteStorage) RegisterUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.sqlite.RegisterUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, username, password_hash, subscription_status)
			  VALUES (?, ?, ?, ?)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		user.UID, user.Username, user.PasswordHash, user.SubscriptionStatus).Scan(&newID)
	if err != nil {
		var serr *sqlite3.Error
		if errors.As(err, &serr) && serr.Code() == sqliteUniqueConstraint {
			return 0, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.sqlite.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, username, password_hash, subscription_status,
			      subscription_expiry, created_at
			  FROM users
			  WHERE username = ?`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)

	var subscriptionExpiry sql.NullTime
	if err := row.Scan(&u.ID, &u.UID, &u.Username, &u.PasswordHash,
		&u.SubscriptionStatus, &subscriptionExpiry, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if subscriptionExpiry.Valid {
		u.SubscriptionExpiry = &subscriptionExpiry.Time
	}
	return u, nil
}

// ActivateSubscription выставляет статус active и новую дату истечения подписки.
func (s *SQLiteStorage) ActivateSubscription(ctx context.Context, username string, expiry time.Time) error {
	const op = "storage.sqlite.ActivateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = ?,
			      subscription_expiry = ?
			  WHERE username = ?`
	result, err := s.DB.ExecContext(ctx, query, models.SubscriptionActive, expiry, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// MarkEventProcessed фиксирует идентификатор события оплаты.
// Возвращает false, если событие уже было обработано ранее.
func (s *SQLiteStorage) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	const op = "storage.sqlite.MarkEventProcessed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT OR IGNORE INTO processed_events (event_id) VALUES (?)`
	result, err := s.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected > 0, nil
}

// UnmarkEvent снимает отметку об обработке события.
func (s *SQLiteStorage) UnmarkEvent(ctx context.Context, eventID string) error {
	const op = "storage.sqlite.UnmarkEvent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM processed_events WHERE event_id = ?`
	if _, err := s.DB.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает соединение с базой.
func (s *SQLiteStorage) Close() error {
	return s.DB.Close()
}
