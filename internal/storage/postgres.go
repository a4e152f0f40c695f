package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/transcript-gateway/internal/migrations"
	"github.com/magabrotheeeer/transcript-gateway/internal/models"
)

// PostgresStorage реализует Storage поверх PostgreSQL.
type PostgresStorage struct {
	DB *sql.DB
}

// NewPostgres создаёт подключение к PostgreSQL и накатывает миграции.
func NewPostgres(dsn, migrationsPath string) (*PostgresStorage, error) {
	const op = "storage.NewPostgres"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db, migrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStorage{DB: db}, nil
}

// RegisterUser сохраняет нового пользователя и возвращает его ID.
func (s *PostgresStorage) RegisterUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.postgres.RegisterUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, username, password_hash, subscription_status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		user.UID, user.Username, user.PasswordHash, user.SubscriptionStatus).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgres.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, uid, username, password_hash, subscription_status,
			      subscription_expiry, created_at
			  FROM users
			  WHERE username = $1`
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
func (s *PostgresStorage) ActivateSubscription(ctx context.Context, username string, expiry time.Time) error {
	const op = "storage.postgres.ActivateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1,
			      subscription_expiry = $2
			  WHERE username = $3`
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
func (s *PostgresStorage) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	const op = "storage.postgres.MarkEventProcessed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO processed_events (event_id) VALUES ($1)
			  ON CONFLICT (event_id) DO NOTHING`
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
func (s *PostgresStorage) UnmarkEvent(ctx context.Context, eventID string) error {
	const op = "storage.postgres.UnmarkEvent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM processed_events WHERE event_id = $1`
	if _, err := s.DB.ExecContext(ctx, query, eventID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping проверяет доступность базы.
func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает соединение с базой.
func (s *PostgresStorage) Close() error {
	return s.DB.Close()
}
