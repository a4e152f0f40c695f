// Package services содержит бизнес-логику управления состоянием подписки.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/transcript-gateway/internal/models"
	"github.com/magabrotheeeer/transcript-gateway/internal/storage"
)

// subscriptionTerm — срок, на который продлевается подписка при активации.
const subscriptionTerm = 30 * 24 * time.Hour

// SubscriptionRepository определяет методы для работы с подпиской в хранилище.
type SubscriptionRepository interface {
	// GetUserByUsername возвращает пользователя или storage.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// ActivateSubscription выставляет статус active и дату истечения.
	ActivateSubscription(ctx context.Context, username string, expiry time.Time) error
}

// SubscriptionService реализует активацию подписки и проверку права доступа.
type SubscriptionService struct {
	repo SubscriptionRepository
	log  *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo: repo,
		log:  log,
	}
}

// Activate выставляет пользователю статус active и дату истечения через 30 дней
// от текущего момента, независимо от прежнего состояния. Возвращает новую дату
// истечения. Для неизвестного username возвращает storage.ErrUserNotFound.
func (s *SubscriptionService) Activate(ctx context.Context, username string) (time.Time, error) {
	expiry := time.Now().UTC().Add(subscriptionTerm)
	if err := s.repo.ActivateSubscription(ctx, username, expiry); err != nil {
		return time.Time{}, err
	}
	s.log.Info("subscription activated",
		slog.String("username", username),
		slog.Time("expiry", expiry))
	return expiry, nil
}

// IsEntitled сообщает, имеет ли пользователь оплаченный доступ прямо сейчас.
// Истёкшая, но не отменённая подписка доступа не даёт.
func (s *SubscriptionService) IsEntitled(ctx context.Context, username string) (bool, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsEntitled(time.Now()), nil
}
