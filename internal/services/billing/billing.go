// Package services содержит бизнес-логику оплаты подписки через Checkout-сессии
// платёжного провайдера и обработку его webhook-уведомлений.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/magabrotheeeer/transcript-gateway/internal/config"
	"github.com/magabrotheeeer/transcript-gateway/internal/lib/sl"
	"github.com/magabrotheeeer/transcript-gateway/internal/paymentprovider"
)

// checkoutEventType — тип события провайдера об успешно завершённой оплате.
const checkoutEventType = "checkout.session.completed"

// ProviderClient определяет интерфейс для работы с платёжным провайдером.
type ProviderClient interface {
	CreateCheckoutSession(ctx context.Context, reqParams paymentprovider.CreateCheckoutSessionRequest) (*paymentprovider.CheckoutSession, error)
}

// SubscriptionActivator активирует подписку пользователя.
type SubscriptionActivator interface {
	Activate(ctx context.Context, username string) (time.Time, error)
}

// EventRepository фиксирует обработанные события для защиты от повторной доставки.
type EventRepository interface {
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
	UnmarkEvent(ctx context.Context, eventID string) error
}

// BillingService создаёт Checkout-сессии и активирует подписку по событию оплаты.
type BillingService struct {
	provider      ProviderClient
	subscriptions SubscriptionActivator
	events        EventRepository
	cfg           config.Stripe
	log           *slog.Logger
}

// NewBillingService создает новый экземпляр BillingService.
func NewBillingService(provider ProviderClient, subscriptions SubscriptionActivator, events EventRepository, cfg config.Stripe, log *slog.Logger) *BillingService {
	return &BillingService{
		provider:      provider,
		subscriptions: subscriptions,
		events:        events,
		cfg:           cfg,
		log:           log,
	}
}

// CreateCheckout создаёт у провайдера одноразовую Checkout-сессию для
// фиксированного товара и возвращает её URL. Имя пользователя кладётся в
// query-параметр URL возврата, чтобы webhook мог его восстановить.
func (s *BillingService) CreateCheckout(ctx context.Context, username string) (string, error) {
	const op = "services.billing.CreateCheckout"

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CreateCheckoutSessionRequest{
		PriceID:           s.cfg.PriceID,
		Quantity:          1,
		SuccessURL:        s.cfg.Domain + "/static/success.html?username=" + url.QueryEscape(username),
		CancelURL:         s.cfg.Domain + "/static/cancel.html",
		ClientReferenceID: username,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("checkout session created",
		slog.String("username", username),
		slog.String("session_id", session.ID))
	return session.URL, nil
}

// ProcessWebhookEvent обрабатывает уже проверенное по подписи событие провайдера.
//
// Завершённая Checkout-сессия активирует подписку ровно один раз: идентификатор
// события фиксируется в хранилище, повторная доставка подтверждается без
// повторной активации. Любые другие типы событий подтверждаются и игнорируются.
func (s *BillingService) ProcessWebhookEvent(ctx context.Context, event *paymentprovider.Event) error {
	const op = "services.billing.ProcessWebhookEvent"

	if event.Type != checkoutEventType {
		s.log.Info("ignored webhook event", slog.String("event_type", event.Type))
		return nil
	}

	var session paymentprovider.CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return fmt.Errorf("%s: %w: %s", op, paymentprovider.ErrMalformedEvent, err)
	}

	username := usernameFromSession(&session)
	if username == "" {
		return fmt.Errorf("%s: %w: no username in checkout session", op, paymentprovider.ErrMalformedEvent)
	}

	first, err := s.events.MarkEventProcessed(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !first {
		s.log.Info("webhook event already processed",
			slog.String("event_id", event.ID),
			slog.String("username", username))
		return nil
	}

	expiry, err := s.subscriptions.Activate(ctx, username)
	if err != nil {
		// Снимаем отметку, иначе повторная доставка события провайдером
		// будет подтверждена без активации и оплата потеряется.
		if uerr := s.events.UnmarkEvent(ctx, event.ID); uerr != nil {
			s.log.Error("failed to unmark event after activation failure",
				slog.String("event_id", event.ID), sl.Err(uerr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription activated by payment",
		slog.String("event_id", event.ID),
		slog.String("username", username),
		slog.Time("expiry", expiry))
	return nil
}

// usernameFromSession достаёт имя пользователя из URL возврата сессии,
// при его отсутствии — из client_reference_id.
func usernameFromSession(session *paymentprovider.CheckoutSession) string {
	if u, err := url.Parse(session.SuccessURL); err == nil {
		if username := u.Query().Get("username"); username != "" {
			return username
		}
	}
	return session.ClientReferenceID
}
