// Package app собирает приложение: хранилище, сервисы, маршруты и HTTP-сервер.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/transcript-gateway/internal/config"
	"github.com/magabrotheeeer/transcript-gateway/internal/lib/jwt"
	"github.com/magabrotheeeer/transcript-gateway/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/transcript-gateway/internal/services/auth"
	billingservice "github.com/magabrotheeeer/transcript-gateway/internal/services/billing"
	subscriptionservice "github.com/magabrotheeeer/transcript-gateway/internal/services/subscription"
	transcriptservice "github.com/magabrotheeeer/transcript-gateway/internal/services/transcript"
	"github.com/magabrotheeeer/transcript-gateway/internal/storage"
	"github.com/magabrotheeeer/transcript-gateway/internal/transcriptprovider"
)

// App — собранное приложение с HTTP-сервером и хранилищем.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     storage.Storage
}

// New создаёт приложение из конфига: открывает хранилище, собирает сервисы
// и регистрирует маршруты.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.APIKey)
	transcriptClient := transcriptprovider.NewClient(cfg.TimeoutUpstream)

	authService := authservice.NewAuthService(db, jwtMaker)
	subscriptionService := subscriptionservice.NewSubscriptionService(db, logger)
	transcriptService := transcriptservice.NewTranscriptService(subscriptionService, transcriptClient, cfg.Language, logger)
	billingService := billingservice.NewBillingService(providerClient, subscriptionService, db, cfg.Stripe, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:         authService,
		Subscription: subscriptionService,
		Transcript:   transcriptService,
		Billing:      billingService,
		DB:           db,
	}, jwtMaker, cfg)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.db.Close()
		return err
	}
}
