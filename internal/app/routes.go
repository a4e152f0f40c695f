// Package app предоставляет маршруты приложения.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/transcript-gateway/internal/config"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/handlers/checkout"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/handlers/health"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/handlers/login"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/handlers/register"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/handlers/subscribe"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/handlers/transcript"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/handlers/webhook"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/mware"
	"github.com/magabrotheeeer/transcript-gateway/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/transcript-gateway/internal/services/auth"
	billingservice "github.com/magabrotheeeer/transcript-gateway/internal/services/billing"
	subscriptionservice "github.com/magabrotheeeer/transcript-gateway/internal/services/subscription"
	transcriptservice "github.com/magabrotheeeer/transcript-gateway/internal/services/transcript"
	"github.com/magabrotheeeer/transcript-gateway/internal/storage"
)

// Services — зависимости обработчиков, собранные в App.New.
type Services struct {
	Auth         *authservice.AuthService
	Subscription *subscriptionservice.SubscriptionService
	Transcript   *transcriptservice.TranscriptService
	Billing      *billingservice.BillingService
	DB           storage.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, services *Services, jwtMaker jwt.Maker, cfg *config.Config) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Открытые конечные точки
	r.Post("/register", register.New(logger, services.Auth).ServeHTTP)
	r.Post("/login", login.New(logger, services.Auth).ServeHTTP)
	r.Post("/subscribe", subscribe.New(logger, services.Subscription).ServeHTTP)

	// Группа с JWT аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(mware.JWTMiddleware(jwtMaker, logger))
		r.Use(mware.RateLimitMiddleware(logger))
		r.Post("/transcript", transcript.New(logger, services.Transcript).ServeHTTP)
		r.Post("/create-checkout-session", checkout.New(logger, services.Billing).ServeHTTP)
	})

	// Webhook endpoint (без аутентификации, защищён подписью провайдера)
	r.Post("/webhook", webhook.New(logger, services.Billing, cfg.WebhookSecret).ServeHTTP)

	r.Get("/health", health.New(logger, services.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)

	// Статические страницы возврата после оплаты
	fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
	r.Handle("/static/*", fs)
}
