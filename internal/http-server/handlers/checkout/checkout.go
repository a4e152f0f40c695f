// Package checkout реализует HTTP-обработчик создания Checkout-сессии оплаты.
//
// Имя пользователя берётся из контекста запроса (JWT middleware), клиент
// получает URL платёжной страницы провайдера для редиректа.
package checkout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/mware"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/response"
	"github.com/magabrotheeeer/transcript-gateway/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики оплаты.
type Service interface {
	CreateCheckout(ctx context.Context, username string) (string, error)
}

// Handler обрабатывает запросы на создание Checkout-сессии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Создать Checkout-сессию оплаты подписки
// @Description Создает у провайдера сессию оплаты фиксированного товара и возвращает её URL
// @Tags billing
// @Produce json
// @Success 200 {object} response.Response "URL платёжной страницы"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка платёжного провайдера"
// @Router /create-checkout-session [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := mware.Username(r.Context())
	if !ok {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	checkoutURL, err := h.service.CreateCheckout(r.Context(), username)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("checkout session created", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"url": checkoutURL,
	}))
}
