// Package subscribe реализует HTTP-обработчик ручной активации подписки.
//
// Активация безусловна: статус и дата истечения перезаписываются независимо
// от прежнего состояния. Неизвестный username — ошибка 404, а не тихий no-op.
package subscribe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/response"
	"github.com/magabrotheeeer/transcript-gateway/internal/lib/sl"
	"github.com/magabrotheeeer/transcript-gateway/internal/storage"
)

// Request — тело запроса активации подписки.
type Request struct {
	Username string `json:"username" validate:"required"`
}

// Service описывает интерфейс бизнес-логики активации подписки.
type Service interface {
	Activate(ctx context.Context, username string) (time.Time, error)
}

// Handler обрабатывает запросы на активацию подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активировать подписку пользователя
// @Description Выставляет статус active и дату истечения через 30 дней
// @Tags subscription
// @Accept  json
// @Produce json
// @Param   request body Request true "Имя пользователя"
// @Success 200 {object} response.Response "Подписка активирована"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /subscribe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribe"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		validateErr := err.(validator.ValidationErrors)
		log.Error("invalid request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErr))
		return
	}

	expiry, err := h.service.Activate(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Error("user not found", slog.String("username", req.Username))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to activate subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to activate subscription"))
		return
	}

	log.Info("subscription activated", slog.String("username", req.Username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "subscription active until " + expiry.Format(time.RFC3339),
		"expiry":  expiry,
	}))
}
