// Package transcript реализует HTTP-обработчик выдачи расшифровки видео.
//
// Имя пользователя берётся из контекста запроса, куда его кладёт JWT
// middleware. Тело запроса содержит только ссылку на видео — идентификатор
// или полный URL страницы просмотра.
package transcript

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/mware"
	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/response"
	"github.com/magabrotheeeer/transcript-gateway/internal/lib/sl"
	transcriptservice "github.com/magabrotheeeer/transcript-gateway/internal/services/transcript"
)

// Request — тело запроса расшифровки.
type Request struct {
	VideoID string `json:"video_id" validate:"required"`
}

// Service описывает интерфейс бизнес-логики выдачи расшифровок.
type Service interface {
	Fetch(ctx context.Context, username, videoReference string) (string, error)
}

// Handler обрабатывает запросы на получение расшифровки.
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
// @Summary Получить расшифровку видео
// @Description Возвращает полный текст субтитров видео одной строкой
// @Tags transcript
// @Accept  json
// @Produce json
// @Param   request body Request true "Идентификатор видео или URL страницы просмотра"
// @Success 200 {object} response.Response "Текст расшифровки"
// @Failure 400 {object} response.ErrorResponse "Ошибка внешнего сервиса субтитров"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет действующей подписки"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервиса"
// @Router /transcript [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transcript"
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

	text, err := h.service.Fetch(r.Context(), username, req.VideoID)
	if err != nil {
		if errors.Is(err, transcriptservice.ErrNotEntitled) {
			log.Error("user is not entitled", slog.String("username", username))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("active subscription required"))
			return
		}
		var upstreamErr *transcriptservice.UpstreamError
		if errors.As(err, &upstreamErr) {
			// Ошибка провайдера отдаётся клиенту с исходным текстом, без повторных попыток.
			log.Error("upstream transcript error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		log.Error("failed to fetch transcript", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch transcript"))
		return
	}

	log.Info("transcript returned", slog.String("username", username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"transcript": text,
	}))
}
