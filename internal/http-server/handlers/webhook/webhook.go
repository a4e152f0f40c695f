// Package webhook реализует HTTP-обработчик уведомлений платёжного провайдера.
//
// Подпись проверяется до любого чтения полезной нагрузки; событие без валидной
// подписи не приводит ни к каким изменениям состояния.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/response"
	"github.com/magabrotheeeer/transcript-gateway/internal/lib/sl"
	"github.com/magabrotheeeer/transcript-gateway/internal/paymentprovider"
)

// maxBodySize ограничивает размер тела webhook-запроса.
const maxBodySize = 65536

// Service описывает интерфейс обработки проверенных событий провайдера.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, event *paymentprovider.Event) error
}

// Handler обрабатывает webhook-уведомления провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler с переданным логгером, сервисом и секретом подписи.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// ServeHTTP godoc
// @Summary Принять webhook-уведомление платёжного провайдера
// @Tags billing
// @Accept  json
// @Produce json
// @Param   Stripe-Signature header string true "Подпись уведомления"
// @Success 200 {object} map[string]string "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Невалидная подпись или событие"
// @Router /webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read body"))
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()

	event, err := paymentprovider.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		if errors.Is(err, paymentprovider.ErrInvalidSignature) {
			log.Error("invalid or missing webhook signature", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
		log.Error("failed to parse webhook event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed event"))
		return
	}

	if err := h.service.ProcessWebhookEvent(r.Context(), event); err != nil {
		if errors.Is(err, paymentprovider.ErrMalformedEvent) {
			log.Error("malformed webhook event", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("malformed event"))
			return
		}
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type))
	render.JSON(w, r, map[string]string{"status": "success"})
}
