// Package services содержит бизнес-логику выдачи расшифровок видео.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/transcript-gateway/internal/lib/videoid"
	"github.com/magabrotheeeer/transcript-gateway/internal/transcriptprovider"
)

// ErrNotEntitled возвращается, когда у пользователя нет действующей подписки.
var ErrNotEntitled = errors.New("active subscription required")

// UpstreamError помечает ошибку внешнего сервиса субтитров. Её текст отдаётся
// клиенту как есть, в отличие от внутренних ошибок сервиса.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

// Entitlements проверяет право пользователя на доступ.
type Entitlements interface {
	IsEntitled(ctx context.Context, username string) (bool, error)
}

// Provider описывает контракт внешнего сервиса субтитров.
type Provider interface {
	FetchTranscript(ctx context.Context, videoID, language string) ([]transcriptprovider.Segment, error)
}

// TranscriptService выдаёт расшифровку видео подписчикам.
type TranscriptService struct {
	entitlements Entitlements
	provider     Provider
	language     string
	log          *slog.Logger
}

// NewTranscriptService создает новый экземпляр TranscriptService.
func NewTranscriptService(entitlements Entitlements, provider Provider, language string, log *slog.Logger) *TranscriptService {
	return &TranscriptService{
		entitlements: entitlements,
		provider:     provider,
		language:     language,
		log:          log,
	}
}

// Fetch возвращает полный текст субтитров видео одной строкой.
//
// Имя пользователя берётся из проверенного токена сессии. Ссылка на видео
// нормализуется к каноническому идентификатору, фрагменты субтитров
// склеиваются через пробел с сохранением исходного порядка. Ошибка провайдера
// возвращается вызывающему без повторных попыток.
func (s *TranscriptService) Fetch(ctx context.Context, username, videoReference string) (string, error) {
	const op = "services.transcript.Fetch"

	entitled, err := s.entitlements.IsEntitled(ctx, username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !entitled {
		return "", ErrNotEntitled
	}

	id := videoid.Normalize(videoReference)
	segments, err := s.provider.FetchTranscript(ctx, id, s.language)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}

	texts := make([]string, 0, len(segments))
	for _, segment := range segments {
		texts = append(texts, segment.Text)
	}
	s.log.Info("transcript fetched",
		slog.String("username", username),
		slog.String("video_id", id),
		slog.Int("segments", len(segments)))
	return strings.Join(texts, " "), nil
}
