// Package transcriptprovider реализует клиент внешнего сервиса субтитров.
//
// Клиент загружает страницу просмотра видео, находит в ней список дорожек
// субтитров и скачивает дорожку нужного языка в формате json3. Никакого
// кеширования: каждый запрос уходит наружу.
package transcriptprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Ошибки провайдера субтитров. Текст возвращается клиенту как есть.
var (
	// ErrVideoUnavailable — видео не существует или недоступно.
	ErrVideoUnavailable = errors.New("video is unavailable")
	// ErrCaptionsDisabled — для видео отключены субтитры.
	ErrCaptionsDisabled = errors.New("captions are disabled for this video")
	// ErrLanguageNotFound — нет дорожки для запрошенного языка.
	ErrLanguageNotFound = errors.New("no captions for requested language")
)

const maxWatchPageSize = 10 << 20

var captionTracksRe = regexp.MustCompile(`"captionTracks":(\[.*?\])`)

// Client — HTTP-клиент сервиса субтитров.
type Client struct {
	watchURL   string
	userAgent  string
	httpClient *http.Client
}

// NewClient создаёт новый клиент с ограниченным таймаутом исходящих запросов.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		watchURL:  "https://www.youtube.com/watch",
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchTranscript возвращает фрагменты субтитров видео в исходном порядке.
func (c *Client) FetchTranscript(ctx context.Context, videoID, language string) ([]Segment, error) {
	const op = "transcriptprovider.FetchTranscript"

	tracks, err := c.fetchCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	track, ok := pickTrack(tracks, language)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrLanguageNotFound)
	}

	segments, err := c.fetchTrack(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return segments, nil
}

func (c *Client) fetchCaptionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	pageURL := c.watchURL + "?v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWatchPageSize))
	if err != nil {
		return nil, err
	}
	page := string(body)

	match := captionTracksRe.FindStringSubmatch(page)
	if match == nil {
		if strings.Contains(page, `"status":"ERROR"`) {
			return nil, ErrVideoUnavailable
		}
		return nil, ErrCaptionsDisabled
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
		return nil, fmt.Errorf("parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, ErrCaptionsDisabled
	}
	return tracks, nil
}

// pickTrack выбирает дорожку по языку: точное совпадение предпочтительнее
// регионального варианта, загруженные вручную субтитры — предпочтительнее
// автоматических.
func pickTrack(tracks []captionTrack, language string) (captionTrack, bool) {
	var fallback *captionTrack
	for i, track := range tracks {
		if track.LanguageCode == language {
			if track.Kind != "asr" {
				return track, true
			}
			if fallback == nil {
				fallback = &tracks[i]
			}
		}
		if strings.HasPrefix(track.LanguageCode, language+"-") && fallback == nil {
			fallback = &tracks[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return captionTrack{}, false
}

func (c *Client) fetchTrack(ctx context.Context, baseURL string) ([]Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"&fmt=json3", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var payload json3Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse captions: %w", err)
	}

	var segments []Segment
	for _, event := range payload.Events {
		var sb strings.Builder
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:    text,
			StartMs: event.TStartMs,
		})
	}
	return segments, nil
}
