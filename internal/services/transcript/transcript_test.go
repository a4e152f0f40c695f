package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	services "github.com/magabrotheeeer/transcript-gateway/internal/services/transcript"
	"github.com/magabrotheeeer/transcript-gateway/internal/transcriptprovider"
)

// Мок для Entitlements
type EntitlementsMock struct {
	mock.Mock
}

func (m *EntitlementsMock) IsEntitled(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// Мок для Provider
type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) FetchTranscript(ctx context.Context, videoID, language string) ([]transcriptprovider.Segment, error) {
	args := m.Called(ctx, videoID, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]transcriptprovider.Segment), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestTranscriptService_Fetch(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		reference  string
		setupMocks func(e *EntitlementsMock, p *ProviderMock)
		wantText   string
		wantErr    error
	}{
		{
			name:      "segments joined with spaces",
			username:  "testuser",
			reference: "dQw4w9WgXcQ",
			setupMocks: func(e *EntitlementsMock, p *ProviderMock) {
				e.On("IsEntitled", mock.Anything, "testuser").Return(true, nil).Once()
				p.On("FetchTranscript", mock.Anything, "dQw4w9WgXcQ", "en").Return([]transcriptprovider.Segment{
					{Text: "never gonna"},
					{Text: "give you"},
					{Text: "up"},
				}, nil).Once()
			},
			wantText: "never gonna give you up",
		},
		{
			name:      "watch url is normalized to video id",
			username:  "testuser",
			reference: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			setupMocks: func(e *EntitlementsMock, p *ProviderMock) {
				e.On("IsEntitled", mock.Anything, "testuser").Return(true, nil).Once()
				p.On("FetchTranscript", mock.Anything, "dQw4w9WgXcQ", "en").Return([]transcriptprovider.Segment{
					{Text: "hello"},
				}, nil).Once()
			},
			wantText: "hello",
		},
		{
			name:      "not entitled",
			username:  "freeloader",
			reference: "dQw4w9WgXcQ",
			setupMocks: func(e *EntitlementsMock, p *ProviderMock) {
				e.On("IsEntitled", mock.Anything, "freeloader").Return(false, nil).Once()
			},
			wantErr: services.ErrNotEntitled,
		},
		{
			name:      "entitlement check error",
			username:  "testuser",
			reference: "dQw4w9WgXcQ",
			setupMocks: func(e *EntitlementsMock, p *ProviderMock) {
				e.On("IsEntitled", mock.Anything, "testuser").
					Return(false, errors.New("connection refused")).Once()
			},
			wantErr: errors.New("connection refused"),
		},
		{
			name:      "provider error passed through",
			username:  "testuser",
			reference: "dQw4w9WgXcQ",
			setupMocks: func(e *EntitlementsMock, p *ProviderMock) {
				e.On("IsEntitled", mock.Anything, "testuser").Return(true, nil).Once()
				p.On("FetchTranscript", mock.Anything, "dQw4w9WgXcQ", "en").
					Return(nil, transcriptprovider.ErrCaptionsDisabled).Once()
			},
			wantErr: transcriptprovider.ErrCaptionsDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entitlementsMock := new(EntitlementsMock)
			providerMock := new(ProviderMock)
			tt.setupMocks(entitlementsMock, providerMock)

			svc := services.NewTranscriptService(entitlementsMock, providerMock, "en", newNoopLogger())

			text, err := svc.Fetch(context.Background(), tt.username, tt.reference)

			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantText, text)
			}
			entitlementsMock.AssertExpectations(t)
			providerMock.AssertExpectations(t)
		})
	}
}

// Ошибки провайдера помечаются как UpstreamError, внутренние ошибки — нет.
func TestTranscriptService_Fetch_UpstreamErrorMarking(t *testing.T) {
	entitlementsMock := new(EntitlementsMock)
	providerMock := new(ProviderMock)

	entitlementsMock.On("IsEntitled", mock.Anything, "testuser").Return(true, nil).Once()
	providerMock.On("FetchTranscript", mock.Anything, "dQw4w9WgXcQ", "en").
		Return(nil, transcriptprovider.ErrVideoUnavailable).Once()

	svc := services.NewTranscriptService(entitlementsMock, providerMock, "en", newNoopLogger())

	_, err := svc.Fetch(context.Background(), "testuser", "dQw4w9WgXcQ")

	var upstreamErr *services.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
	assert.ErrorIs(t, err, transcriptprovider.ErrVideoUnavailable)

	// Ошибка проверки подписки — внутренняя, без пометки upstream
	entitlementsMock2 := new(EntitlementsMock)
	entitlementsMock2.On("IsEntitled", mock.Anything, "testuser").
		Return(false, errors.New("connection refused")).Once()

	svc2 := services.NewTranscriptService(entitlementsMock2, new(ProviderMock), "en", newNoopLogger())

	_, err = svc2.Fetch(context.Background(), "testuser", "dQw4w9WgXcQ")
	assert.Error(t, err)
	assert.False(t, errors.As(err, &upstreamErr))
}
