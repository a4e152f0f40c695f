package subscribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/transcript-gateway/internal/storage"
)

// Мок сервиса с методом Activate
type SubscriptionServiceMock struct {
	mock.Mock
}

func (m *SubscriptionServiceMock) Activate(ctx context.Context, username string) (time.Time, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(time.Time), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSubscribeHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(SubscriptionServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock)

	expiry := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockExpiry     time.Time
		mockErr        error
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name: "valid activation",
			requestBody: Request{
				Username: "user1",
			},
			mockExpiry:     expiry,
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"message": "subscription active until " + expiry.Format(time.RFC3339),
			},
			wantStatus: "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "failed to decode request",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing username",
			requestBody:    Request{},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Username is a required field",
			wantStatus:     "Error",
		},
		{
			name: "unknown user",
			requestBody: Request{
				Username: "ghost",
			},
			mockErr:        storage.ErrUserNotFound,
			wantStatusCode: http.StatusNotFound,
			wantError:      "user not found",
			wantStatus:     "Error",
		},
		{
			name: "storage error",
			requestBody: Request{
				Username: "user1",
			},
			mockErr:        errors.New("storage error"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to activate subscription",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			switch tt.name {
			case "valid activation", "unknown user", "storage error":
				serviceMock.On("Activate", mock.Anything,
					mock.Anything,
				).Return(tt.mockExpiry, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/subscribe", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			}

			if tt.wantData != nil {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				for k, v := range tt.wantData {
					assert.Equal(t, v, data[k])
				}
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
