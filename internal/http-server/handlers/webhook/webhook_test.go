package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/transcript-gateway/internal/paymentprovider"
)

const testSecret = "whsec_test_secret"

// Мок сервиса с методом ProcessWebhookEvent
type BillingServiceMock struct {
	mock.Mock
}

func (m *BillingServiceMock) ProcessWebhookEvent(ctx context.Context, event *paymentprovider.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

// signPayload строит заголовок Stripe-Signature для тела запроса.
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func validEventPayload(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":      "evt_test_123",
		"type":    "checkout.session.completed",
		"created": time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id":                  "cs_test_123",
				"client_reference_id": "user1",
				"payment_status":      "paid",
				"success_url":         "http://localhost:8080/static/success.html?username=user1",
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestWebhookHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(BillingServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock, testSecret)

	tests := []struct {
		name           string
		signature      func(payload []byte) string
		mockErr        error
		callService    bool
		wantStatusCode int
		wantError      string
	}{
		{
			name: "valid event",
			signature: func(payload []byte) string {
				return signPayload(payload, testSecret, time.Now())
			},
			callService:    true,
			wantStatusCode: http.StatusOK,
		},
		{
			name: "missing signature header",
			signature: func(payload []byte) string {
				return ""
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid signature",
		},
		{
			name: "wrong secret",
			signature: func(payload []byte) string {
				return signPayload(payload, "whsec_other_secret", time.Now())
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid signature",
		},
		{
			name: "stale timestamp",
			signature: func(payload []byte) string {
				return signPayload(payload, testSecret, time.Now().Add(-time.Hour))
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid signature",
		},
		{
			name: "malformed event from service",
			signature: func(payload []byte) string {
				return signPayload(payload, testSecret, time.Now())
			},
			mockErr:        paymentprovider.ErrMalformedEvent,
			callService:    true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "malformed event",
		},
		{
			name: "service error",
			signature: func(payload []byte) string {
				return signPayload(payload, testSecret, time.Now())
			},
			mockErr:        errors.New("storage error"),
			callService:    true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to process event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.callService {
				serviceMock.On("ProcessWebhookEvent", mock.Anything,
					mock.Anything,
				).Return(tt.mockErr).Once()
			}

			payload := validEventPayload(t)

			req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
			req.Header.Set("Stripe-Signature", tt.signature(payload))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				assert.Equal(t, "success", got["status"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
