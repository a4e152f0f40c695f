package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/transcript-gateway/internal/http-server/mware"
)

// Мок сервиса с методом CreateCheckout
type BillingServiceMock struct {
	mock.Mock
}

func (m *BillingServiceMock) CreateCheckout(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCheckoutHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(BillingServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock)

	tests := []struct {
		name           string
		withUsername   bool
		mockURL        string
		mockErr        error
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name:           "valid checkout",
			withUsername:   true,
			mockURL:        "https://checkout.stripe.com/c/pay/cs_test_123",
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"url": "https://checkout.stripe.com/c/pay/cs_test_123",
			},
			wantStatus: "OK",
		},
		{
			name:           "no username in context",
			withUsername:   false,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
			wantStatus:     "Error",
		},
		{
			name:           "provider error",
			withUsername:   true,
			mockErr:        errors.New("provider returned status 500"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "provider returned status 500",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.withUsername {
				serviceMock.On("CreateCheckout", mock.Anything,
					mock.Anything,
				).Return(tt.mockURL, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", nil)
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.withUsername {
				ctx = context.WithValue(ctx, mware.User, "user1")
			}
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
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
