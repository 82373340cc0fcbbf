package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-manager/internal/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	authservice "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Refresh(ctx context.Context, refreshToken string) (*authservice.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	res, _ := args.Get(0).(*authservice.AuthResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRefreshHandler_ServeHTTP(t *testing.T) {
	okResult := &authservice.AuthResult{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		User:         models.PublicUser{UID: "uid-1"},
	}

	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(m *ServiceMock)
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "valid refresh returns new pair",
			requestBody: Request{RefreshToken: "old-refresh"},
			setupMock: func(m *ServiceMock) {
				m.On("Refresh", mock.Anything, "old-refresh").Return(okResult, nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing token field",
			requestBody:    Request{},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field RefreshToken is a required field",
		},
		{
			name:        "revoked or replayed token",
			requestBody: Request{RefreshToken: "stolen-token"},
			setupMock: func(m *ServiceMock) {
				m.On("Refresh", mock.Anything, "stolen-token").
					Return(nil, fmt.Errorf("services.auth.Refresh: %w", apperr.ErrUnauthorized)).Once()
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "invalid refresh token",
		},
		{
			name:           "invalid json body",
			requestBody:    "]]",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			handler := New(newNoopLogger(), svc)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "new-access", data["access_token"])
				assert.Equal(t, "new-refresh", data["refresh_token"])
			}

			svc.AssertExpectations(t)
		})
	}
}
