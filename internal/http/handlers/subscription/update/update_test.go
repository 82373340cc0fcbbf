package update

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-manager/internal/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Update(ctx context.Context, id int, upd models.DummySubscriptionUpdate) error {
	return m.Called(ctx, id, upd).Error(0)
}

func strPtr(s string) *string { return &s }

func TestUpdateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		id             string
		body           any
		setupMock      func(*ServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное обновление статуса",
			id:   "1",
			body: models.DummySubscriptionUpdate{Status: strPtr(models.StatusPaused)},
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, 1, mock.MatchedBy(func(upd models.DummySubscriptionUpdate) bool {
					return upd.Status != nil && *upd.Status == models.StatusPaused
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "некорректный id",
			id:             "abc",
			body:           models.DummySubscriptionUpdate{},
			setupMock:      func(_ *ServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"failed to decode id from url"`,
		},
		{
			name:           "недопустимое значение статуса",
			id:             "1",
			body:           models.DummySubscriptionUpdate{Status: strPtr("suspended")},
			setupMock:      func(_ *ServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"field Status must be one of the allowed values"`,
		},
		{
			name: "подписка не найдена",
			id:   "9",
			body: models.DummySubscriptionUpdate{Status: strPtr(models.StatusActive)},
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, 9, mock.Anything).
					Return(fmt.Errorf("services.subscription.Update: %w", apperr.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(ServiceMock)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			bodyBytes, err := json.Marshal(tt.body)
			if err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(http.MethodPut, "/subscriptions/"+tt.id, bytes.NewReader(bodyBytes))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
