package resolve

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/feature-access/internal/lib/jwt"
	"github.com/magabrotheeeer/feature-access/internal/models"
)

// MockService реализует интерфейс resolve.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Resolve(ctx context.Context, userUID string) models.Role {
	args := m.Called(ctx, userUID)
	return args.Get(0).(models.Role)
}

func TestResolveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	maker := jwt.NewMaker("test_secret_key", 15*time.Minute)

	validToken, err := maker.GenerateToken("testuser", "paid", "uid-1")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		setupMock      func(*MockService)
		expectedBody   string
	}{
		{
			name:       "валидный токен разрешается в роль пользователя",
			authHeader: "Bearer " + validToken,
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "uid-1").Return(models.RolePaid)
			},
			expectedBody: `"role":"paid"`,
		},
		{
			name:       "запрос без токена дает free",
			authHeader: "",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "").Return(models.RoleFree)
			},
			expectedBody: `"role":"free"`,
		},
		{
			name:       "невалидный токен дает free вместо 401",
			authHeader: "Bearer not.a.token",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "").Return(models.RoleFree)
			},
			expectedBody: `"role":"free"`,
		},
		{
			name:       "заголовок без префикса Bearer игнорируется",
			authHeader: "Basic dXNlcjpwYXNz",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "").Return(models.RoleFree)
			},
			expectedBody: `"role":"free"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, maker)

			req := httptest.NewRequest(http.MethodGet, "/access", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
