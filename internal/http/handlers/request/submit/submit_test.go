package submit

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

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/feature-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/feature-access/internal/models"
	requestservice "github.com/magabrotheeeer/feature-access/internal/services/request"
)

// MockService реализует интерфейс submit.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Submit(ctx context.Context, userUID, username string, req models.DummyFeatureRequest) (string, error) {
	args := m.Called(ctx, userUID, username, req)
	return args.String(0), args.Error(1)
}

func TestSubmitHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		requestBody    interface{}
		username       string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное создание заявки",
			requestBody: models.DummyFeatureRequest{
				Email:            "test@example.com",
				RequestedFeature: "advanced-export",
				RequestMessage:   "need it for reports",
			},
			username: "testuser",
			userUID:  "uid-1",
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "uid-1", "testuser",
					mock.AnythingOfType("models.DummyFeatureRequest")).
					Return("req-1", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"request_id":"req-1"`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			username:       "testuser",
			userUID:        "uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name: "ошибка валидации",
			requestBody: models.DummyFeatureRequest{
				Email:            "not-an-email",
				RequestedFeature: "",
			},
			username:       "testuser",
			userUID:        "uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Email must be a valid email, field RequestedFeature is a required field`,
		},
		{
			name: "отсутствует авторизация",
			requestBody: models.DummyFeatureRequest{
				Email:            "test@example.com",
				RequestedFeature: "advanced-export",
			},
			username:       "",
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name: "название из одних пробелов",
			requestBody: models.DummyFeatureRequest{
				Email:            "test@example.com",
				RequestedFeature: "   ",
			},
			username: "testuser",
			userUID:  "uid-1",
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "uid-1", "testuser",
					mock.AnythingOfType("models.DummyFeatureRequest")).
					Return("", requestservice.ErrEmptyFeature)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"requested feature must not be empty"}`,
		},
		{
			name: "ошибка сервиса",
			requestBody: models.DummyFeatureRequest{
				Email:            "test@example.com",
				RequestedFeature: "advanced-export",
			},
			username: "testuser",
			userUID:  "uid-1",
			setupMock: func(m *MockService) {
				m.On("Submit", mock.Anything, "uid-1", "testuser",
					mock.AnythingOfType("models.DummyFeatureRequest")).
					Return("", errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not create feature request"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			ctx := context.WithValue(req.Context(), middlewarectx.User, tt.username)
			ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
