package read

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

const warrantyID = "5b0d7f3e-3c1a-4c55-9f5e-0d6f7a1b2c3d"

type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, userID, id string) (*models.WarrantyView, error) {
	args := m.Called(ctx, userID, id)
	if res := args.Get(0); res != nil {
		return res.(*models.WarrantyView), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	days := 12

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение гарантии",
			id:   warrantyID,
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "user-1", warrantyID).Return(&models.WarrantyView{
					Warranty:      models.Warranty{ID: warrantyID, Status: models.StatusExpiringSoon},
					DaysRemaining: &days,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"days_remaining":12`,
		},
		{
			name:           "некорректный id в URL",
			id:             "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid warranty id"}`,
		},
		{
			name: "гарантия не найдена",
			id:   warrantyID,
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "user-1", warrantyID).
					Return(nil, fmt.Errorf("services.Get: %w", models.ErrWarrantyNotFound)).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"warranty not found"}`,
		},
		{
			name: "ошибка сервиса чтения",
			id:   warrantyID,
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, "user-1", warrantyID).Return(nil, errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"internal service error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/warranties/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithUserID(ctx, "user-1"))

			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
