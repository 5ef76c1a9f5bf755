package analyze

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateFromAnalysis(ctx context.Context, userID string, req models.AnalyzedWarrantyRequest) (*models.WarrantyView, error) {
	args := m.Called(ctx, userID, req)
	if res := args.Get(0); res != nil {
		return res.(*models.WarrantyView), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAnalyzeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "пожизненная гарантия",
			body: `{"product_name":"Cast iron pan","duration":"Lifetime warranty"}`,
			setupMock: func(m *MockService) {
				m.On("CreateFromAnalysis", mock.Anything, "user-1", models.AnalyzedWarrantyRequest{
					ProductName: "Cast iron pan",
					Duration:    "Lifetime warranty",
				}).Return(&models.WarrantyView{Warranty: models.Warranty{
					ID:     "5b0d7f3e-3c1a-4c55-9f5e-0d6f7a1b2c3d",
					Type:   models.TypeLifetime,
					Status: models.StatusLifetime,
				}}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"status":"LIFETIME"`,
		},
		{
			name: "условия документа",
			body: `{"product_name":"Drill","duration":"3 years","exclusions":["Batteries"],"critical_dates":[{"date":"2024-09-01","description":"Register online","type":"registration_deadline"}]}`,
			setupMock: func(m *MockService) {
				m.On("CreateFromAnalysis", mock.Anything, "user-1", models.AnalyzedWarrantyRequest{
					ProductName: "Drill",
					Duration:    "3 years",
					Analysis: models.Analysis{
						Exclusions: []string{"Batteries"},
						CriticalDates: []models.CriticalDate{
							{Date: "2024-09-01", Description: "Register online", Type: "registration_deadline"},
						},
					},
				}).Return(&models.WarrantyView{Warranty: models.Warranty{
					ID:       "5b0d7f3e-3c1a-4c55-9f5e-0d6f7a1b2c3d",
					Status:   models.StatusActive,
					Analysis: &models.Analysis{Exclusions: []string{"Batteries"}},
				}}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"exclusions":["Batteries"]`,
		},
		{
			name:           "неверная категория выделения",
			body:           `{"product_name":"Drill","duration":"3 years","highlights":[{"text":"x","category":"urgent","importance":3}]}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Category must be one of`,
		},
		{
			name:           "нет срока",
			body:           `{"product_name":"Kettle"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Duration is a required field`,
		},
		{
			name: "срок не распознан",
			body: `{"product_name":"Kettle","duration":"see manual"}`,
			setupMock: func(m *MockService) {
				m.On("CreateFromAnalysis", mock.Anything, "user-1", mock.Anything).
					Return(nil, fmt.Errorf("services.CreateFromAnalysis: %w", models.ErrInvalidDuration)).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   models.ErrInvalidDuration.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/analyze", strings.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithUserID(req.Context(), "user-1"))
			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
