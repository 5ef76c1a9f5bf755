package mark

import (
	"context"
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

func (m *MockService) MarkClaimed(ctx context.Context, userID, id string) (*models.WarrantyView, error) {
	args := m.Called(ctx, userID, id)
	if res := args.Get(0); res != nil {
		return res.(*models.WarrantyView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) MarkVoid(ctx context.Context, userID, id string) (*models.WarrantyView, error) {
	args := m.Called(ctx, userID, id)
	if res := args.Get(0); res != nil {
		return res.(*models.WarrantyView), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestMarkHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		action         Action
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "claim",
			action: Claim,
			setupMock: func(m *MockService) {
				m.On("MarkClaimed", mock.Anything, "user-1", warrantyID).Return(&models.WarrantyView{
					Warranty: models.Warranty{ID: warrantyID, IsClaimed: true, Status: models.StatusClaimed},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"CLAIMED"`,
		},
		{
			name:   "void",
			action: Void,
			setupMock: func(m *MockService) {
				m.On("MarkVoid", mock.Anything, "user-1", warrantyID).Return(&models.WarrantyView{
					Warranty: models.Warranty{ID: warrantyID, IsVoid: true, Status: models.StatusVoid},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"VOID"`,
		},
		{
			name:   "not found",
			action: Void,
			setupMock: func(m *MockService) {
				m.On("MarkVoid", mock.Anything, "user-1", warrantyID).Return(nil, models.ErrWarrantyNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"warranty not found"`,
		},
		{
			name:           "unknown action",
			action:         Action("restore"),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal service error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/warranties/"+warrantyID+"/"+string(tt.action), nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", warrantyID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithUserID(ctx, "user-1"))

			w := httptest.NewRecorder()
			New(logger, mockService, tt.action).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
