package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/warranty-tracker/internal/http/middlewarectx"
)

type HTTPRecorderMock struct {
	mock.Mock
}

func (m *HTTPRecorderMock) ObserveHTTP(route string, code int) {
	m.Called(route, code)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	rec := new(HTTPRecorderMock)
	rec.On("ObserveHTTP", "/api/v1/warranties/{id}", http.StatusNotFound).Once()
	rec.On("ObserveHTTP", "/health", http.StatusOK).Once()

	r := chi.NewRouter()
	r.Use(middlewarectx.Metrics(rec))
	r.Get("/api/v1/warranties/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/warranties/123", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec.AssertExpectations(t)
}
