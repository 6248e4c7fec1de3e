package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"solarops/internal/domain"
	"solarops/internal/handler"
	"solarops/internal/router"
	"solarops/mocks"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newEngine() (*gin.Engine, *mocks.MockReviewService, *mocks.MockIngestService) {
	gin.SetMode(gin.TestMode)
	reviewSvc := new(mocks.MockReviewService)
	ingestSvc := new(mocks.MockIngestService)
	r := router.Setup(
		handler.NewIngestHandler(ingestSvc),
		handler.NewRecordHandler(reviewSvc, ingestSvc),
		handler.NewHealthHandler(okPinger{}),
		router.Options{CORSOrigins: []string{"http://localhost:3000"}},
	)
	return r, reviewSvc, ingestSvc
}

func TestRouter_ExportDoesNotShadowFilename(t *testing.T) {
	r, reviewSvc, _ := newEngine()
	reviewSvc.On("Get", mock.Anything, "job-7.pdf").Return(&domain.Record{Filename: "job-7.pdf"}, nil)
	reviewSvc.On("List", mock.Anything, domain.RecordFilter{}, 0, 500).Return([]domain.Record{}, 0, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/records/job-7.pdf", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/records/export", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("Content-Disposition"))

	reviewSvc.AssertExpectations(t)
}

func TestRouter_OverrideRoute(t *testing.T) {
	r, reviewSvc, _ := newEngine()
	reviewSvc.On("Override", mock.Anything, mock.Anything).
		Return(&domain.Record{Filename: "job.pdf", Status: domain.ReviewStatusRejected}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/job.pdf/override",
		bytes.NewBufferString(`{"new_status":"rejected","reviewer":"carol"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_Health(t *testing.T) {
	r, _, _ := newEngine()
	for _, path := range []string{"/", "/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_SwaggerDoc(t *testing.T) {
	r, _, _ := newEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/records/{filename}/override")
}
