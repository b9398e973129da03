package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/services/app"
)

type stubAppService struct {
	app *models.App
	err error
}

func (s *stubAppService) CreateApp(ctx context.Context, request *dto.CreateAppRequest) (*models.App, error) {
	return s.app, s.err
}

func (s *stubAppService) UpdateApp(ctx context.Context, id uint64, request *dto.UpdateAppRequest) (*models.App, error) {
	return s.app, s.err
}

func (s *stubAppService) GetApp(ctx context.Context, id uint64) (*models.App, error) {
	return s.app, s.err
}

func (s *stubAppService) AuthenticateSmtp(ctx context.Context, username, password string) (*models.App, error) {
	return s.app, s.err
}

func (s *stubAppService) Cuttlefish(ctx context.Context) (*models.App, error) {
	return s.app, s.err
}

func (s *stubAppService) ResetCuttlefishCache() {}

func appsRouter(service *stubAppService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAppsHandler(service, nil)
	r := gin.New()
	r.GET("/v1/apps/:id", h.Get())
	r.POST("/v1/credentials/verify", h.VerifyCredentials())
	return r
}

func TestAppsGet_UnknownAppRespondsNotFound(t *testing.T) {
	r := appsRouter(&stubAppService{err: app.ErrAppNotFound})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/apps/42", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "App not found")
}

func TestAppsGet_ReturnsApp(t *testing.T) {
	r := appsRouter(&stubAppService{app: &models.App{ID: 7, Name: "Planning Alerts"}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/apps/7", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Planning Alerts"`)
}

func TestVerifyCredentials_Invalid(t *testing.T) {
	r := appsRouter(&stubAppService{err: app.ErrInvalidSmtpCredentials})

	body := strings.NewReader(`{"smtpUsername":"nobody_1","smtpPassword":"wrong"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/credentials/verify", body))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyCredentials_Valid(t *testing.T) {
	r := appsRouter(&stubAppService{app: &models.App{ID: 7}})

	body := strings.NewReader(`{"smtpUsername":"planning_alerts_7","smtpPassword":"secret"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/credentials/verify", body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"appId":7`)
}
