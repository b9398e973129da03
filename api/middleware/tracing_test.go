package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracingRouter(status int) (*gin.Engine, *mocktracer.MockTracer) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TracingMiddleware())
	r.GET("/status", func(c *gin.Context) {
		c.Status(status)
	})
	return r, tracer
}

func TestTracingMiddleware_MarksErrorResponses(t *testing.T) {
	r, tracer := tracingRouter(http.StatusInternalServerError)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, true, spans[0].Tag("error"))
	assert.Equal(t, uint16(http.StatusInternalServerError), spans[0].Tag("http.status_code"))
}

func TestTracingMiddleware_NoErrorTagOnSuccess(t *testing.T) {
	r, tracer := tracingRouter(http.StatusOK)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Nil(t, spans[0].Tag("error"))
	assert.Equal(t, uint16(http.StatusOK), spans[0].Tag("http.status_code"))
}
