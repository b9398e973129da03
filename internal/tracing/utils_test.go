package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuttlefish/cuttlefish/internal/utils"
)

func TestRecoveryWithJaeger_Returns500(t *testing.T) {
	tracer := mocktracer.New()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryWithJaeger(tracer))
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	// the panic must not surface as an empty 200
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "panic-recovery", spans[0].OperationName)
	assert.Equal(t, true, spans[0].Tag("error"))
}

func TestSetDefaultSpanTags_FromCustomContext(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)

	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{AppSource: "cuttlefish"})
	ctx = utils.SetAppIdInContext(ctx, "42")

	span, ctx := StartTracerSpan(ctx, "test-operation")
	SetDefaultServiceSpanTags(ctx, span)
	span.Finish()

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "42", spans[0].Tag(SpanTagAppId))
	assert.Equal(t, "cuttlefish", spans[0].Tag(SpanTagAppSource))
	assert.Equal(t, SpanTagComponentService, spans[0].Tag(SpanTagComponent))
}
