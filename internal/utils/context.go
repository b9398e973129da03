package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

// CustomContext carries per-request identity down into services and
// repositories. AppSource is set by middleware; AppId is filled in by
// handlers once they know which app the request is about.
type CustomContext struct {
	AppSource string
	AppId     string
}

var customContextKey = "CUSTOM_CONTEXT"

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	return WithCustomContext(c.Request.Context(), &CustomContext{
		AppSource: appSource,
	})
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetAppIdFromContext(ctx context.Context) string {
	return GetContext(ctx).AppId
}

func SetAppIdInContext(ctx context.Context, appId string) context.Context {
	customContext := GetContext(ctx)
	customContext.AppId = appId
	return WithCustomContext(ctx, customContext)
}
