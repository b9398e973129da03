package filters

import (
	"context"
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
)

// AddOpenTracking inserts a uniquely-keyed tracking pixel into the HTML
// body and marks the delivery open-tracked. One instance serves one
// message.
type AddOpenTracking struct {
	cfg    TrackingConfig
	urls   URLBuilder
	marker OpenMarker
	log    logger.Logger
}

func NewAddOpenTracking(cfg TrackingConfig, urls URLBuilder, marker OpenMarker, log logger.Logger) *AddOpenTracking {
	return &AddOpenTracking{
		cfg:    cfg,
		urls:   urls,
		marker: marker,
		log:    log,
	}
}

func (f *AddOpenTracking) FilterHTML(ctx context.Context, input string) string {
	if !f.cfg.Enabled {
		return input
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "AddOpenTracking.FilterHTML")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagDelivery(span, f.cfg.DeliveryID)

	// the marker only flips when a pixel actually makes it into the body,
	// so mark first and bail out unchanged if that fails
	if _, err := f.marker.MarkOpenTracked(ctx, f.cfg.DeliveryID); err != nil {
		tracing.TraceErr(span, err)
		f.log.Errorf("delivery %d: could not mark open tracked, leaving body untouched: %v", f.cfg.DeliveryID, err)
		return input
	}

	pixelURL := f.urls.OpenURL(f.cfg.DeliveryID, f.cfg.TrackingHost, f.cfg.TrackingProtocol)
	return insertPixel(input, fmt.Sprintf(`<img src=%q />`, pixelURL))
}

// The url for the tracking image
func (f *AddOpenTracking) URL() string {
	return f.urls.OpenURL(f.cfg.DeliveryID, f.cfg.TrackingHost, f.cfg.TrackingProtocol)
}

// insertPixel places the image reference just before the closing body tag
// so the document stays valid, falling back to a plain append when there
// is no such tag.
func insertPixel(input, imgTag string) string {
	lower := strings.ToLower(input)
	if idx := strings.LastIndex(lower, "</body>"); idx >= 0 {
		return input[:idx] + imgTag + input[idx:]
	}
	return input + imgTag
}
