package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/services/tracking"
)

// transparentGif is a 1x1 transparent image, served for every open
// tracking request
var transparentGif = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type TrackingHandler struct {
	deliveries interfaces.DeliveryService
}

func NewTrackingHandler(deliveries interfaces.DeliveryService) *TrackingHandler {
	return &TrackingHandler{
		deliveries: deliveries,
	}
}

// Open records an email open and responds with the pixel. An invalid
// token gets a plain 404 that does not reveal whether the delivery
// exists.
func (h *TrackingHandler) Open() gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := strings.TrimSuffix(c.Param("hash"), ".gif")

		if err := h.deliveries.HandleOpenEvent(c.Request.Context(), c.Param("delivery_id"), hash); err != nil {
			if errors.Is(err, tracking.ErrInvalidToken) {
				c.Status(http.StatusNotFound)
				return
			}
			tracing.TraceErr(opentracing.SpanFromContext(c.Request.Context()), err)
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Data(http.StatusOK, "image/gif", transparentGif)
	}
}

// Click records a link click and redirects to the registered destination.
func (h *TrackingHandler) Click() gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := c.Param("hash")
		rawURL := c.Query("url")

		destination, err := h.deliveries.HandleClickEvent(c.Request.Context(), c.Param("delivery_id"), hash, rawURL)
		if err != nil {
			if errors.Is(err, tracking.ErrInvalidToken) {
				c.Status(http.StatusNotFound)
				return
			}
			tracing.TraceErr(opentracing.SpanFromContext(c.Request.Context()), err)
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Redirect(http.StatusFound, destination)
	}
}
