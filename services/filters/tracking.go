package filters

import (
	"context"

	"github.com/cuttlefish/cuttlefish/internal/models"
)

// URLBuilder builds the callback URLs embedded into outbound HTML.
type URLBuilder interface {
	OpenURL(deliveryID uint64, host, protocol string) string
	ClickURL(deliveryID uint64, destination, host, protocol string) string
}

// OpenMarker flips the delivery's open-tracked marker, at most once.
type OpenMarker interface {
	MarkOpenTracked(ctx context.Context, id uint64) (bool, error)
}

// LinkRegistrar records one tracked-link entry per distinct destination.
type LinkRegistrar interface {
	Register(ctx context.Context, deliveryID uint64, url string) error
}

// TrackingConfig is the shared construction state of the tracking
// filters, captured from the delivery when the filter is built and
// immutable for the filter's one-message lifetime.
type TrackingConfig struct {
	DeliveryID                uint64
	Enabled                   bool
	TrackingHost              string
	TrackingProtocol          string
	UsingCustomTrackingDomain bool
}

func OpenTrackingConfig(delivery *models.Delivery, app *models.App, host, protocol string) TrackingConfig {
	return trackingConfig(delivery, app, host, protocol, delivery.OpenTrackingEnabled)
}

func ClickTrackingConfig(delivery *models.Delivery, app *models.App, host, protocol string) TrackingConfig {
	return trackingConfig(delivery, app, host, protocol, delivery.ClickTrackingEnabled)
}

func trackingConfig(delivery *models.Delivery, app *models.App, host, protocol string, enabled bool) TrackingConfig {
	return TrackingConfig{
		DeliveryID:                delivery.ID,
		Enabled:                   enabled,
		TrackingHost:              host,
		TrackingProtocol:          protocol,
		UsingCustomTrackingDomain: app != nil && app.UsesCustomTrackingDomain(),
	}
}
