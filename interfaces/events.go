package interfaces

import (
	"context"

	"github.com/cuttlefish/cuttlefish/internal/enum"
	"github.com/cuttlefish/cuttlefish/internal/models"
)

type EventsPublisher interface {
	PublishDeliveryCreated(ctx context.Context, delivery *models.Delivery) error
	PublishTrackingEvent(ctx context.Context, delivery *models.Delivery, event enum.TrackingEvent, url string) error
	Close() error
}
