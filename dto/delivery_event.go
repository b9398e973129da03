package dto

import (
	"time"

	"github.com/cuttlefish/cuttlefish/internal/enum"
)

// DeliveryEvent is published on the message bus whenever a delivery is
// created or one of its tracking markers transitions for the first time.
type DeliveryEvent struct {
	EventID    string             `json:"eventId"`
	Event      string             `json:"event"`
	DeliveryID uint64             `json:"deliveryId"`
	AppID      uint64             `json:"appId"`
	Tracking   enum.TrackingEvent `json:"tracking,omitempty"`
	URL        string             `json:"url,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}
