package enum

type DeliveryStatus string

const (
	DeliveryStatusQueued  DeliveryStatus = "queued"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
	DeliveryStatusBounced DeliveryStatus = "bounced"
)

func (t DeliveryStatus) String() string {
	return string(t)
}

type TrackingEvent string

const (
	TrackingEventOpen  TrackingEvent = "open"
	TrackingEventClick TrackingEvent = "click"
)

func (t TrackingEvent) String() string {
	return string(t)
}
