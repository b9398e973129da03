package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/enum"
	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/internal/utils"
)

const (
	// Exchange names
	ExchangeCuttlefish = "cuttlefish-events"

	// routing keys
	RoutingKeyDeliveryCreated = "delivery.created"
	RoutingKeyDeliveryOpened  = "delivery.opened"
	RoutingKeyDeliveryClicked = "delivery.clicked"

	DefaultPublishTimeout = 5 * time.Second
)

type rabbitMQPublisher struct {
	connection      *amqp091.Connection
	connectionMutex sync.Mutex
	publishChannel  *amqp091.Channel
	publishMutex    sync.Mutex
	url             string
	log             logger.Logger
}

// NewRabbitMQPublisher connects to the broker and declares the events
// exchange. An empty URL returns a no-op publisher so tracking endpoints
// keep working without a broker.
func NewRabbitMQPublisher(rabbitmqURL string, log logger.Logger) (interfaces.EventsPublisher, error) {
	if rabbitmqURL == "" {
		log.Warn("RabbitMQ URL not configured, delivery events will not be published")
		return &noopPublisher{}, nil
	}

	publisher := &rabbitMQPublisher{
		url: rabbitmqURL,
		log: log,
	}

	if err := publisher.connect(); err != nil {
		return nil, err
	}

	return publisher, nil
}

func (r *rabbitMQPublisher) connect() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	connection, err := amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "connecting to rabbitmq")
	}

	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return errors.Wrap(err, "opening rabbitmq channel")
	}

	err = channel.ExchangeDeclare(ExchangeCuttlefish, "topic", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		connection.Close()
		return errors.Wrap(err, "declaring exchange")
	}

	r.connection = connection
	r.publishChannel = channel
	return nil
}

func (r *rabbitMQPublisher) PublishDeliveryCreated(ctx context.Context, delivery *models.Delivery) error {
	event := dto.DeliveryEvent{
		EventID:    uuid.New().String(),
		Event:      RoutingKeyDeliveryCreated,
		DeliveryID: delivery.ID,
		AppID:      delivery.AppID,
		OccurredAt: utils.Now(),
	}
	return r.publish(ctx, RoutingKeyDeliveryCreated, event)
}

func (r *rabbitMQPublisher) PublishTrackingEvent(ctx context.Context, delivery *models.Delivery, trackingEvent enum.TrackingEvent, url string) error {
	routingKey := RoutingKeyDeliveryOpened
	if trackingEvent == enum.TrackingEventClick {
		routingKey = RoutingKeyDeliveryClicked
	}

	event := dto.DeliveryEvent{
		EventID:    uuid.New().String(),
		Event:      routingKey,
		DeliveryID: delivery.ID,
		AppID:      delivery.AppID,
		Tracking:   trackingEvent,
		URL:        url,
		OccurredAt: utils.Now(),
	}
	return r.publish(ctx, routingKey, event)
}

func (r *rabbitMQPublisher) publish(ctx context.Context, routingKey string, event dto.DeliveryEvent) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RabbitMQPublisher.publish")
	defer span.Finish()
	span.LogKV("routingKey", routingKey, "eventId", event.EventID)

	body, err := json.Marshal(event)
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "marshalling event"))
		return err
	}

	headers := amqp091.Table{}
	carrier := tracing.ExtractTextMapCarrier(span.Context())
	if traceID, ok := carrier["uber-trace-id"]; ok {
		headers["uber-trace-id"] = traceID
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultPublishTimeout)
	defer cancel()

	r.publishMutex.Lock()
	defer r.publishMutex.Unlock()

	err = r.publishChannel.PublishWithContext(ctx, ExchangeCuttlefish, routingKey, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
			Headers:      headers,
			Body:         body,
		})
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "publishing event"))
		return err
	}

	return nil
}

func (r *rabbitMQPublisher) Close() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	if r.publishChannel != nil {
		r.publishChannel.Close()
	}
	if r.connection != nil {
		return r.connection.Close()
	}
	return nil
}

type noopPublisher struct{}

func (p *noopPublisher) PublishDeliveryCreated(ctx context.Context, delivery *models.Delivery) error {
	return nil
}

func (p *noopPublisher) PublishTrackingEvent(ctx context.Context, delivery *models.Delivery, trackingEvent enum.TrackingEvent, url string) error {
	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}
