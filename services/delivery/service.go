package delivery

import (
	"context"
	"fmt"
	"net/url"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/enum"
	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/internal/repository"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/internal/utils"
	"github.com/cuttlefish/cuttlefish/services/filters"
	"github.com/cuttlefish/cuttlefish/services/tracking"
)

var (
	ErrDeliveryNotFound = errors.New("delivery not found")
	ErrAppNotFound      = errors.New("app not found")
)

type deliveryService struct {
	repos    *repository.Repositories
	codec    *tracking.Codec
	messages interfaces.MessageService
	storage  interfaces.StorageService
	events   interfaces.EventsPublisher
	log      logger.Logger
}

func NewDeliveryService(
	repos *repository.Repositories,
	codec *tracking.Codec,
	messages interfaces.MessageService,
	storage interfaces.StorageService,
	events interfaces.EventsPublisher,
	log logger.Logger,
) interfaces.DeliveryService {
	return &deliveryService{
		repos:    repos,
		codec:    codec,
		messages: messages,
		storage:  storage,
		events:   events,
		log:      log,
	}
}

func (s *deliveryService) Send(ctx context.Context, request *dto.SendEmailRequest) (*models.Delivery, []byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagApp(span, request.AppID)

	if err := validateSendRequest(request); err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, err
	}

	app, err := s.repos.AppRepository.GetByID(ctx, request.AppID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, err
	}
	if app == nil {
		tracing.TraceErr(span, ErrAppNotFound)
		return nil, nil, ErrAppNotFound
	}

	messageDomain := utils.ExtractDomainFromEmail(request.FromAddress)
	if messageDomain == "" {
		messageDomain = app.FromDomain
	}

	delivery := &models.Delivery{
		AppID:                app.ID,
		MessageID:            utils.GenerateMessageID(messageDomain, ""),
		FromAddress:          request.FromAddress,
		ToAddresses:          utils.UniqueStrings(request.ToAddresses),
		Subject:              request.Subject,
		Status:               enum.DeliveryStatusQueued,
		OpenTrackingEnabled:  app.OpenTrackingOn(),
		ClickTrackingEnabled: app.ClickTrackingOn(),
	}
	if err := s.repos.DeliveryRepository.Create(ctx, delivery); err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, err
	}
	tracing.TagDelivery(span, delivery.ID)

	filteredHTML := s.filterChain(delivery, app).FilterHTML(ctx, request.BodyHTML)

	raw, err := s.messages.BuildMIME(ctx, &dto.OutboundMessage{
		MessageID:   delivery.MessageID,
		FromAddress: request.FromAddress,
		ToAddresses: delivery.ToAddresses,
		Subject:     request.Subject,
		BodyText:    request.BodyText,
		BodyHTML:    filteredHTML,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, errors.Wrap(err, "building mime message")
	}

	// the archived copy is what went out on the wire, tracking rewrites
	// included. Archive failures are not fatal to the send.
	storageKey, err := s.storage.ArchiveMessage(ctx, delivery.ID, raw)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("delivery %d: could not archive message: %v", delivery.ID, err)
	} else if err := s.repos.DeliveryRepository.SetStorageKey(ctx, delivery.ID, storageKey); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("delivery %d: could not record storage key: %v", delivery.ID, err)
	} else {
		delivery.StorageKey = storageKey
	}

	if err := s.events.PublishDeliveryCreated(ctx, delivery); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("delivery %d: could not publish created event: %v", delivery.ID, err)
	}

	if err := s.repos.DeliveryRepository.UpdateStatus(ctx, delivery.ID, enum.DeliveryStatusSent); err != nil {
		tracing.TraceErr(span, err)
		return nil, nil, err
	}
	delivery.Status = enum.DeliveryStatusSent

	return delivery, raw, nil
}

// filterChain assembles the per-message rewrite pipeline. Click rewriting
// runs first so the open pixel URL is never itself rewritten.
func (s *deliveryService) filterChain(delivery *models.Delivery, app *models.App) *filters.Chain {
	host, protocol := s.codec.HostProtocol(app)
	click := filters.NewAddClickTracking(
		filters.ClickTrackingConfig(delivery, app, host, protocol),
		s.codec,
		s.repos.DeliveryLinkRepository,
		s.log,
	)
	open := filters.NewAddOpenTracking(
		filters.OpenTrackingConfig(delivery, app, host, protocol),
		s.codec,
		s.repos.DeliveryRepository,
		s.log,
	)
	return filters.NewChain(click, open)
}

func (s *deliveryService) GetDelivery(ctx context.Context, id uint64) (*models.Delivery, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.GetDelivery")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagDelivery(span, id)

	delivery, err := s.repos.DeliveryRepository.GetByID(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if delivery == nil {
		return nil, ErrDeliveryNotFound
	}
	return delivery, nil
}

func (s *deliveryService) GetDeliveryLinks(ctx context.Context, deliveryID uint64) ([]models.DeliveryLink, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.GetDeliveryLinks")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagDelivery(span, deliveryID)

	links, err := s.repos.DeliveryLinkRepository.ListByDelivery(ctx, deliveryID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return links, nil
}

func (s *deliveryService) HandleOpenEvent(ctx context.Context, idParam, hash string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.HandleOpenEvent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	deliveryID, err := s.codec.DecodeAndVerify(idParam, hash)
	if err != nil {
		return err
	}
	tracing.TagDelivery(span, deliveryID)

	delivery, err := s.repos.DeliveryRepository.GetByID(ctx, deliveryID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if delivery == nil {
		// a valid hash for a purged delivery; indistinguishable from a
		// forged token on the outside
		return tracking.ErrInvalidToken
	}

	opened, err := s.repos.DeliveryRepository.MarkOpened(ctx, deliveryID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if opened {
		if err := s.events.PublishTrackingEvent(ctx, delivery, enum.TrackingEventOpen, ""); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("delivery %d: could not publish open event: %v", deliveryID, err)
		}
	}
	return nil
}

func (s *deliveryService) HandleClickEvent(ctx context.Context, idParam, hash, rawURL string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.HandleClickEvent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	deliveryID, err := s.codec.DecodeAndVerify(idParam, hash)
	if err != nil {
		return "", err
	}
	tracing.TagDelivery(span, deliveryID)

	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return "", tracking.ErrInvalidToken
	}

	delivery, err := s.repos.DeliveryRepository.GetByID(ctx, deliveryID)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if delivery == nil {
		return "", tracking.ErrInvalidToken
	}

	link, err := s.repos.DeliveryLinkRepository.GetByDeliveryAndURL(ctx, deliveryID, rawURL)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if link == nil {
		// only destinations registered at send time may be redirected to,
		// otherwise the endpoint is an open redirector
		return "", tracking.ErrInvalidToken
	}

	clicked, err := s.repos.DeliveryLinkRepository.MarkClicked(ctx, deliveryID, rawURL)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if clicked {
		if err := s.events.PublishTrackingEvent(ctx, delivery, enum.TrackingEventClick, rawURL); err != nil {
			tracing.TraceErr(span, err)
			s.log.Errorf("delivery %d: could not publish click event: %v", deliveryID, err)
		}
	}
	return link.URL, nil
}

func validateSendRequest(request *dto.SendEmailRequest) error {
	if request.AppID == 0 {
		return errors.New("appId is required")
	}
	fromValidation := mailvalidate.ValidateEmailSyntax(request.FromAddress)
	if !fromValidation.IsValid {
		return fmt.Errorf("from address is not valid: %s", request.FromAddress)
	}
	if len(request.ToAddresses) == 0 {
		return errors.New("at least one recipient is required")
	}
	for _, to := range request.ToAddresses {
		validation := mailvalidate.ValidateEmailSyntax(to)
		if !validation.IsValid {
			return fmt.Errorf("to address is not valid: %s", to)
		}
	}
	return nil
}
