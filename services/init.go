package services

import (
	"time"

	"github.com/cuttlefish/cuttlefish/config"
	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/repository"
	"github.com/cuttlefish/cuttlefish/services/app"
	"github.com/cuttlefish/cuttlefish/services/delivery"
	"github.com/cuttlefish/cuttlefish/services/dns"
	"github.com/cuttlefish/cuttlefish/services/events"
	"github.com/cuttlefish/cuttlefish/services/message"
	"github.com/cuttlefish/cuttlefish/services/storage"
	"github.com/cuttlefish/cuttlefish/services/tracking"
)

type Services struct {
	Codec           *tracking.Codec
	AppService      interfaces.AppService
	DeliveryService interfaces.DeliveryService
	MessageService  interfaces.MessageService
	DNSVerifier     interfaces.DNSVerifier
	EventsPublisher interfaces.EventsPublisher
	StorageService  interfaces.StorageService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	publisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log)
	if err != nil {
		return nil, err
	}

	storageService := storage.NewS3StorageService(cfg.StorageConfig)

	codec := tracking.NewCodec(
		cfg.AppConfig.TrackingSecret,
		cfg.AppConfig.CuttlefishDomain,
		cfg.AppConfig.TrackingProtocol,
	)

	dnsVerifier := dns.NewDNSVerifier(
		cfg.AppConfig.CanonicalHostname,
		time.Duration(cfg.DNSConfig.LookupTimeoutSeconds)*time.Second,
		log,
	)

	services := Services{
		Codec:           codec,
		AppService:      app.NewAppService(repos, dnsVerifier, cfg.AppConfig.CuttlefishDomain, log),
		MessageService:  message.NewMessageService(log),
		DNSVerifier:     dnsVerifier,
		EventsPublisher: publisher,
		StorageService:  storageService,
	}
	services.DeliveryService = delivery.NewDeliveryService(repos, codec, services.MessageService, storageService, publisher, log)

	return &services, nil
}
