package handlers

import "github.com/cuttlefish/cuttlefish/services"

type APIHandlers struct {
	Apps       *AppsHandler
	Deliveries *DeliveriesHandler
	Tracking   *TrackingHandler
}

func InitHandlers(s *services.Services) *APIHandlers {
	return &APIHandlers{
		Apps:       NewAppsHandler(s.AppService, s.DNSVerifier),
		Deliveries: NewDeliveriesHandler(s.DeliveryService),
		Tracking:   NewTrackingHandler(s.DeliveryService),
	}
}
