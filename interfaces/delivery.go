package interfaces

import (
	"context"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/internal/models"
)

type DeliveryService interface {
	// Send creates the delivery, runs the filter chain over the HTML body
	// and returns the rewritten raw message ready for the SMTP transport
	Send(ctx context.Context, request *dto.SendEmailRequest) (*models.Delivery, []byte, error)
	GetDelivery(ctx context.Context, id uint64) (*models.Delivery, error)
	GetDeliveryLinks(ctx context.Context, deliveryID uint64) ([]models.DeliveryLink, error)
	// HandleOpenEvent decodes and verifies the tracking token from the
	// callback URL and records the open
	HandleOpenEvent(ctx context.Context, idParam, hash string) error
	// HandleClickEvent decodes and verifies the tracking token, records the
	// click and returns the destination to redirect to
	HandleClickEvent(ctx context.Context, idParam, hash, rawURL string) (string, error)
}
