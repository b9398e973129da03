package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/internal/utils"
)

type DeliveryLinkRepository interface {
	// Register records that a destination URL within a delivery is click
	// tracked. Registering the same URL twice is a no-op.
	Register(ctx context.Context, deliveryID uint64, url string) error
	GetByDeliveryAndURL(ctx context.Context, deliveryID uint64, url string) (*models.DeliveryLink, error)
	ListByDelivery(ctx context.Context, deliveryID uint64) ([]models.DeliveryLink, error)
	// MarkClicked records the first click on a tracked link. Returns true
	// only for the call that performed the transition.
	MarkClicked(ctx context.Context, deliveryID uint64, url string) (bool, error)
}

type deliveryLinkRepository struct {
	db *gorm.DB
}

func NewDeliveryLinkRepository(db *gorm.DB) DeliveryLinkRepository {
	return &deliveryLinkRepository{
		db: db,
	}
}

func (r *deliveryLinkRepository) Register(ctx context.Context, deliveryID uint64, url string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryLinkRepository.Register")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, deliveryID)

	now := utils.Now()
	link := models.DeliveryLink{
		DeliveryID: deliveryID,
		URL:        url,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *deliveryLinkRepository) GetByDeliveryAndURL(ctx context.Context, deliveryID uint64, url string) (*models.DeliveryLink, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryLinkRepository.GetByDeliveryAndURL")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, deliveryID)

	var link models.DeliveryLink
	err := r.db.WithContext(ctx).
		Where("delivery_id = ? AND url = ?", deliveryID, url).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("response.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &link, nil
}

func (r *deliveryLinkRepository) ListByDelivery(ctx context.Context, deliveryID uint64) ([]models.DeliveryLink, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryLinkRepository.ListByDelivery")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, deliveryID)

	var links []models.DeliveryLink
	err := r.db.WithContext(ctx).
		Where("delivery_id = ?", deliveryID).
		Order("id asc").
		Find(&links).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return links, nil
}

func (r *deliveryLinkRepository) MarkClicked(ctx context.Context, deliveryID uint64, url string) (bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryLinkRepository.MarkClicked")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, deliveryID)

	res := r.db.WithContext(ctx).
		Model(&models.DeliveryLink{}).
		Where("delivery_id = ? AND url = ? AND clicked_at IS NULL", deliveryID, url).
		Updates(map[string]interface{}{
			"clicked_at": utils.Now(),
			"updated_at": utils.Now(),
		})
	if res.Error != nil {
		tracing.TraceErr(span, errors.Wrap(res.Error, "db error"))
		return false, res.Error
	}

	span.LogFields(tracingLog.Bool("response.transitioned", res.RowsAffected == 1))
	return res.RowsAffected == 1, nil
}
