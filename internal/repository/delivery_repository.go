package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cuttlefish/cuttlefish/internal/enum"
	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/internal/utils"
)

type DeliveryRepository interface {
	Create(ctx context.Context, delivery *models.Delivery) error
	GetByID(ctx context.Context, id uint64) (*models.Delivery, error)
	UpdateStatus(ctx context.Context, id uint64, status enum.DeliveryStatus) error
	SetStorageKey(ctx context.Context, id uint64, storageKey string) error
	// MarkOpenTracked flips the open-tracked marker. Returns true only for
	// the call that performed the transition.
	MarkOpenTracked(ctx context.Context, id uint64) (bool, error)
	// MarkOpened records the first pixel fetch. Returns true only for the
	// call that performed the transition.
	MarkOpened(ctx context.Context, id uint64) (bool, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{
		db: db,
	}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *models.Delivery) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	now := utils.Now()
	delivery.CreatedAt = now
	delivery.UpdatedAt = now

	err := r.db.WithContext(ctx).Create(delivery).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *deliveryRepository) GetByID(ctx context.Context, id uint64) (*models.Delivery, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, id)

	var delivery models.Delivery
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&delivery).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("response.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &delivery, nil
}

func (r *deliveryRepository) UpdateStatus(ctx context.Context, id uint64, status enum.DeliveryStatus) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, id)

	err := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *deliveryRepository) SetStorageKey(ctx context.Context, id uint64, storageKey string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryRepository.SetStorageKey")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, id)

	err := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"storage_key": storageKey,
			"updated_at":  utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *deliveryRepository) MarkOpenTracked(ctx context.Context, id uint64) (bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryRepository.MarkOpenTracked")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, id)

	// compare-and-set so concurrent filters can't double-mark
	res := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ? AND open_tracked_at IS NULL", id).
		Updates(map[string]interface{}{
			"open_tracked_at": utils.Now(),
			"updated_at":      utils.Now(),
		})
	if res.Error != nil {
		tracing.TraceErr(span, errors.Wrap(res.Error, "db error"))
		return false, res.Error
	}

	span.LogFields(tracingLog.Bool("response.transitioned", res.RowsAffected == 1))
	return res.RowsAffected == 1, nil
}

func (r *deliveryRepository) MarkOpened(ctx context.Context, id uint64) (bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DeliveryRepository.MarkOpened")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDelivery(span, id)

	res := r.db.WithContext(ctx).
		Model(&models.Delivery{}).
		Where("id = ? AND opened_at IS NULL", id).
		Updates(map[string]interface{}{
			"opened_at":  utils.Now(),
			"updated_at": utils.Now(),
		})
	if res.Error != nil {
		tracing.TraceErr(span, errors.Wrap(res.Error, "db error"))
		return false, res.Error
	}

	span.LogFields(tracingLog.Bool("response.transitioned", res.RowsAffected == 1))
	return res.RowsAffected == 1, nil
}
