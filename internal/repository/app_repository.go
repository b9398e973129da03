package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/internal/utils"
)

type AppRepository interface {
	Create(ctx context.Context, app *models.App) error
	Save(ctx context.Context, app *models.App) error
	GetByID(ctx context.Context, id uint64) (*models.App, error)
	GetBySmtpUsername(ctx context.Context, smtpUsername string) (*models.App, error)
	GetByNameAndFromDomain(ctx context.Context, name, fromDomain string) (*models.App, error)
	GetAppsWithCustomTrackingDomain(ctx context.Context) ([]models.App, error)
	SetCustomTrackingDomainVerified(ctx context.Context, id uint64, verified bool) error
}

type appRepository struct {
	db *gorm.DB
}

func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepository{
		db: db,
	}
}

func (r *appRepository) Create(ctx context.Context, app *models.App) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "AppRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	now := utils.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	err := r.db.WithContext(ctx).Create(app).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *appRepository) Save(ctx context.Context, app *models.App) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "AppRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	app.UpdatedAt = utils.Now()

	err := r.db.WithContext(ctx).Save(app).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *appRepository) GetByID(ctx context.Context, id uint64) (*models.App, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AppRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var app models.App
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("response.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &app, nil
}

func (r *appRepository) GetBySmtpUsername(ctx context.Context, smtpUsername string) (*models.App, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AppRepository.GetBySmtpUsername")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var app models.App
	err := r.db.WithContext(ctx).
		Where("smtp_username = ?", smtpUsername).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &app, nil
}

func (r *appRepository) GetByNameAndFromDomain(ctx context.Context, name, fromDomain string) (*models.App, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AppRepository.GetByNameAndFromDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var app models.App
	err := r.db.WithContext(ctx).
		Where("name = ? AND from_domain = ?", name, fromDomain).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &app, nil
}

func (r *appRepository) GetAppsWithCustomTrackingDomain(ctx context.Context) ([]models.App, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "AppRepository.GetAppsWithCustomTrackingDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var apps []models.App
	err := r.db.WithContext(ctx).
		Where("custom_tracking_domain <> ''").
		Find(&apps).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return apps, nil
}

func (r *appRepository) SetCustomTrackingDomainVerified(ctx context.Context, id uint64, verified bool) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "AppRepository.SetCustomTrackingDomainVerified")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	err := r.db.WithContext(ctx).
		Model(&models.App{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"custom_tracking_domain_verified": verified,
			"updated_at":                      utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}
