package app

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/internal/repository"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/internal/utils"
)

const singletonAppName = "Cuttlefish"

var (
	ErrAppNotFound            = errors.New("app not found")
	ErrInvalidSmtpCredentials = errors.New("invalid smtp credentials")
)

type appService struct {
	repos            *repository.Repositories
	dns              interfaces.DNSVerifier
	validate         *validator.Validate
	cuttlefishDomain string
	log              logger.Logger

	// memoized singleton system app, keyed by the configured domain
	singletonMu     sync.Mutex
	singleton       *models.App
	singletonDomain string
}

func NewAppService(repos *repository.Repositories, dns interfaces.DNSVerifier, cuttlefishDomain string, log logger.Logger) interfaces.AppService {
	return &appService{
		repos:            repos,
		dns:              dns,
		validate:         newValidator(),
		cuttlefishDomain: cuttlefishDomain,
		log:              log,
	}
}

func (s *appService) CreateApp(ctx context.Context, request *dto.CreateAppRequest) (*models.App, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AppService.CreateApp")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("request.name", request.Name)

	app := &models.App{
		Name:                 request.Name,
		TeamID:               request.TeamID,
		OpenTrackingEnabled:  request.OpenTrackingEnabled,
		ClickTrackingEnabled: request.ClickTrackingEnabled,
		CustomTrackingDomain: request.CustomTrackingDomain,
		FromDomain:           request.FromDomain,
		LegacyDkimSelector:   request.LegacyDkimSelector,
	}
	if app.FromDomain == "" {
		app.FromDomain = s.cuttlefishDomain
	}

	if err := s.validateApp(ctx, app); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	password, err := GenerateSmtpPassword()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	app.SmtpPassword = password

	privateKey, publicKey, err := GenerateDkimKeypair()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	app.DkimPrivateKey = privateKey
	app.DkimPublicKey = publicKey

	if err := s.repos.AppRepository.Create(ctx, app); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	// the username embeds the generated id, so it can only be derived now;
	// it is never recomputed after this
	app.SmtpUsername = DeriveSmtpUsername(app.Name, app.ID)
	if err := s.repos.AppRepository.Save(ctx, app); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("created app %d (%s) with smtp username %s", app.ID, app.Name, app.SmtpUsername)
	return app, nil
}

func (s *appService) UpdateApp(ctx context.Context, id uint64, request *dto.UpdateAppRequest) (*models.App, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AppService.UpdateApp")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	app, err := s.repos.AppRepository.GetByID(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if app == nil {
		return nil, ErrAppNotFound
	}

	// smtp credentials and the dkim keypair stay as generated at creation
	if request.Name != nil {
		app.Name = *request.Name
	}
	if request.OpenTrackingEnabled != nil {
		app.OpenTrackingEnabled = request.OpenTrackingEnabled
	}
	if request.ClickTrackingEnabled != nil {
		app.ClickTrackingEnabled = request.ClickTrackingEnabled
	}
	if request.FromDomain != nil {
		app.FromDomain = *request.FromDomain
	}
	if request.CustomTrackingDomain != nil && *request.CustomTrackingDomain != app.CustomTrackingDomain {
		app.CustomTrackingDomain = *request.CustomTrackingDomain
		app.CustomTrackingDomainVerified = false
	}

	if err := s.validateApp(ctx, app); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if err := s.repos.AppRepository.Save(ctx, app); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return app, nil
}

func (s *appService) GetApp(ctx context.Context, id uint64) (*models.App, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AppService.GetApp")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	app, err := s.repos.AppRepository.GetByID(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if app == nil {
		return nil, ErrAppNotFound
	}
	return app, nil
}

func (s *appService) AuthenticateSmtp(ctx context.Context, username, password string) (*models.App, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AppService.AuthenticateSmtp")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	app, err := s.repos.AppRepository.GetBySmtpUsername(ctx, username)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if app == nil || subtle.ConstantTimeCompare([]byte(password), []byte(app.SmtpPassword)) != 1 {
		// unknown username and wrong password are indistinguishable
		return nil, ErrInvalidSmtpCredentials
	}
	return app, nil
}

// Cuttlefish returns the app the service itself sends from. It is looked
// up (or created) once and memoized until the cache is reset or the
// configured domain changes.
func (s *appService) Cuttlefish(ctx context.Context) (*models.App, error) {
	s.singletonMu.Lock()
	defer s.singletonMu.Unlock()

	if s.singleton != nil && s.singletonDomain == s.cuttlefishDomain {
		return s.singleton, nil
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "AppService.Cuttlefish")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	app, err := s.repos.AppRepository.GetByNameAndFromDomain(ctx, singletonAppName, s.cuttlefishDomain)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if app == nil {
		created, err := s.CreateApp(ctx, &dto.CreateAppRequest{
			Name:                 singletonAppName,
			OpenTrackingEnabled:  utils.BoolPtr(true),
			ClickTrackingEnabled: utils.BoolPtr(true),
			FromDomain:           s.cuttlefishDomain,
		})
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		app = created
	}

	s.singleton = app
	s.singletonDomain = s.cuttlefishDomain
	return app, nil
}

func (s *appService) ResetCuttlefishCache() {
	s.singletonMu.Lock()
	defer s.singletonMu.Unlock()
	s.singleton = nil
	s.singletonDomain = ""
}
