package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/internal/logger"
	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/internal/repository"
	"github.com/cuttlefish/cuttlefish/internal/utils"
)

type inMemoryAppRepository struct {
	apps   map[uint64]*models.App
	nextID uint64
}

func newInMemoryAppRepository() *inMemoryAppRepository {
	return &inMemoryAppRepository{
		apps:   make(map[uint64]*models.App),
		nextID: 1,
	}
}

func (r *inMemoryAppRepository) Create(ctx context.Context, app *models.App) error {
	app.ID = r.nextID
	r.nextID++
	stored := *app
	r.apps[app.ID] = &stored
	return nil
}

func (r *inMemoryAppRepository) Save(ctx context.Context, app *models.App) error {
	stored := *app
	r.apps[app.ID] = &stored
	return nil
}

func (r *inMemoryAppRepository) GetByID(ctx context.Context, id uint64) (*models.App, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, nil
	}
	found := *app
	return &found, nil
}

func (r *inMemoryAppRepository) GetBySmtpUsername(ctx context.Context, smtpUsername string) (*models.App, error) {
	for _, app := range r.apps {
		if app.SmtpUsername == smtpUsername {
			found := *app
			return &found, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAppRepository) GetByNameAndFromDomain(ctx context.Context, name, fromDomain string) (*models.App, error) {
	for _, app := range r.apps {
		if app.Name == name && app.FromDomain == fromDomain {
			found := *app
			return &found, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAppRepository) GetAppsWithCustomTrackingDomain(ctx context.Context) ([]models.App, error) {
	var result []models.App
	for _, app := range r.apps {
		if app.CustomTrackingDomain != "" {
			result = append(result, *app)
		}
	}
	return result, nil
}

func (r *inMemoryAppRepository) SetCustomTrackingDomainVerified(ctx context.Context, id uint64, verified bool) error {
	if app, ok := r.apps[id]; ok {
		app.CustomTrackingDomainVerified = verified
	}
	return nil
}

type stubDNSVerifier struct {
	verified bool
	called   bool
	hostname string
}

func (v *stubDNSVerifier) VerifyTrackingCNAME(ctx context.Context, hostname string) bool {
	v.called = true
	v.hostname = hostname
	return v.verified
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestService(dns *stubDNSVerifier) (*appService, *inMemoryAppRepository) {
	repo := newInMemoryAppRepository()
	repos := &repository.Repositories{AppRepository: repo}
	service := NewAppService(repos, dns, "cuttlefish.io", getLogger()).(*appService)
	return service, repo
}

func validCreateRequest() *dto.CreateAppRequest {
	return &dto.CreateAppRequest{
		Name:                 "Planning Alerts",
		OpenTrackingEnabled:  utils.BoolPtr(true),
		ClickTrackingEnabled: utils.BoolPtr(true),
	}
}

func TestCreateApp_GeneratesCredentials(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})

	created, err := service.CreateApp(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.Len(t, created.SmtpPassword, 20)
	assert.Equal(t, "planning_alerts_1", created.SmtpUsername)
	assert.Contains(t, created.DkimPrivateKey, "RSA PRIVATE KEY")
	assert.NotEmpty(t, created.DkimPublicKey)
	assert.Equal(t, "cuttlefish.io", created.FromDomain)
}

func TestCreateApp_DistinctDkimKeys(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})

	first, err := service.CreateApp(context.Background(), validCreateRequest())
	require.NoError(t, err)

	request := validCreateRequest()
	request.Name = "Book Store"
	second, err := service.CreateApp(context.Background(), request)
	require.NoError(t, err)

	assert.NotEqual(t, first.DkimPrivateKey, second.DkimPrivateKey)
	assert.NotEqual(t, first.SmtpPassword, second.SmtpPassword)
}

func TestCreateApp_NameValidation(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})

	request := validCreateRequest()
	request.Name = "Foo12 Bar_Foo"
	_, err := service.CreateApp(context.Background(), request)
	assert.NoError(t, err)

	request = validCreateRequest()
	request.Name = "*"
	_, err = service.CreateApp(context.Background(), request)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)

	request = validCreateRequest()
	request.Name = ""
	_, err = service.CreateApp(context.Background(), request)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestCreateApp_TrackingFlagsMustBeSet(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})

	request := validCreateRequest()
	request.OpenTrackingEnabled = nil
	_, err := service.CreateApp(context.Background(), request)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "open_tracking_enabled", validationErr.Field)

	request = validCreateRequest()
	request.ClickTrackingEnabled = nil
	_, err = service.CreateApp(context.Background(), request)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "click_tracking_enabled", validationErr.Field)
}

func TestCreateApp_CustomTrackingDomain(t *testing.T) {
	dns := &stubDNSVerifier{verified: true}
	service, _ := newTestService(dns)

	request := validCreateRequest()
	request.CustomTrackingDomain = "email.example.com"
	created, err := service.CreateApp(context.Background(), request)

	require.NoError(t, err)
	assert.True(t, dns.called)
	assert.Equal(t, "email.example.com", dns.hostname)
	assert.True(t, created.CustomTrackingDomainVerified)
}

func TestCreateApp_CustomTrackingDomainCNAMEMismatch(t *testing.T) {
	dns := &stubDNSVerifier{verified: false}
	service, _ := newTestService(dns)

	request := validCreateRequest()
	request.CustomTrackingDomain = "email.example.com"
	_, err := service.CreateApp(context.Background(), request)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "custom_tracking_domain", validationErr.Field)
}

func TestCreateApp_NoDNSLookupWithoutCustomDomain(t *testing.T) {
	dns := &stubDNSVerifier{}
	service, _ := newTestService(dns)

	_, err := service.CreateApp(context.Background(), validCreateRequest())

	require.NoError(t, err)
	assert.False(t, dns.called)
}

func TestUpdateApp_KeepsCredentials(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})

	created, err := service.CreateApp(context.Background(), validCreateRequest())
	require.NoError(t, err)

	newName := "Renamed App"
	updated, err := service.UpdateApp(context.Background(), created.ID, &dto.UpdateAppRequest{
		Name: &newName,
	})

	require.NoError(t, err)
	assert.Equal(t, "Renamed App", updated.Name)
	assert.Equal(t, created.SmtpUsername, updated.SmtpUsername)
	assert.Equal(t, created.SmtpPassword, updated.SmtpPassword)
	assert.Equal(t, created.DkimPrivateKey, updated.DkimPrivateKey)
}

func TestUpdateApp_ChangedTrackingDomainResetsVerification(t *testing.T) {
	dns := &stubDNSVerifier{verified: true}
	service, _ := newTestService(dns)

	request := validCreateRequest()
	request.CustomTrackingDomain = "email.example.com"
	created, err := service.CreateApp(context.Background(), request)
	require.NoError(t, err)
	require.True(t, created.CustomTrackingDomainVerified)

	dns.verified = false
	other := "email.other.com"
	_, err = service.UpdateApp(context.Background(), created.ID, &dto.UpdateAppRequest{
		CustomTrackingDomain: &other,
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "custom_tracking_domain", validationErr.Field)
}

func TestUpdateApp_NotFound(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})

	_, err := service.UpdateApp(context.Background(), 42, &dto.UpdateAppRequest{})

	assert.ErrorIs(t, err, ErrAppNotFound)
}

func TestCuttlefish_Memoized(t *testing.T) {
	service, repo := newTestService(&stubDNSVerifier{})

	first, err := service.Cuttlefish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cuttlefish", first.Name)
	assert.Equal(t, "cuttlefish.io", first.FromDomain)

	second, err := service.Cuttlefish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.apps, 1)
}

func TestCuttlefish_CacheReset(t *testing.T) {
	service, repo := newTestService(&stubDNSVerifier{})

	first, err := service.Cuttlefish(context.Background())
	require.NoError(t, err)

	service.ResetCuttlefishCache()

	second, err := service.Cuttlefish(context.Background())
	require.NoError(t, err)

	// reset forces a fresh lookup, not a fresh row
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.apps, 1)
}

func TestGetApp_NotFound(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})

	found, err := service.GetApp(context.Background(), 42)

	assert.Nil(t, found)
	assert.ErrorIs(t, err, ErrAppNotFound)
}

func TestAuthenticateSmtp(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})
	created, err := service.CreateApp(context.Background(), validCreateRequest())
	require.NoError(t, err)

	authenticated, err := service.AuthenticateSmtp(context.Background(), created.SmtpUsername, created.SmtpPassword)

	require.NoError(t, err)
	assert.Equal(t, created.ID, authenticated.ID)
}

func TestAuthenticateSmtp_WrongPassword(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})
	created, err := service.CreateApp(context.Background(), validCreateRequest())
	require.NoError(t, err)

	_, err = service.AuthenticateSmtp(context.Background(), created.SmtpUsername, "wrong password wrong")

	assert.ErrorIs(t, err, ErrInvalidSmtpCredentials)
}

func TestAuthenticateSmtp_UnknownUsername(t *testing.T) {
	service, _ := newTestService(&stubDNSVerifier{})

	_, err := service.AuthenticateSmtp(context.Background(), "nobody_1", "anything at all here")

	// same answer as a wrong password
	assert.ErrorIs(t, err, ErrInvalidSmtpCredentials)
}
