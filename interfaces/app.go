package interfaces

import (
	"context"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/internal/models"
)

type AppService interface {
	// CreateApp validates the request and generates the app's SMTP
	// credentials and DKIM keypair
	CreateApp(ctx context.Context, request *dto.CreateAppRequest) (*models.App, error)
	// UpdateApp never touches the immutable identity fields
	UpdateApp(ctx context.Context, id uint64, request *dto.UpdateAppRequest) (*models.App, error)
	GetApp(ctx context.Context, id uint64) (*models.App, error)
	// AuthenticateSmtp checks a username/password pair against the app's
	// SMTP credentials in constant time
	AuthenticateSmtp(ctx context.Context, username, password string) (*models.App, error)
	// Cuttlefish returns the singleton system app, creating it on first use
	Cuttlefish(ctx context.Context) (*models.App, error)
	// ResetCuttlefishCache drops the memoized singleton, for tests
	ResetCuttlefishCache()
}
