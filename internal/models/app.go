package models

import (
	"fmt"
	"time"

	"github.com/cuttlefish/cuttlefish/internal/utils"
)

// App is a tenant account that sends email through cuttlefish. SMTP
// credentials and the DKIM keypair are generated once at creation and
// never recomputed afterwards.
type App struct {
	ID     uint64  `gorm:"primary_key;autoIncrement" json:"id"`
	Name   string  `gorm:"column:name;type:varchar(255);NOT NULL" json:"name" validate:"required,app_name"`
	TeamID *uint64 `gorm:"column:team_id;index" json:"teamId,omitempty"`

	// SMTP credentials, immutable after creation
	SmtpUsername string `gorm:"column:smtp_username;type:varchar(255);uniqueIndex" json:"smtpUsername"`
	SmtpPassword string `gorm:"column:smtp_password;type:varchar(255)" json:"-"`

	// DKIM keypair, immutable after creation
	DkimPrivateKey     string `gorm:"column:dkim_private_key;type:text" json:"-"`
	DkimPublicKey      string `gorm:"column:dkim_public_key;type:text" json:"dkimPublicKey"`
	LegacyDkimSelector bool   `gorm:"column:legacy_dkim_selector;type:boolean;NOT NULL;DEFAULT:false" json:"legacyDkimSelector"`

	OpenTrackingEnabled  *bool  `gorm:"column:open_tracking_enabled;type:boolean;NOT NULL" json:"openTrackingEnabled" validate:"required"`
	ClickTrackingEnabled *bool  `gorm:"column:click_tracking_enabled;type:boolean;NOT NULL" json:"clickTrackingEnabled" validate:"required"`
	CustomTrackingDomain string `gorm:"column:custom_tracking_domain;type:varchar(255)" json:"customTrackingDomain"`
	// set when the CNAME of the custom tracking domain was last confirmed
	// to point at this server
	CustomTrackingDomainVerified bool `gorm:"column:custom_tracking_domain_verified;type:boolean;NOT NULL;DEFAULT:false" json:"customTrackingDomainVerified"`

	FromDomain string `gorm:"column:from_domain;type:varchar(255)" json:"fromDomain"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;DEFAULT:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;DEFAULT:current_timestamp" json:"updatedAt"`
}

func (App) TableName() string {
	return "apps"
}

// DkimSelector derives the DKIM selector for the app. Apps created before
// selectors were made unique per app keep the original fixed selector.
func (a *App) DkimSelector() string {
	if a.LegacyDkimSelector {
		return "cuttlefish"
	}
	return fmt.Sprintf("%s_%d.cuttlefish", utils.Slugify(a.Name), a.ID)
}

// UsesCustomTrackingDomain reports whether tracking links for this app
// should be built on the customer's own domain.
func (a *App) UsesCustomTrackingDomain() bool {
	return a.CustomTrackingDomain != "" && a.CustomTrackingDomainVerified
}

// TrackingHost returns the host tracking links are served from, falling
// back to the service's own domain when no verified custom domain is set.
func (a *App) TrackingHost(defaultHost string) string {
	if a.UsesCustomTrackingDomain() {
		return a.CustomTrackingDomain
	}
	return defaultHost
}

func (a *App) OpenTrackingOn() bool {
	return utils.GetOrDefault(a.OpenTrackingEnabled, false)
}

func (a *App) ClickTrackingOn() bool {
	return utils.GetOrDefault(a.ClickTrackingEnabled, false)
}
