package dto

type CreateAppRequest struct {
	Name                 string  `json:"name"`
	TeamID               *uint64 `json:"teamId"`
	OpenTrackingEnabled  *bool   `json:"openTrackingEnabled"`
	ClickTrackingEnabled *bool   `json:"clickTrackingEnabled"`
	CustomTrackingDomain string  `json:"customTrackingDomain"`
	FromDomain           string  `json:"fromDomain"`
	LegacyDkimSelector   bool    `json:"legacyDkimSelector"`
}

type VerifySmtpCredentialsRequest struct {
	SmtpUsername string `json:"smtpUsername"`
	SmtpPassword string `json:"smtpPassword"`
}

type UpdateAppRequest struct {
	Name                 *string `json:"name"`
	OpenTrackingEnabled  *bool   `json:"openTrackingEnabled"`
	ClickTrackingEnabled *bool   `json:"clickTrackingEnabled"`
	CustomTrackingDomain *string `json:"customTrackingDomain"`
	FromDomain           *string `json:"fromDomain"`
}
