package app

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/cuttlefish/cuttlefish/internal/models"
)

var appNameRegexp = regexp.MustCompile(`^[A-Za-z0-9 _]+$`)

// ValidationError carries a field-level validation failure back to the
// caller of app creation or update.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func newValidator() *validator.Validate {
	v := validator.New()
	// letters, digits, spaces and underscores only
	v.RegisterValidation("app_name", func(fl validator.FieldLevel) bool {
		return appNameRegexp.MatchString(fl.Field().String())
	})
	return v
}

// validateApp checks the struct-level rules and, only when a custom
// tracking domain is present, its DNS delegation. No domain means no
// network call at all.
func (s *appService) validateApp(ctx context.Context, app *models.App) error {
	if err := s.validate.Struct(app); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok || len(validationErrors) == 0 {
			return err
		}
		return fieldError(validationErrors[0])
	}

	if app.CustomTrackingDomain == "" {
		return nil
	}

	if !s.dns.VerifyTrackingCNAME(ctx, app.CustomTrackingDomain) {
		return &ValidationError{
			Field:   "custom_tracking_domain",
			Message: fmt.Sprintf("CNAME record for %s does not point at this server", app.CustomTrackingDomain),
		}
	}
	app.CustomTrackingDomainVerified = true

	return nil
}

func fieldError(fe validator.FieldError) *ValidationError {
	switch fe.StructField() {
	case "Name":
		if fe.Tag() == "app_name" {
			return &ValidationError{Field: "name", Message: "only allows letters, numbers, spaces and underscores"}
		}
		return &ValidationError{Field: "name", Message: "can't be blank"}
	case "OpenTrackingEnabled":
		return &ValidationError{Field: "open_tracking_enabled", Message: "must be set to true or false"}
	case "ClickTrackingEnabled":
		return &ValidationError{Field: "click_tracking_enabled", Message: "must be set to true or false"}
	default:
		return &ValidationError{Field: fe.StructField(), Message: "is invalid"}
	}
}
