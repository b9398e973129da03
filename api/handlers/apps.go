package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/cuttlefish/cuttlefish/dto"
	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/models"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/internal/utils"
	"github.com/cuttlefish/cuttlefish/services/app"
)

type AppsHandler struct {
	apps interfaces.AppService
	dns  interfaces.DNSVerifier
}

func NewAppsHandler(apps interfaces.AppService, dns interfaces.DNSVerifier) *AppsHandler {
	return &AppsHandler{
		apps: apps,
		dns:  dns,
	}
}

// appResponse is the wire shape of an app. The DKIM private key never
// leaves the server; publishing the selector and public key is all a
// customer needs to set up their DNS.
type appResponse struct {
	ID                           uint64  `json:"id"`
	Name                         string  `json:"name"`
	TeamID                       *uint64 `json:"teamId,omitempty"`
	SmtpUsername                 string  `json:"smtpUsername"`
	SmtpPassword                 string  `json:"smtpPassword"`
	DkimSelector                 string  `json:"dkimSelector"`
	DkimPublicKey                string  `json:"dkimPublicKey"`
	OpenTrackingEnabled          *bool   `json:"openTrackingEnabled"`
	ClickTrackingEnabled         *bool   `json:"clickTrackingEnabled"`
	CustomTrackingDomain         string  `json:"customTrackingDomain,omitempty"`
	CustomTrackingDomainVerified bool    `json:"customTrackingDomainVerified"`
	FromDomain                   string  `json:"fromDomain,omitempty"`
}

func mapAppResponse(a *models.App) appResponse {
	return appResponse{
		ID:                           a.ID,
		Name:                         a.Name,
		TeamID:                       a.TeamID,
		SmtpUsername:                 a.SmtpUsername,
		SmtpPassword:                 a.SmtpPassword,
		DkimSelector:                 a.DkimSelector(),
		DkimPublicKey:                a.DkimPublicKey,
		OpenTrackingEnabled:          a.OpenTrackingEnabled,
		ClickTrackingEnabled:         a.ClickTrackingEnabled,
		CustomTrackingDomain:         a.CustomTrackingDomain,
		CustomTrackingDomainVerified: a.CustomTrackingDomainVerified,
		FromDomain:                   a.FromDomain,
	}
}

func (h *AppsHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request dto.CreateAppRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		created, err := h.apps.CreateApp(c.Request.Context(), &request)
		if err != nil {
			respondAppError(c, err)
			return
		}

		c.JSON(http.StatusCreated, mapAppResponse(created))
	}
}

func (h *AppsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app id"})
			return
		}

		ctx := utils.SetAppIdInContext(c.Request.Context(), c.Param("id"))
		found, err := h.apps.GetApp(ctx, id)
		if err != nil {
			respondAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, mapAppResponse(found))
	}
}

func (h *AppsHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid app id"})
			return
		}

		var request dto.UpdateAppRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		ctx := utils.SetAppIdInContext(c.Request.Context(), c.Param("id"))
		updated, err := h.apps.UpdateApp(ctx, id, &request)
		if err != nil {
			respondAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, mapAppResponse(updated))
	}
}

// VerifyCredentials checks an SMTP username/password pair for the relay
// frontend. Unknown usernames and wrong passwords get the same answer.
func (h *AppsHandler) VerifyCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request dto.VerifySmtpCredentialsRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		authenticated, err := h.apps.AuthenticateSmtp(c.Request.Context(), request.SmtpUsername, request.SmtpPassword)
		if err != nil {
			if errors.Is(err, app.ErrInvalidSmtpCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			tracing.TraceErr(opentracing.SpanFromContext(c.Request.Context()), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"appId": authenticated.ID})
	}
}

func respondAppError(c *gin.Context, err error) {
	var validationErr *app.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}
	if errors.Is(err, app.ErrAppNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
		return
	}
	tracing.TraceErr(opentracing.SpanFromContext(c.Request.Context()), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
