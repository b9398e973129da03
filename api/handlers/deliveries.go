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
	"github.com/cuttlefish/cuttlefish/services/delivery"
)

type DeliveriesHandler struct {
	deliveries interfaces.DeliveryService
}

func NewDeliveriesHandler(deliveries interfaces.DeliveryService) *DeliveriesHandler {
	return &DeliveriesHandler{
		deliveries: deliveries,
	}
}

type deliveryResponse struct {
	ID                   uint64                 `json:"id"`
	AppID                uint64                 `json:"appId"`
	MessageID            string                 `json:"messageId"`
	FromAddress          string                 `json:"fromAddress"`
	ToAddresses          []string               `json:"toAddresses"`
	Subject              string                 `json:"subject"`
	Status               string                 `json:"status"`
	OpenTrackingEnabled  bool                   `json:"openTrackingEnabled"`
	ClickTrackingEnabled bool                   `json:"clickTrackingEnabled"`
	OpenTracked          bool                   `json:"openTracked"`
	Opened               bool                   `json:"opened"`
	Links                []deliveryLinkResponse `json:"links,omitempty"`
}

type deliveryLinkResponse struct {
	URL     string `json:"url"`
	Clicked bool   `json:"clicked"`
}

func mapDeliveryLinks(links []models.DeliveryLink) []deliveryLinkResponse {
	mapped := make([]deliveryLinkResponse, 0, len(links))
	for _, link := range links {
		mapped = append(mapped, deliveryLinkResponse{
			URL:     link.URL,
			Clicked: link.Clicked(),
		})
	}
	return mapped
}

func mapDeliveryResponse(d *models.Delivery) deliveryResponse {
	return deliveryResponse{
		ID:                   d.ID,
		AppID:                d.AppID,
		MessageID:            d.MessageID,
		FromAddress:          d.FromAddress,
		ToAddresses:          d.ToAddresses,
		Subject:              d.Subject,
		Status:               string(d.Status),
		OpenTrackingEnabled:  d.OpenTrackingEnabled,
		ClickTrackingEnabled: d.ClickTrackingEnabled,
		OpenTracked:          d.OpenTracked(),
		Opened:               d.Opened(),
	}
}

func (h *DeliveriesHandler) Send() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request dto.SendEmailRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		ctx := utils.SetAppIdInContext(c.Request.Context(), strconv.FormatUint(request.AppID, 10))
		created, _, err := h.deliveries.Send(ctx, &request)
		if err != nil {
			if errors.Is(err, delivery.ErrAppNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
				return
			}
			tracing.TraceErr(opentracing.SpanFromContext(c.Request.Context()), err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, mapDeliveryResponse(created))
	}
}

func (h *DeliveriesHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delivery id"})
			return
		}

		found, err := h.deliveries.GetDelivery(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, delivery.ErrDeliveryNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
				return
			}
			tracing.TraceErr(opentracing.SpanFromContext(c.Request.Context()), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		links, err := h.deliveries.GetDeliveryLinks(c.Request.Context(), id)
		if err != nil {
			tracing.TraceErr(opentracing.SpanFromContext(c.Request.Context()), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		response := mapDeliveryResponse(found)
		response.Links = mapDeliveryLinks(links)
		c.JSON(http.StatusOK, response)
	}
}
