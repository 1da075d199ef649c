package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"product-importer-service/internal/models"
	"product-importer-service/internal/repository"
	"product-importer-service/internal/webhooks"
)

type WebhooksHandler struct {
	repo       *repository.WebhooksRepository
	dispatcher *webhooks.Dispatcher
}

func NewWebhooksHandler(repo *repository.WebhooksRepository, dispatcher *webhooks.Dispatcher) *WebhooksHandler {
	return &WebhooksHandler{repo: repo, dispatcher: dispatcher}
}

// CreateWebhook registers a new webhook
// POST /webhooks
func (h *WebhooksHandler) CreateWebhook(c *gin.Context) {
	var req models.CreateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	webhook := &models.Webhook{
		URL:     req.URL,
		Event:   req.Event,
		Enabled: true,
	}
	if req.Enabled != nil {
		webhook.Enabled = *req.Enabled
	}

	if err := h.repo.CreateWebhook(webhook); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create webhook",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, webhook)
}

// ListWebhooks lists all registered webhooks
// GET /webhooks
func (h *WebhooksHandler) ListWebhooks(c *gin.Context) {
	hooks, err := h.repo.ListWebhooks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch webhooks",
			},
		})
		return
	}

	c.JSON(http.StatusOK, hooks)
}

// DeleteWebhook removes a webhook by id
// DELETE /webhooks/:id
func (h *WebhooksHandler) DeleteWebhook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid webhook id",
				Field:   "id",
			},
		})
		return
	}

	if err := h.repo.DeleteWebhook(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete webhook",
			},
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// TestWebhook delivers a sample payload to the webhook and relays the
// target's response
// POST /webhooks/:id/test
func (h *WebhooksHandler) TestWebhook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid webhook id",
				Field:   "id",
			},
		})
		return
	}

	webhook, err := h.repo.GetWebhook(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Webhook not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch webhook",
			},
		})
		return
	}

	result, err := h.dispatcher.Test(c.Request.Context(), webhook)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELIVERY_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
