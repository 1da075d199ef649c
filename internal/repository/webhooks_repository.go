package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"product-importer-service/internal/models"
)

type WebhooksRepository struct {
	db *gorm.DB
}

func NewWebhooksRepository(db *gorm.DB) *WebhooksRepository {
	return &WebhooksRepository{db: db}
}

// CreateWebhook registers a new webhook.
func (r *WebhooksRepository) CreateWebhook(webhook *models.Webhook) error {
	if webhook.ID == uuid.Nil {
		webhook.ID = uuid.New()
	}
	webhook.CreatedAt = time.Now()
	return r.db.Create(webhook).Error
}

// ListWebhooks returns all registered webhooks in registration order.
func (r *WebhooksRepository) ListWebhooks() ([]models.Webhook, error) {
	webhooks := make([]models.Webhook, 0)
	err := r.db.Order("created_at ASC").Find(&webhooks).Error
	return webhooks, err
}

// ListEnabledWebhooks returns the webhooks eligible for notification.
func (r *WebhooksRepository) ListEnabledWebhooks() ([]models.Webhook, error) {
	webhooks := make([]models.Webhook, 0)
	err := r.db.Where("enabled = ?", true).Order("created_at ASC").Find(&webhooks).Error
	return webhooks, err
}

// GetWebhook retrieves a webhook by id. Returns gorm.ErrRecordNotFound
// when absent.
func (r *WebhooksRepository) GetWebhook(id uuid.UUID) (*models.Webhook, error) {
	var webhook models.Webhook
	if err := r.db.Where("id = ?", id).First(&webhook).Error; err != nil {
		return nil, err
	}
	return &webhook, nil
}

// DeleteWebhook removes a webhook by id. Returns gorm.ErrRecordNotFound
// when nothing matched.
func (r *WebhooksRepository) DeleteWebhook(id uuid.UUID) error {
	result := r.db.Where("id = ?", id).Delete(&models.Webhook{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
