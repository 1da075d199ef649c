// Package events publishes product lifecycle events to NATS for audit
// consumers. Publishing is optional: the service runs without it when no
// NATS URL is configured.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"product-importer-service/internal/models"
)

const (
	SubjectProductCreated  = "product.created"
	SubjectProductUpdated  = "product.updated"
	SubjectProductDeleted  = "product.deleted"
	SubjectProductImported = "product.imported"
)

// ProductEvent is the wire shape of a published event.
type ProductEvent struct {
	EventType  string    `json:"eventType"`
	ProductID  string    `json:"productId,omitempty"`
	SKU        string    `json:"sku,omitempty"`
	TaskID     string    `json:"taskId,omitempty"`
	Processed  int       `json:"processed,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher wraps a NATS connection for product events.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS at natsURL.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("product-importer-service"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "product-events"),
	}, nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// PublishProductCreated publishes a product.created event
func (p *Publisher) PublishProductCreated(product *models.Product) {
	p.publish(SubjectProductCreated, ProductEvent{
		EventType:  SubjectProductCreated,
		ProductID:  product.ID.String(),
		SKU:        product.SKU,
		OccurredAt: time.Now().UTC(),
	})
}

// PublishProductUpdated publishes a product.updated event
func (p *Publisher) PublishProductUpdated(product *models.Product) {
	p.publish(SubjectProductUpdated, ProductEvent{
		EventType:  SubjectProductUpdated,
		ProductID:  product.ID.String(),
		SKU:        product.SKU,
		OccurredAt: time.Now().UTC(),
	})
}

// PublishProductDeleted publishes a product.deleted event
func (p *Publisher) PublishProductDeleted(sku string) {
	p.publish(SubjectProductDeleted, ProductEvent{
		EventType:  SubjectProductDeleted,
		SKU:        sku,
		OccurredAt: time.Now().UTC(),
	})
}

// PublishImportCompleted publishes a product.imported event once an import
// run finishes.
func (p *Publisher) PublishImportCompleted(taskID string, processed int) {
	p.publish(SubjectProductImported, ProductEvent{
		EventType:  SubjectProductImported,
		TaskID:     taskID,
		Processed:  processed,
		OccurredAt: time.Now().UTC(),
	})
}

// publish sends the event asynchronously so callers are never blocked on
// the message bus.
func (p *Publisher) publish(subject string, event ProductEvent) {
	go func() {
		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).Error("Failed to encode product event")
			return
		}
		if err := p.conn.Publish(subject, data); err != nil {
			p.logger.WithFields(logrus.Fields{
				"subject": subject,
				"sku":     event.SKU,
			}).WithError(err).Error("Failed to publish product event")
			return
		}
		p.logger.WithFields(logrus.Fields{
			"subject": subject,
			"sku":     event.SKU,
		}).Debug("Product event published")
	}()
}
