// Package events publishes domain events to NATS JetStream. The publisher is
// nil-safe so the rest of the service does not care whether NATS is wired.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"liveshop-service/internal/models"
)

// Stream and subject layout
const (
	StreamProducts   = "LIVESHOP_PRODUCTS"
	StreamLiveOrders = "LIVESHOP_ORDERS"

	SubjectProductCreated        = "product.created"
	SubjectProductUpdated        = "product.updated"
	SubjectProductDeleted        = "product.deleted"
	SubjectVariantsGenerated     = "product.variants_generated"
	SubjectPurchaseOrderReceived = "purchaseorder.received"
	SubjectLiveOrderCreated      = "liveorder.created"
	SubjectLiveOrderConfirmed    = "liveorder.confirmed"
	SubjectIndexCorrected        = "liveorder.index_corrected"
)

// publishTimeout bounds each async publish attempt
const publishTimeout = 10 * time.Second

// ProductEvent is the payload for product.* subjects
type ProductEvent struct {
	EventID      string    `json:"eventId"`
	EventType    string    `json:"eventType"`
	TenantID     string    `json:"tenantId"`
	Timestamp    time.Time `json:"timestamp"`
	ProductID    string    `json:"productId"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	BaseCode     string    `json:"baseCode,omitempty"`
	VariantCodes []string  `json:"variantCodes,omitempty"`
}

// LiveOrderEvent is the payload for liveorder.* subjects
type LiveOrderEvent struct {
	EventID            string    `json:"eventId"`
	EventType          string    `json:"eventType"`
	TenantID           string    `json:"tenantId"`
	Timestamp          time.Time `json:"timestamp"`
	OrderID            string    `json:"orderId"`
	SessionID          string    `json:"sessionId"`
	CommentID          string    `json:"commentId,omitempty"`
	ProductCode        string    `json:"productCode,omitempty"`
	SessionIndex       int       `json:"sessionIndex"`
	PredictedIndex     int       `json:"predictedIndex,omitempty"`
	AuthoritativeIndex int       `json:"authoritativeIndex,omitempty"`
	Drift              int       `json:"drift,omitempty"`
}

// PurchaseOrderEvent is the payload for purchaseorder.* subjects
type PurchaseOrderEvent struct {
	EventID         string    `json:"eventId"`
	EventType       string    `json:"eventType"`
	TenantID        string    `json:"tenantId"`
	Timestamp       time.Time `json:"timestamp"`
	OrderID         string    `json:"orderId"`
	OrderNumber     string    `json:"orderNumber"`
	ItemCount       int       `json:"itemCount"`
	ProductsCreated int       `json:"productsCreated"`
	ProductsUpdated int       `json:"productsUpdated"`
}

// Publisher publishes service events to JetStream
type Publisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the service streams exist
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("liveshop-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("[NATS] Disconnected: %v", err)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("[NATS] Connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &Publisher{
		conn:   nc,
		js:     js,
		logger: logger.WithField("component", "events-publisher"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	p.ensureStream(ctx, StreamProducts, []string{"product.>", "purchaseorder.>"})
	p.ensureStream(ctx, StreamLiveOrders, []string{"liveorder.>"})

	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context, name string, subjects []string) {
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		p.logger.WithError(err).WithField("stream", name).Warn("Failed to ensure stream (may already exist)")
	}
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// PublishProductCreated publishes a product.created event
func (p *Publisher) PublishProductCreated(tenantID string, product *models.Product) {
	p.publishProduct(SubjectProductCreated, tenantID, product, nil)
}

// PublishProductUpdated publishes a product.updated event
func (p *Publisher) PublishProductUpdated(tenantID string, product *models.Product) {
	p.publishProduct(SubjectProductUpdated, tenantID, product, nil)
}

// PublishProductDeleted publishes a product.deleted event
func (p *Publisher) PublishProductDeleted(tenantID string, product *models.Product) {
	p.publishProduct(SubjectProductDeleted, tenantID, product, nil)
}

// PublishVariantsGenerated publishes a product.variants_generated event with
// every code the batch created or updated.
func (p *Publisher) PublishVariantsGenerated(tenantID string, base *models.Product, variantCodes []string) {
	p.publishProduct(SubjectVariantsGenerated, tenantID, base, variantCodes)
}

func (p *Publisher) publishProduct(subject, tenantID string, product *models.Product, variantCodes []string) {
	if p == nil {
		return
	}
	event := ProductEvent{
		EventID:      uuid.New().String(),
		EventType:    subject,
		TenantID:     tenantID,
		Timestamp:    time.Now().UTC(),
		ProductID:    product.ID.String(),
		Code:         product.Code,
		Name:         product.Name,
		Status:       string(product.Status),
		VariantCodes: variantCodes,
	}
	if product.BaseCode != nil {
		event.BaseCode = *product.BaseCode
	}
	p.publish(subject, event, logrus.Fields{"code": product.Code, "tenantID": tenantID})
}

// PublishLiveOrderCreated publishes a liveorder.created event
func (p *Publisher) PublishLiveOrderCreated(tenantID string, order *models.LiveOrder) {
	if p == nil {
		return
	}
	event := LiveOrderEvent{
		EventID:        uuid.New().String(),
		EventType:      SubjectLiveOrderCreated,
		TenantID:       tenantID,
		Timestamp:      time.Now().UTC(),
		OrderID:        order.ID.String(),
		SessionID:      order.SessionID.String(),
		CommentID:      order.CommentID,
		ProductCode:    order.ProductCode,
		SessionIndex:   order.SessionIndex,
		PredictedIndex: order.PredictedIndex,
	}
	p.publish(SubjectLiveOrderCreated, event, logrus.Fields{"orderID": event.OrderID, "tenantID": tenantID})
}

// PublishIndexCorrected publishes a liveorder.index_corrected event after the
// authoritative index disagreed with the prediction.
func (p *Publisher) PublishIndexCorrected(tenantID string, order *models.LiveOrder, predicted, authoritative int) {
	if p == nil {
		return
	}
	event := LiveOrderEvent{
		EventID:            uuid.New().String(),
		EventType:          SubjectIndexCorrected,
		TenantID:           tenantID,
		Timestamp:          time.Now().UTC(),
		OrderID:            order.ID.String(),
		SessionID:          order.SessionID.String(),
		ProductCode:        order.ProductCode,
		SessionIndex:       authoritative,
		PredictedIndex:     predicted,
		AuthoritativeIndex: authoritative,
		Drift:              authoritative - predicted,
	}
	p.publish(SubjectIndexCorrected, event, logrus.Fields{"orderID": event.OrderID, "drift": event.Drift})
}

// PublishPurchaseOrderReceived publishes a purchaseorder.received event
func (p *Publisher) PublishPurchaseOrderReceived(tenantID string, order *models.PurchaseOrder, created, updated int) {
	if p == nil {
		return
	}
	event := PurchaseOrderEvent{
		EventID:         uuid.New().String(),
		EventType:       SubjectPurchaseOrderReceived,
		TenantID:        tenantID,
		Timestamp:       time.Now().UTC(),
		OrderID:         order.ID.String(),
		OrderNumber:     order.OrderNumber,
		ItemCount:       len(order.Items),
		ProductsCreated: created,
		ProductsUpdated: updated,
	}
	p.publish(SubjectPurchaseOrderReceived, event, logrus.Fields{"orderNumber": order.OrderNumber, "tenantID": tenantID})
}

// publish marshals and publishes asynchronously so callers never block on NATS
func (p *Publisher) publish(subject string, event interface{}, fields logrus.Fields) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).WithField("subject", subject).Error("Failed to marshal event")
			return
		}
		if _, err := p.js.Publish(ctx, subject, data); err != nil {
			p.logger.WithFields(fields).WithError(err).WithField("subject", subject).Error("Failed to publish event")
			return
		}
		p.logger.WithFields(fields).WithField("subject", subject).Debug("Event published")
	}()
}
