// Package subscribers consumes the authoritative liveorder.confirmed events
// published by the external order system and settles provisional session
// indexes against them.
package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"liveshop-service/internal/events"
	"liveshop-service/internal/services"
)

// ConfirmedEvent is the payload of liveorder.confirmed: the order system of
// record assigning the authoritative session index to one live order.
type ConfirmedEvent struct {
	EventID            string    `json:"eventId"`
	TenantID           string    `json:"tenantId"`
	Timestamp          time.Time `json:"timestamp"`
	OrderID            string    `json:"orderId"`
	AuthoritativeIndex int       `json:"authoritativeIndex"`
}

// LiveOrderSubscriber consumes liveorder.confirmed from the LIVESHOP_ORDERS
// stream with a durable consumer, so confirmations survive restarts.
type LiveOrderSubscriber struct {
	conn         *nats.Conn
	js           jetstream.JetStream
	liveOrders   services.LiveOrderService
	consumerName string
	logger       *logrus.Entry
}

// NewLiveOrderSubscriber connects to NATS and prepares the subscriber
func NewLiveOrderSubscriber(liveOrders services.LiveOrderService, logger *logrus.Logger) (*LiveOrderSubscriber, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	log := logger.WithField("component", "liveorder_subscriber")

	nc, err := nats.Connect(natsURL,
		nats.Name("liveshop-service-subscriber"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
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

	hostname, _ := os.Hostname()
	return &LiveOrderSubscriber{
		conn:         nc,
		js:           js,
		liveOrders:   liveOrders,
		consumerName: fmt.Sprintf("liveshop-index-settler-%s", hostname),
		logger:       log,
	}, nil
}

// Start begins consuming confirmed events until the context is cancelled
func (s *LiveOrderSubscriber) Start(ctx context.Context) error {
	// The publisher normally creates the stream; ensure it exists in case
	// the subscriber comes up first.
	_, err := s.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      events.StreamLiveOrders,
		Subjects:  []string{"liveorder.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour * 7,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Could not ensure live orders stream")
	}

	go s.consume(ctx)
	s.logger.Info("Live order subscriber started")
	return nil
}

func (s *LiveOrderSubscriber) consume(ctx context.Context) {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, events.StreamLiveOrders, jetstream.ConsumerConfig{
		Durable:       s.consumerName,
		FilterSubject: events.SubjectLiveOrderConfirmed,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to create confirmed events consumer")
		return
	}

	msgs, err := consumer.Messages()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get messages iterator")
		return
	}

	for {
		select {
		case <-ctx.Done():
			msgs.Stop()
			return
		default:
			msg, err := msgs.Next()
			if err != nil {
				if err == context.Canceled {
					return
				}
				s.logger.WithError(err).Error("Error getting next confirmed event")
				time.Sleep(time.Second)
				continue
			}

			if err := s.handleConfirmed(msg); err != nil {
				s.logger.WithError(err).Error("Error handling confirmed event")
				msg.Nak()
			} else {
				msg.Ack()
			}
		}
	}
}

// handleConfirmed settles one order's index. Duplicate deliveries are
// expected and settle to the same result; unknown orders are acked rather
// than retried forever.
func (s *LiveOrderSubscriber) handleConfirmed(msg jetstream.Msg) error {
	var event ConfirmedEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		s.logger.WithError(err).Warn("Dropping malformed confirmed event")
		return nil
	}
	if event.TenantID == "" || event.OrderID == "" || event.AuthoritativeIndex < 1 {
		s.logger.WithField("event_id", event.EventID).Warn("Dropping incomplete confirmed event")
		return nil
	}
	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		s.logger.WithField("order_id", event.OrderID).Warn("Dropping confirmed event with invalid order id")
		return nil
	}

	order, err := s.liveOrders.ConfirmIndex(event.TenantID, orderID, event.AuthoritativeIndex)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.WithField("order_id", event.OrderID).Warn("Dropping confirmed event for unknown order")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to confirm index for order %s: %w", event.OrderID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":   event.TenantID,
		"order_id":    event.OrderID,
		"index":       order.SessionIndex,
		"index_state": order.IndexState,
	}).Info("Live order index settled")
	return nil
}

// Close drains the NATS connection
func (s *LiveOrderSubscriber) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
