// Package events announces marker changes to other services over MQTT.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/metrics"
	"github.com/ukydev/monument-map/internal/models"
)

const (
	TopicCreated = "markers/created"
	TopicUpdated = "markers/updated"
	TopicDeleted = "markers/deleted"
)

const publishTimeout = 5 * time.Second

// MarkerEvent is the payload of every marker topic.
type MarkerEvent struct {
	Marker models.MarkerRecord `json:"marker"`
	At     time.Time           `json:"at"`
}

// Publisher sends marker change events.
type Publisher interface {
	Publish(ctx context.Context, topic string, marker models.MarkerRecord) error
	Close()
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, models.MarkerRecord) error { return nil }
func (NoopPublisher) Close()                                                      {}

// MQTTPublisher publishes events with QoS 1.
type MQTTPublisher struct {
	client mqtt.Client
	log    log.FieldLogger
}

// NewMQTTPublisher connects to broker. The client reconnects on its own after
// the first successful connection.
func NewMQTTPublisher(broker, clientID string, logger log.FieldLogger) (*MQTTPublisher, error) {
	if broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger = logger.WithField("component", "events")

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WithError(err).Warn("MQTT connection lost")
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.WithField("broker", broker).Info("MQTT connected")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}

	return &MQTTPublisher{client: client, log: logger}, nil
}

// Publish sends marker on topic and waits for the broker to acknowledge it.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string, marker models.MarkerRecord) error {
	payload, err := json.Marshal(MarkerEvent{Marker: marker, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	token := p.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		metrics.EventsPublished.WithLabelValues(topic, metrics.ResultError).Inc()
		return ctx.Err()
	case <-time.After(publishTimeout):
		metrics.EventsPublished.WithLabelValues(topic, metrics.ResultError).Inc()
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		metrics.EventsPublished.WithLabelValues(topic, metrics.ResultError).Inc()
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	metrics.EventsPublished.WithLabelValues(topic, metrics.ResultOK).Inc()
	p.log.WithFields(log.Fields{"topic": topic, "marker_id": marker.ID}).Debug("Published marker event")
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
