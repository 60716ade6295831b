// Package producer provides Kafka producer functionality for the
// alert.changed topic.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/grantcue/grantcue/internal/events"
)

const (
	// writeTimeout is the maximum time to wait for a Kafka write operation.
	writeTimeout = 10 * time.Second
)

// Producer wraps a Kafka writer and publishes alert changed events.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer with the specified brokers and
// topic, configured for at-least-once delivery with synchronous writes.
func NewProducer(brokers string, topic string) (*Producer, error) {
	if brokers == "" {
		return nil, fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
	)

	// Best effort; fails silently when the broker disallows auto-create.
	createTopicIfNotExists(brokerList[0], topic)

	// Hash balancer partitions by alert_id so one alert's events stay ordered.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish serializes an alert changed event to JSON and publishes it,
// keyed by alert_id.
func (p *Producer) Publish(ctx context.Context, changed *events.AlertChanged) error {
	payload, err := json.Marshal(changed)
	if err != nil {
		slog.Error("Failed to marshal alert changed event to JSON",
			"alert_id", changed.AlertID,
			"action", changed.Action,
			"error", err,
		)
		return fmt.Errorf("failed to marshal alert changed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(changed.AlertID),
		Value: payload,
		Headers: []kafka.Header{
			{
				Key:   "schema_version",
				Value: []byte(fmt.Sprintf("%d", changed.SchemaVersion)),
			},
			{
				Key:   "action",
				Value: []byte(changed.Action),
			},
			{
				Key:   "alert_id",
				Value: []byte(changed.AlertID),
			},
		},
		Time: time.Unix(changed.UpdatedAt, 0),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"alert_id", changed.AlertID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Info("Published alert changed event",
		"alert_id", changed.AlertID,
		"organization_id", changed.OrganizationID,
		"action", changed.Action,
	)

	return nil
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	return nil
}

// createTopicIfNotExists attempts to create the topic via the controller.
func createTopicIfNotExists(broker, topic string) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		slog.Warn("Could not dial Kafka to create topic", "broker", broker, "error", err)
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		slog.Warn("Could not resolve Kafka controller", "error", err)
		return
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		slog.Warn("Could not dial Kafka controller", "error", err)
		return
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		slog.Warn("Could not create Kafka topic", "topic", topic, "error", err)
	}
}
