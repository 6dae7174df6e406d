package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/marine-sighting/internal/config"
	"github.com/couchcryptid/marine-sighting/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes created sightings to a Kafka topic.
// It implements the sightings server's Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sightings topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes a confirmed sighting and writes it keyed by its ID, so
// every update for one sighting lands on the same partition.
func (w *Writer) Publish(ctx context.Context, s domain.Sighting) error {
	msg, err := serializeToMessage(s)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write sighting %s: %w", msg.Key, err)
	}
	w.logger.Debug("sighting published", "id", string(msg.Key), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a confirmed sighting into a Kafka message.
func serializeToMessage(s domain.Sighting) (kafkago.Message, error) {
	if s.ID == nil {
		return kafkago.Message{}, fmt.Errorf("serialize sighting: %w", domain.ErrMalformed)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sighting: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(*s.ID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "species", Value: []byte(s.Species)},
			{Key: "created_at", Value: []byte(domain.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
