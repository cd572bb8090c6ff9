package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ahrav/go-posescore/internal/domain"
	"github.com/ahrav/go-posescore/internal/ports"
)

var _ ports.PredictionSink = (*KafkaSink)(nil)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures publishing predictions to Kafka.
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	Brokers      []string      `yaml:"brokers" json:"brokers" validate:"required_if=Enabled true"`
	Topic        string        `yaml:"topic" json:"topic" default:"pose-predictions" validate:"required_if=Enabled true"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout" default:"100ms"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts" default:"3" validate:"gte=0"`
}

// KafkaSink publishes each prediction set as a JSON message keyed by
// complex id, so that records for one complex land on one partition.
type KafkaSink struct {
	writer MessageWriter
	topic  string
	runID  string
}

// NewKafkaSink creates a sink writing through a kafka.Writer built from cfg.
func NewKafkaSink(cfg KafkaConfig, runID string) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers are required", domain.ErrInvalidConfiguration)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: kafka topic is required", domain.ErrInvalidConfiguration)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  cfg.MaxAttempts,
		BatchTimeout: cfg.BatchTimeout,
	}
	return NewKafkaSinkFromWriter(w, "", runID), nil
}

// NewKafkaSinkFromWriter wraps an existing writer. A non-empty topic is set
// on every message; leave it empty when the writer carries its own topic.
func NewKafkaSinkFromWriter(w MessageWriter, topic, runID string) *KafkaSink {
	return &KafkaSink{writer: w, topic: topic, runID: runID}
}

// Write implements ports.PredictionSink.
func (k *KafkaSink) Write(ctx context.Context, set domain.PredictionSet) error {
	value, err := json.Marshal(set)
	if err != nil {
		return ports.NewSinkError("kafka", set.ID, err)
	}

	msg := kafka.Message{
		Topic: k.topic,
		Key:   []byte(set.ID),
		Value: value,
		Time:  time.Now(),
	}
	if k.runID != "" {
		msg.Headers = []kafka.Header{{Key: "run_id", Value: []byte(k.runID)}}
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return ports.NewSinkError("kafka", set.ID, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
