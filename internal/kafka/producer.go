package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes flag and analytics events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishFlagRaised publishes a FLAG_RAISED event keyed by ticker
func (p *Producer) PublishFlagRaised(ctx context.Context, flag *models.Flag) error {
	event := models.FlagEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventFlagRaised,
		Flag:      flag,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, flag.Ticker, event)
}

// PublishAnalyticsRefreshed publishes an ANALYTICS_REFRESHED event keyed by ticker
func (p *Producer) PublishAnalyticsRefreshed(ctx context.Context, ticker string, insiders int) error {
	event := models.AnalyticsEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventAnalyticsRefreshed,
		Ticker:    ticker,
		Insiders:  insiders,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, ticker, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
