package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/rsmith2002/filingwatcher/internal/pipeline"
	"github.com/segmentio/kafka-go"
)

// BatchRunner processes one batch of newly stored filing rows
type BatchRunner interface {
	Run(ctx context.Context, b pipeline.Batch) (*models.IngestRun, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads FILINGS_INGESTED events and hands each batch to the runner.
// Events whose id was already processed are skipped.
type Consumer struct {
	reader messageReader
	topic  string
	runner BatchRunner
}

// NewConsumer creates a new Kafka consumer for ingest events
func NewConsumer(brokers []string, topic, groupID string, runner BatchRunner) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		topic:  topic,
		runner: runner,
	}
}

// Start begins consuming messages from Kafka. The reader is closed when ctx
// is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting Kafka consumer for topic: %s", c.topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("Kafka consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Println("Kafka consumer shutting down...")
					return c.reader.Close()
				}
				log.Printf("Error reading message: %v", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("Error processing message: %v", err)
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	log.Printf("Received message from partition %d offset %d: key=%s",
		msg.Partition, msg.Offset, string(msg.Key))

	var event models.IngestEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal ingest event: %w", err)
	}

	if event.EventType != models.EventFilingsIngested {
		log.Printf("Ignoring event type: %s", event.EventType)
		return nil
	}
	if event.EventID == "" {
		return fmt.Errorf("ingest event from %s has no event_id", event.Source)
	}

	run, err := c.runner.Run(ctx, pipeline.Batch{
		EventID:   event.EventID,
		FilingIDs: event.FilingIDs,
		StakeIDs:  event.StakeIDs,
		Tickers:   event.Tickers,
	})
	if errors.Is(err, pipeline.ErrAlreadyProcessed) {
		log.Printf("Event %s from %s already processed, skipping", event.EventID, event.Source)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run ingest event %s: %w", event.EventID, err)
	}

	log.Printf("Processed event %s from %s: run %d %s", event.EventID, event.Source, run.ID, run.Status)
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
