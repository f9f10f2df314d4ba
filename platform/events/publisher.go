package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CycleCompletedType is the event_type header of cycle notifications.
const CycleCompletedType = "aggregation.cycle.completed"

// CycleEvent notifies downstream consumers (report caches, dashboards) that a
// cycle finished and which derived tables were refreshed.
type CycleEvent struct {
	EventID    string    `json:"event_id"`
	CycleID    string    `json:"cycle_id"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Executed   []string  `json:"executed"`
	Refreshed  []string  `json:"refreshed_tables"`
	Skipped    []string  `json:"skipped,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewCycleEvent builds the event for a finished cycle.
func NewCycleEvent(report *models.CycleReport) CycleEvent {
	skipped := make([]string, 0, len(report.Skipped))
	for _, p := range report.Skipped {
		skipped = append(skipped, p.Name)
	}
	return CycleEvent{
		EventID:    uuid.NewString(),
		CycleID:    report.CycleID,
		Status:     string(report.Status),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Executed:   report.Executed,
		Refreshed:  models.TableNames(report.Filled),
		Skipped:    skipped,
		Error:      report.Error,
	}
}

// Publisher emits cycle events to Kafka.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher configures a writer that waits for all in-sync replicas.
func NewPublisher(brokers []string, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			MaxAttempts:            3,
			WriteTimeout:           10 * time.Second,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// Publish writes one event keyed by its cycle ID.
func (p *Publisher) Publish(ctx context.Context, event CycleEvent) error {
	msg, err := buildMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish cycle event",
			zap.String("cycle_id", event.CycleID),
			zap.String("topic", p.writer.Topic),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish cycle event: %w", err)
	}

	p.logger.Debug("cycle event published",
		zap.String("cycle_id", event.CycleID),
		zap.String("event_id", event.EventID),
	)
	return nil
}

// Close flushes pending writes and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func buildMessage(event CycleEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal cycle event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.CycleID),
		Value: payload,
		Time:  event.FinishedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(CycleCompletedType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}, nil
}
