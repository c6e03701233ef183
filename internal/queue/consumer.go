package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/casetrack/internal/models"
)

// EventHandler processes one decoded case event. A returned error naks the message.
type EventHandler func(ctx context.Context, evt models.CaseEvent) error

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{nc: nc, js: js}, nil
}

// DecodeCaseEvent parses a CASES message payload.
func DecodeCaseEvent(data []byte) (models.CaseEvent, error) {
	var evt models.CaseEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return models.CaseEvent{}, fmt.Errorf("decode case event: %w", err)
	}
	if evt.Type == "" {
		return models.CaseEvent{}, fmt.Errorf("decode case event: missing type")
	}
	return evt, nil
}

// ConsumeEvents starts consuming new case events (for the API to broadcast via WebSocket).
// Undecodable messages are terminated rather than redelivered.
func (c *Consumer) ConsumeEvents(ctx context.Context, consumerName string, handler EventHandler) error {
	stream, err := c.js.Stream(ctx, CasesStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", CasesStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       10 * time.Second,
		MaxDeliver:    3,
		FilterSubject: CasesSubjectBase + ".>",
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch case events error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				evt, err := DecodeCaseEvent(msg.Data())
				if err != nil {
					slog.Error("drop case event", "subject", msg.Subject(), "error", err)
					_ = msg.Term()
					continue
				}
				if err := handler(ctx, evt); err != nil {
					slog.Error("process case event error", "type", evt.Type, "error", err)
					_ = msg.Nak()
				} else {
					_ = msg.Ack()
				}
			}
		}
	}()

	slog.Info("case event consumer started", "consumer", consumerName)
	return nil
}

func (c *Consumer) Close() {
	c.nc.Close()
}
