package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roastline/api/internal/services"
)

// LogPublisher emits order domain events as structured log records. It
// stands in for a broker until downstream consumers exist; the payload
// is already the JSON a queue message would carry.
type LogPublisher struct {
	logger  *zap.Logger
	marshal func(any) ([]byte, error)
}

// NewLogPublisher constructs a zap backed order event publisher.
func NewLogPublisher(logger *zap.Logger) (*LogPublisher, error) {
	if logger == nil {
		return nil, errors.New("event publisher: logger is required")
	}
	return &LogPublisher{
		logger:  logger,
		marshal: json.Marshal,
	}, nil
}

// PublishOrderEvent records the event with its serialised payload.
func (p *LogPublisher) PublishOrderEvent(_ context.Context, event services.OrderEvent) error {
	if p == nil || p.logger == nil {
		return errors.New("event publisher: not initialised")
	}

	payload, err := p.marshal(eventPayload{
		Type:           event.Type,
		OrderID:        event.OrderID,
		OrderNumber:    event.OrderNumber,
		PreviousStatus: string(event.PreviousStatus),
		CurrentStatus:  string(event.CurrentStatus),
		ActorID:        event.ActorID,
		OccurredAt:     event.OccurredAt.UTC().Format(time.RFC3339Nano),
		Metadata:       event.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	p.logger.Info("order event",
		zap.String("event_type", event.Type),
		zap.String("order_id", event.OrderID),
		zap.ByteString("payload", payload),
	)
	return nil
}

type eventPayload struct {
	Type           string         `json:"type"`
	OrderID        string         `json:"order_id"`
	OrderNumber    string         `json:"order_number,omitempty"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	CurrentStatus  string         `json:"current_status,omitempty"`
	ActorID        string         `json:"actor_id,omitempty"`
	OccurredAt     string         `json:"occurred_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

var _ services.OrderEventPublisher = (*LogPublisher)(nil)
