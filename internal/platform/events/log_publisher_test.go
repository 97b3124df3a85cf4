package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/roastline/api/internal/domain"
	"github.com/roastline/api/internal/services"
)

func TestLogPublisherEmitsEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	publisher, err := NewLogPublisher(zap.New(core))
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	err = publisher.PublishOrderEvent(context.Background(), services.OrderEvent{
		Type:          "order.created",
		OrderID:       "ord_1",
		OrderNumber:   "RL-20260314-ABCDEF",
		CurrentStatus: domain.OrderStatusPending,
		OccurredAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	entries := logs.FilterMessage("order event").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != "order.created" {
		t.Fatalf("event_type = %v", fields["event_type"])
	}
	if fields["order_id"] != "ord_1" {
		t.Fatalf("order_id = %v", fields["order_id"])
	}
}

func TestLogPublisherMarshalFailure(t *testing.T) {
	publisher, err := NewLogPublisher(zap.NewNop())
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	publisher.marshal = func(any) ([]byte, error) {
		return nil, errors.New("boom")
	}

	if err := publisher.PublishOrderEvent(context.Background(), services.OrderEvent{Type: "order.created"}); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestNewLogPublisherRequiresLogger(t *testing.T) {
	if _, err := NewLogPublisher(nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}
