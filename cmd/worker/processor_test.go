package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nexssio/storefront/internal/aws"
	"github.com/nexssio/storefront/internal/idempotency"
	"github.com/nexssio/storefront/internal/orders"
	"github.com/nexssio/storefront/internal/store/memory"
)

type mockCloudWatch struct {
	failures int
	inputs   []*cloudwatch.PutMetricDataInput
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("throttled")
	}
	m.inputs = append(m.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

type fixture struct {
	store *memory.Store
	cw    *mockCloudWatch
	dedup *idempotency.MemoryStore
	p     *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		cw:    &mockCloudWatch{},
		dedup: idempotency.NewMemoryStore(time.Hour),
	}
	f.p = NewProcessor(f.store, aws.NewMetrics(f.cw, "Test"), f.dedup, zerolog.Nop())
	return f
}

func (f *fixture) placeOrder(t *testing.T) orders.Order {
	t.Helper()
	o, err := f.store.PlaceOrder(context.Background(), orders.Order{
		SessionID:     "abc",
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		Items: []orders.Line{
			{ProductID: 1, Name: "Widget", UnitPrice: decimal.RequireFromString("50.00"), Quantity: 3, LineTotal: decimal.RequireFromString("150.00")},
			{ProductID: 5, Name: "Gadget", UnitPrice: decimal.RequireFromString("50.00"), Quantity: 1, LineTotal: decimal.RequireFromString("50.00")},
		},
		Subtotal: decimal.RequireFromString("200.00"),
		Tax:      decimal.RequireFromString("20.00"),
		Total:    decimal.RequireFromString("220.00"),
		Status:   orders.StatusPending,
	}, nil)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return o
}

func message(t *testing.T, id string, orderID int64) events.SQSMessage {
	t.Helper()
	body, err := json.Marshal(orders.OrderPlaced{OrderID: orderID, SessionID: "abc", Total: "220.00", ItemCount: 4})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	eventType := orders.EventOrderPlaced
	return events.SQSMessage{
		MessageId: id,
		Body:      string(body),
		MessageAttributes: map[string]events.SQSMessageAttribute{
			eventTypeAttribute: {StringValue: &eventType, DataType: "String"},
		},
	}
}

func TestHandleRecordsMetricsOnce(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)
	ctx := context.Background()

	batch := events.SQSEvent{Records: []events.SQSMessage{message(t, "m1", o.ID)}}
	resp, err := f.p.Handle(ctx, batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("expected no failures, got %v", resp.BatchItemFailures)
	}
	if len(f.cw.inputs) != 1 {
		t.Fatalf("expected 1 metrics call, got %d", len(f.cw.inputs))
	}
	data := f.cw.inputs[0].MetricData
	if len(data) != 3 {
		t.Fatalf("expected 3 datums, got %d", len(data))
	}
	if *data[1].Value != 220 || *data[2].Value != 4 {
		t.Fatalf("unexpected values: value=%v items=%v", *data[1].Value, *data[2].Value)
	}

	// redelivery of the same event
	resp, err = f.p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message(t, "m2", o.ID)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("duplicate should be acknowledged, got %v", resp.BatchItemFailures)
	}
	if len(f.cw.inputs) != 1 {
		t.Fatalf("duplicate must not record metrics again, got %d calls", len(f.cw.inputs))
	}

	rec, err := f.dedup.Get(ctx, "order.placed:1")
	if err != nil || rec == nil {
		t.Fatalf("expected dedup record, got %v %v", rec, err)
	}
	if rec.Status != idempotency.StatusDone {
		t.Fatalf("expected DONE, got %s", rec.Status)
	}
}

func TestHandleReportsOnlyFailedMessages(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)

	bad := events.SQSMessage{MessageId: "bad", Body: "{not json"}
	unknown := message(t, "unknown", 999)
	resp, err := f.p.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{bad, message(t, "good", o.ID), unknown},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 2 {
		t.Fatalf("expected 2 failures, got %v", resp.BatchItemFailures)
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "bad" || resp.BatchItemFailures[1].ItemIdentifier != "unknown" {
		t.Fatalf("unexpected failures: %v", resp.BatchItemFailures)
	}
	if len(f.cw.inputs) != 1 {
		t.Fatalf("expected 1 metrics call, got %d", len(f.cw.inputs))
	}
}

func TestHandleSkipsOtherEvents(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)

	msg := message(t, "m1", o.ID)
	other := "order.cancelled"
	msg.MessageAttributes[eventTypeAttribute] = events.SQSMessageAttribute{StringValue: &other, DataType: "String"}

	resp, err := f.p.Handle(context.Background(), events.SQSEvent{Records: []events.SQSMessage{msg}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("expected no failures, got %v", resp.BatchItemFailures)
	}
	if len(f.cw.inputs) != 0 {
		t.Fatalf("expected no metrics, got %d", len(f.cw.inputs))
	}
}

func TestHandleRetriesAfterMetricsFailure(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)
	f.cw.failures = 1
	ctx := context.Background()

	resp, err := f.p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message(t, "m1", o.ID)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 1 {
		t.Fatalf("expected the message to fail, got %v", resp.BatchItemFailures)
	}
	rec, _ := f.dedup.Get(ctx, "order.placed:1")
	if rec == nil || rec.Status != idempotency.StatusFailed {
		t.Fatalf("expected FAILED record, got %+v", rec)
	}

	resp, err = f.p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message(t, "m1", o.ID)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 0 {
		t.Fatalf("retry should succeed, got %v", resp.BatchItemFailures)
	}
	if len(f.cw.inputs) != 1 {
		t.Fatalf("expected 1 metrics call, got %d", len(f.cw.inputs))
	}
}

func TestHandleInProgressIsRetried(t *testing.T) {
	f := newFixture(t)
	o := f.placeOrder(t)
	ctx := context.Background()

	if _, err := f.dedup.CreateIfNotExists(ctx, "order.placed:1", workerOwner); err != nil {
		t.Fatalf("claim: %v", err)
	}

	resp, err := f.p.Handle(ctx, events.SQSEvent{Records: []events.SQSMessage{message(t, "m1", o.ID)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.BatchItemFailures) != 1 {
		t.Fatalf("in-progress event should be redelivered, got %v", resp.BatchItemFailures)
	}
	if len(f.cw.inputs) != 0 {
		t.Fatalf("expected no metrics, got %d", len(f.cw.inputs))
	}
}
