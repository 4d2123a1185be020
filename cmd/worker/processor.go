package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/nexssio/storefront/internal/idempotency"
	"github.com/nexssio/storefront/internal/orders"
)

// errInProgress means another invocation is handling the same event.
var errInProgress = errors.New("event already in progress")

// Processor consumes order.placed events and records order metrics exactly
// once per order, even when SQS delivers a message more than once.
type Processor struct {
	orders  OrderReader
	metrics MetricsRecorder
	dedup   idempotency.Store
	log     zerolog.Logger
}

func NewProcessor(reader OrderReader, metrics MetricsRecorder, dedup idempotency.Store, log zerolog.Logger) *Processor {
	return &Processor{
		orders:  reader,
		metrics: metrics,
		dedup:   dedup,
		log:     log.With().Str("component", "orders-worker").Logger(),
	}
}

// Handle processes an SQS batch. Failed messages are reported individually so
// that only they are redelivered (and eventually dead-lettered).
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	p.log.Debug().Int("records", len(ev.Records)).Msg("received batch")

	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error().Err(err).Str("message_id", rec.MessageId).Msg("message failed")
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	if attr, ok := rec.MessageAttributes[eventTypeAttribute]; ok && attr.StringValue != nil && *attr.StringValue != orders.EventOrderPlaced {
		p.log.Warn().Str("message_id", rec.MessageId).Str("event_type", *attr.StringValue).Msg("skipping unknown event")
		return nil
	}

	var msg orders.OrderPlaced
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.OrderID <= 0 {
		return fmt.Errorf("invalid message body: missing order_id")
	}
	log := p.log.With().Int64("order_id", msg.OrderID).Str("correlation_id", msg.CorrelationID).Logger()

	key := fmt.Sprintf("%s:%d", orders.EventOrderPlaced, msg.OrderID)
	created, err := p.dedup.CreateIfNotExists(ctx, key, workerOwner)
	if err != nil {
		return fmt.Errorf("claim event: %w", err)
	}
	if !created {
		existing, err := p.dedup.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("get event record: %w", err)
		}
		if existing != nil && existing.Status == idempotency.StatusDone {
			log.Info().Msg("duplicate delivery, already recorded")
			return nil
		}
		return fmt.Errorf("order %d: %w", msg.OrderID, errInProgress)
	}

	if err := p.record(ctx, msg.OrderID); err != nil {
		if merr := p.dedup.MarkFailed(ctx, key, err.Error()); merr != nil {
			log.Warn().Err(merr).Msg("mark event failed")
		}
		return err
	}

	if err := p.dedup.MarkDone(ctx, key, "", 0); err != nil {
		// metrics are already out; a redelivery would double count
		log.Warn().Err(err).Msg("mark event done")
	}
	log.Info().Msg("order metrics recorded")
	return nil
}

func (p *Processor) record(ctx context.Context, orderID int64) error {
	// the stored order is authoritative for the figures
	order, err := p.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if err := p.metrics.RecordOrderPlaced(ctx, order.Total, order.ItemCount()); err != nil {
		return fmt.Errorf("record metrics: %w", err)
	}
	return nil
}
