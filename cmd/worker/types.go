package main

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nexssio/storefront/internal/orders"
)

// OrderReader loads the persisted order an event refers to.
type OrderReader interface {
	GetOrder(ctx context.Context, id int64) (orders.Order, error)
}

// MetricsRecorder publishes per-order metrics.
type MetricsRecorder interface {
	RecordOrderPlaced(ctx context.Context, total decimal.Decimal, itemCount int) error
}

// eventTypeAttribute is the SQS message attribute naming the event.
const eventTypeAttribute = "event_type"

// workerOwner identifies the worker as the holder of its dedup records.
const workerOwner = "orders-worker"
