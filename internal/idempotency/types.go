package idempotency

import (
	"context"
	"time"
)

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// Record is the shape persisted for one Idempotency-Key.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	SessionID      string    `dynamodbav:"session_id"`
	Status         string    `dynamodbav:"status"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"`
	ResponseStatus int       `dynamodbav:"response_status,omitempty"` // e.g., 201
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// Expired reports whether the record's TTL has passed.
func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && r.ExpiresAt < now.Unix()
}

// Store tracks checkout attempts by Idempotency-Key.
type Store interface {
	// CreateIfNotExists claims key for sessionID with status IN_PROGRESS.
	// It returns created=false when a live record already holds the key. An
	// expired record, or a FAILED record of the same session, is reclaimed.
	CreateIfNotExists(ctx context.Context, key, sessionID string) (bool, error)
	// Get returns (nil, nil) if the key is unknown.
	Get(ctx context.Context, key string) (*Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}
