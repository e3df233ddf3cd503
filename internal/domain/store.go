package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// OrderLogStore persists the append-only order submission journal.
type OrderLogStore interface {
	Create(ctx context.Context, rec OrderRecord) error
	UpdateStatus(ctx context.Context, id string, status OrderStatus, errMsg string) error
	SetExchangeID(ctx context.Context, id, exchangeID string) error
	GetByID(ctx context.Context, id string) (OrderRecord, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]OrderRecord, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

// RateLimiter bounds order submission throughput across processes.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Wait(ctx context.Context, key string) error
}

// Event is a message published on the signal bus when order state changes.
type Event struct {
	Type      string         `json:"type"`
	OrderID   string         `json:"order_id,omitempty"`
	TokenID   string         `json:"token_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// SignalBus fans order lifecycle events out to interested subscribers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, ev Event) error
	Subscribe(ctx context.Context, patterns ...string) (<-chan Event, func(), error)
}
