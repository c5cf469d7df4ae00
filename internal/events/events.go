// Package events publishes aggregate lifecycle events for downstream
// consumers (reporting, notifications). Publishing is best-effort: callers
// log failures but never fail the originating write.
package events

import (
	"context"
	"time"
)

// Type identifies the lifecycle event.
type Type string

const (
	ClaimCreated       Type = "claim.created"
	ClaimStatusChanged Type = "claim.status_changed"
	ContractCreated    Type = "contract.created"
	MemberAdded        Type = "contract.member_added"
)

// Event is one published lifecycle record, keyed by the aggregate id so a
// topic partition preserves per-aggregate ordering.
type Event struct {
	Type        Type      `json:"type"`
	AggregateID string    `json:"aggregateId"`
	OccurredAt  time.Time `json:"occurredAt"`
	Payload     any       `json:"payload,omitempty"`
}

// Publisher sends lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, e Event) error { return nil }

func (Noop) Close() {}
