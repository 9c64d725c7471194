package approval

import (
	"context"
	"time"
)

type EventType string

const (
	EventSubmitted     EventType = "request.submitted"
	EventRoleApproved  EventType = "request.role_approved"
	EventFullyApproved EventType = "request.fully_approved"
	EventRejected      EventType = "request.rejected"
)

// Event is emitted once per committed transition
type Event struct {
	Type        EventType
	Kind        RequestKind
	RequestID   string
	RequesterID string
	Status      string
	// Entry is the ledger row that caused the transition, nil on submission.
	Entry      *Entry
	Ledger     []Entry
	OccurredAt time.Time
}

// EventPublisher hands events to whatever reacts to transitions. Publish
// must not block the caller on slow consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}
