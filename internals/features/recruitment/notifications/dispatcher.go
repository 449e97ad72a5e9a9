// Package notifications hands recruitment status changes to the mail fan-out.
// Dispatch is fire-and-forget: a failed hand-off is logged and never reaches
// the request that caused it.
package notifications

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	ModuleAdvertised       EventType = "module.advertised"
	ModuleFull             EventType = "module.full"
	ModuleGettingDocuments EventType = "module.getting-documents"
	ApplicationCreated     EventType = "application.created"
	ApplicationAccepted    EventType = "application.accepted"
	ApplicationRejected    EventType = "application.rejected"
	ApplicationAppointed   EventType = "application.appointed"
	DocumentsSubmitted     EventType = "documents.submitted"
)

type Event struct {
	Type          EventType         `json:"type"`
	ModuleID      uuid.UUID         `json:"moduleId"`
	ApplicationID *uuid.UUID        `json:"applicationId,omitempty"`
	RecipientID   *uuid.UUID        `json:"recipientId,omitempty"`
	Audience      string            `json:"audience,omitempty"` // mailing list, e.g. "postgraduate-applicants"
	Data          map[string]string `json:"data,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// AudienceFor is the mailing list of applicants with the given role.
func AudienceFor(role string) string { return role + "-applicants" }

type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// LogDispatcher only writes the event to the process log.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, ev Event) {
	log.Printf("[NOTIFY] %s module=%s audience=%q recipient=%v", ev.Type, ev.ModuleID, ev.Audience, ev.RecipientID)
}

// MemoryDispatcher keeps events in memory. Used by tests and local runs.
type MemoryDispatcher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryDispatcher() *MemoryDispatcher { return &MemoryDispatcher{} }

func (m *MemoryDispatcher) Dispatch(_ context.Context, ev Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
}

func (m *MemoryDispatcher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Types lists dispatched event types in order.
func (m *MemoryDispatcher) Types() []EventType {
	evs := m.Events()
	out := make([]EventType, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Type)
	}
	return out
}

func stamp(ev Event) Event {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return ev
}

// DispatchAll sends events in order. Callers invoke it after commit.
func DispatchAll(ctx context.Context, d Dispatcher, events ...Event) {
	if d == nil {
		return
	}
	for _, ev := range events {
		d.Dispatch(ctx, stamp(ev))
	}
}
