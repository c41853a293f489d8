package events

import (
	platformevents "funnel_backend/platform/events"

	"github.com/google/uuid"
)

// Event, Bus, and friends re-exported from the platform layer.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
)

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// LeadCreated is published when a new lead enters the funnel
// (calculator submission, manual entry, or bulk import).
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID
	Email  string
	Source string
}

func (LeadCreated) EventName() string { return "lead.created" }

// LeadReplied is published when an inbound reply is detected for a lead.
type LeadReplied struct {
	BaseEvent
	LeadID  uuid.UUID
	Email   string
	Name    string
	Subject string
}

func (LeadReplied) EventName() string { return "lead.replied" }

// LeadUnsubscribed is published when a lead opts out of further email.
type LeadUnsubscribed struct {
	BaseEvent
	LeadID uuid.UUID
	Email  string
}

func (LeadUnsubscribed) EventName() string { return "lead.unsubscribed" }
