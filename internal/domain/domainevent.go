package domain

import "time"

// DomainEvent is a record of something that happened inside an aggregate,
// queued in memory and released by the unit of work after a successful
// commit. Not to be confused with the Event aggregate (a logged user
// action).
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
	CorrelationID() string
	CausationID() string
}

// Occurrence carries the fields every domain event shares; concrete events
// embed it.
type Occurrence struct {
	At          time.Time
	Correlation string
	Causation   string
}

func (o Occurrence) OccurredAt() time.Time { return o.At }
func (o Occurrence) CorrelationID() string { return o.Correlation }
func (o Occurrence) CausationID() string   { return o.Causation }

// EventLogged is raised once when a user-action Event aggregate is created.
// It carries a copy of the payload for read-model projection.
type EventLogged struct {
	Occurrence
	EventID  EventID
	UserID   UserID
	Kind     EventKind
	Source   EventOrigin
	LoggedAt time.Time
}

func (EventLogged) EventName() string { return "event.logged" }

// CgmLinkCreated is raised once when a CGM account link is established.
type CgmLinkCreated struct {
	Occurrence
	LinkID         LinkID
	UserID         UserID
	TokenExpiresAt time.Time
}

func (CgmLinkCreated) EventName() string { return "cgm_link.created" }

// CgmLinkRefreshed is raised when the link's tokens are replaced.
type CgmLinkRefreshed struct {
	Occurrence
	LinkID         LinkID
	UserID         UserID
	TokenExpiresAt time.Time
}

func (CgmLinkRefreshed) EventName() string { return "cgm_link.refreshed" }

// CgmLinkUnlinked is raised when the user unlinks their CGM account.
// PurgeData asks subscribers to delete the stored readings; the aggregate
// never performs the purge itself.
type CgmLinkUnlinked struct {
	Occurrence
	LinkID    LinkID
	UserID    UserID
	PurgeData bool
}

func (CgmLinkUnlinked) EventName() string { return "cgm_link.unlinked" }

// EventSource is implemented by aggregate roots that queue domain events.
// The unit of work drains the queue exactly once per successful commit.
type EventSource interface {
	PendingEvents() []DomainEvent
	ClearPendingEvents()
}
