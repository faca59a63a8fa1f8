package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrEventNotFound is returned by repositories when no event matches.
var ErrEventNotFound = errors.New("event not found")

// EventKind discriminates the closed set of Event variants.
type EventKind string

const (
	KindFood     EventKind = "food"
	KindInsulin  EventKind = "insulin"
	KindExercise EventKind = "exercise"
	KindNote     EventKind = "note"
)

// EventOrigin records how the event entered the system.
type EventOrigin string

const (
	OriginManual   EventOrigin = "manual"
	OriginImported EventOrigin = "imported"
	OriginSystem   EventOrigin = "system"
)

type AbsorptionHint string

const (
	AbsorptionRapid  AbsorptionHint = "rapid"
	AbsorptionNormal AbsorptionHint = "normal"
	AbsorptionSlow   AbsorptionHint = "slow"
	AbsorptionOther  AbsorptionHint = "other"
)

type InsulinType string

const (
	InsulinFast InsulinType = "fast"
	InsulinLong InsulinType = "long"
)

type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityVigorous Intensity = "vigorous"
)

// FoodDetails is the food-variant payload.
type FoodDetails struct {
	Carbohydrates Carbohydrate
	MealTag       MealTagID
	Absorption    AbsorptionHint
}

// InsulinDetails is the insulin-variant payload. Preparation, delivery and
// timing are optional free-text annotations.
type InsulinDetails struct {
	Type        InsulinType
	Dose        InsulinDose
	Preparation NoteText
	Delivery    NoteText
	Timing      NoteText
}

// ExerciseDetails is the exercise-variant payload.
type ExerciseDetails struct {
	ExerciseType ExerciseTypeID
	Duration     ExerciseDuration
	Intensity    Intensity
}

// NoteDetails is the note-variant payload; the body is required.
type NoteDetails struct {
	Body NoteText
}

// Event is an immutable record of a user action (a meal, an injection, a
// workout, a free-form note). Exactly one variant payload is set and it
// always agrees with the kind tag. There is no update operation; a mistake
// is corrected by logging a new event.
type Event struct {
	id         EventID
	userID     UserID
	occurredAt time.Time
	kind       EventKind
	origin     EventOrigin
	note       NoteText
	createdAt  time.Time

	food     *FoodDetails
	insulin  *InsulinDetails
	exercise *ExerciseDetails
	noteBody *NoteDetails

	pending []DomainEvent
}

func (e *Event) ID() EventID           { return e.id }
func (e *Event) UserID() UserID        { return e.userID }
func (e *Event) OccurredAt() time.Time { return e.occurredAt }
func (e *Event) Kind() EventKind       { return e.kind }
func (e *Event) Origin() EventOrigin   { return e.origin }
func (e *Event) Note() NoteText        { return e.note }
func (e *Event) CreatedAt() time.Time  { return e.createdAt }

func (e *Event) PendingEvents() []DomainEvent { return e.pending }
func (e *Event) ClearPendingEvents()          { e.pending = nil }

// EventMatch handles every variant of an Event. All four handlers are
// required; Match panics on a nil handler so a future variant cannot be
// silently ignored at any consumption site.
type EventMatch struct {
	Food     func(FoodDetails)
	Insulin  func(InsulinDetails)
	Exercise func(ExerciseDetails)
	Note     func(NoteDetails)
}

// Match dispatches on the variant tag. Every handler must be set.
func (e *Event) Match(m EventMatch) {
	if m.Food == nil || m.Insulin == nil || m.Exercise == nil || m.Note == nil {
		panic("domain: EventMatch must handle every variant")
	}
	switch e.kind {
	case KindFood:
		m.Food(*e.food)
	case KindInsulin:
		m.Insulin(*e.insulin)
	case KindExercise:
		m.Exercise(*e.exercise)
	case KindNote:
		m.Note(*e.noteBody)
	default:
		panic(fmt.Sprintf("domain: event %s has unknown kind %q", e.id, e.kind))
	}
}

// Food returns the food payload when the event is a food event.
func (e *Event) Food() (FoodDetails, bool) {
	if e.kind != KindFood {
		return FoodDetails{}, false
	}
	return *e.food, true
}

func (e *Event) Insulin() (InsulinDetails, bool) {
	if e.kind != KindInsulin {
		return InsulinDetails{}, false
	}
	return *e.insulin, true
}

func (e *Event) Exercise() (ExerciseDetails, bool) {
	if e.kind != KindExercise {
		return ExerciseDetails{}, false
	}
	return *e.exercise, true
}

func (e *Event) NoteBody() (NoteDetails, bool) {
	if e.kind != KindNote {
		return NoteDetails{}, false
	}
	return *e.noteBody, true
}

func newEvent(userID UserID, occurredAt time.Time, origin EventOrigin, note NoteText, clock Clock) (*Event, Error) {
	now := clock.Now()
	if occurredAt.After(now) {
		return nil, ValidationError("event time must not be in the future")
	}
	e := &Event{
		id:         GenerateEventID(),
		userID:     userID,
		occurredAt: occurredAt,
		origin:     origin,
		note:       note,
		createdAt:  now,
	}
	return e, ErrNone
}

func (e *Event) raiseLogged(correlationID, causationID string) {
	e.pending = append(e.pending, EventLogged{
		Occurrence: Occurrence{At: e.createdAt, Correlation: correlationID, Causation: causationID},
		EventID:    e.id,
		UserID:     e.userID,
		Kind:       e.kind,
		Source:     e.origin,
		LoggedAt:   e.occurredAt,
	})
}

// NewFoodEvent constructs the food variant. Payload value objects must
// already be validated by their own factories.
func NewFoodEvent(userID UserID, occurredAt time.Time, details FoodDetails, note NoteText, origin EventOrigin, clock Clock, correlationID, causationID string) Result[*Event] {
	e, err := newEvent(userID, occurredAt, origin, note, clock)
	if !err.IsNone() {
		return Failure[*Event](err)
	}
	e.kind = KindFood
	e.food = &details
	e.raiseLogged(correlationID, causationID)
	return Success(e)
}

func NewInsulinEvent(userID UserID, occurredAt time.Time, details InsulinDetails, note NoteText, origin EventOrigin, clock Clock, correlationID, causationID string) Result[*Event] {
	e, err := newEvent(userID, occurredAt, origin, note, clock)
	if !err.IsNone() {
		return Failure[*Event](err)
	}
	e.kind = KindInsulin
	e.insulin = &details
	e.raiseLogged(correlationID, causationID)
	return Success(e)
}

func NewExerciseEvent(userID UserID, occurredAt time.Time, details ExerciseDetails, note NoteText, origin EventOrigin, clock Clock, correlationID, causationID string) Result[*Event] {
	e, err := newEvent(userID, occurredAt, origin, note, clock)
	if !err.IsNone() {
		return Failure[*Event](err)
	}
	e.kind = KindExercise
	e.exercise = &details
	e.raiseLogged(correlationID, causationID)
	return Success(e)
}

// NewNoteEvent constructs the note variant. The body is required; the common
// optional note field stays unset for this variant.
func NewNoteEvent(userID UserID, occurredAt time.Time, body NoteText, origin EventOrigin, clock Clock, correlationID, causationID string) Result[*Event] {
	if !body.IsSet() {
		return Failure[*Event](ValidationError("note event requires a body"))
	}
	e, err := newEvent(userID, occurredAt, origin, NoNote(), clock)
	if !err.IsNone() {
		return Failure[*Event](err)
	}
	e.kind = KindNote
	e.noteBody = &NoteDetails{Body: body}
	e.raiseLogged(correlationID, causationID)
	return Success(e)
}

// EventRecord is the persistence snapshot of an Event. The adapter layer
// maps it to and from storage; the aggregate's invariants stay behind the
// factories.
type EventRecord struct {
	ID         EventID
	UserID     UserID
	OccurredAt time.Time
	Kind       EventKind
	Origin     EventOrigin
	Note       NoteText
	CreatedAt  time.Time
	Food       *FoodDetails
	Insulin    *InsulinDetails
	Exercise   *ExerciseDetails
	NoteBody   *NoteDetails
}

// Record snapshots the event for persistence.
func (e *Event) Record() EventRecord {
	return EventRecord{
		ID:         e.id,
		UserID:     e.userID,
		OccurredAt: e.occurredAt,
		Kind:       e.kind,
		Origin:     e.origin,
		Note:       e.note,
		CreatedAt:  e.createdAt,
		Food:       e.food,
		Insulin:    e.insulin,
		Exercise:   e.exercise,
		NoteBody:   e.noteBody,
	}
}

// RehydrateEvent rebuilds an Event from its stored snapshot. It trusts the
// store, raises no domain events, and fails only on a kind/payload mismatch.
func RehydrateEvent(rec EventRecord) (*Event, error) {
	e := &Event{
		id:         rec.ID,
		userID:     rec.UserID,
		occurredAt: rec.OccurredAt,
		kind:       rec.Kind,
		origin:     rec.Origin,
		note:       rec.Note,
		createdAt:  rec.CreatedAt,
		food:       rec.Food,
		insulin:    rec.Insulin,
		exercise:   rec.Exercise,
		noteBody:   rec.NoteBody,
	}
	var payloadOK bool
	switch rec.Kind {
	case KindFood:
		payloadOK = rec.Food != nil
	case KindInsulin:
		payloadOK = rec.Insulin != nil
	case KindExercise:
		payloadOK = rec.Exercise != nil
	case KindNote:
		payloadOK = rec.NoteBody != nil
	}
	if !payloadOK {
		return nil, fmt.Errorf("event %s: kind %q does not match stored payload", rec.ID, rec.Kind)
	}
	return e, nil
}
