package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/metrics"
	"github.com/bigMackD/Glyloop-sub002/internal/repository"
)

// EventUsecase logs and reads the user's diary events. Business-rule
// failures come back as domain.Result / domain.Error; only infrastructure
// faults travel as Go errors wrapped in the failure's message.
type EventUsecase struct {
	events repository.EventRepository
	uow    repository.UnitOfWorkFactory
	clock  domain.Clock
}

func NewEventUsecase(events repository.EventRepository, uow repository.UnitOfWorkFactory, clock domain.Clock) *EventUsecase {
	return &EventUsecase{events: events, uow: uow, clock: clock}
}

// LogFoodInput carries raw boundary values; value objects are built here so
// every validation failure surfaces as a typed validation error.
type LogFoodInput struct {
	UserID        string
	OccurredAt    time.Time
	Grams         int
	MealTagID     string
	Absorption    domain.AbsorptionHint
	Note          string
	CorrelationID string
	CausationID   string
}

func (u *EventUsecase) LogFood(ctx context.Context, input LogFoodInput) domain.Result[*domain.Event] {
	userID := domain.NewUserID(input.UserID)
	if userID.IsFailure() {
		return domain.Failure[*domain.Event](userID.Err())
	}
	carbs := domain.NewCarbohydrate(input.Grams)
	if carbs.IsFailure() {
		return domain.Failure[*domain.Event](carbs.Err())
	}
	mealTag := domain.NewMealTagID(input.MealTagID)
	if mealTag.IsFailure() {
		return domain.Failure[*domain.Event](mealTag.Err())
	}
	note := domain.NoteTextFrom(input.Note)
	if note.IsFailure() {
		return domain.Failure[*domain.Event](note.Err())
	}

	event := domain.NewFoodEvent(userID.Value(), input.OccurredAt, domain.FoodDetails{
		Carbohydrates: carbs.Value(),
		MealTag:       mealTag.Value(),
		Absorption:    input.Absorption,
	}, note.Value(), domain.OriginManual, u.clock, input.CorrelationID, input.CausationID)
	if event.IsFailure() {
		return event
	}

	return u.persist(ctx, event.Value())
}

type LogInsulinInput struct {
	UserID        string
	OccurredAt    time.Time
	Type          domain.InsulinType
	Units         float64
	Preparation   string
	Delivery      string
	Timing        string
	Note          string
	CorrelationID string
	CausationID   string
}

func (u *EventUsecase) LogInsulin(ctx context.Context, input LogInsulinInput) domain.Result[*domain.Event] {
	userID := domain.NewUserID(input.UserID)
	if userID.IsFailure() {
		return domain.Failure[*domain.Event](userID.Err())
	}
	dose := domain.NewInsulinDose(input.Units)
	if dose.IsFailure() {
		return domain.Failure[*domain.Event](dose.Err())
	}

	details := domain.InsulinDetails{Type: input.Type, Dose: dose.Value()}
	for _, field := range []struct {
		raw  string
		dest *domain.NoteText
	}{
		{input.Preparation, &details.Preparation},
		{input.Delivery, &details.Delivery},
		{input.Timing, &details.Timing},
	} {
		text := domain.NoteTextFrom(field.raw)
		if text.IsFailure() {
			return domain.Failure[*domain.Event](text.Err())
		}
		*field.dest = text.Value()
	}

	note := domain.NoteTextFrom(input.Note)
	if note.IsFailure() {
		return domain.Failure[*domain.Event](note.Err())
	}

	event := domain.NewInsulinEvent(userID.Value(), input.OccurredAt, details, note.Value(), domain.OriginManual, u.clock, input.CorrelationID, input.CausationID)
	if event.IsFailure() {
		return event
	}
	return u.persist(ctx, event.Value())
}

type LogExerciseInput struct {
	UserID         string
	OccurredAt     time.Time
	ExerciseTypeID string
	Minutes        int
	Intensity      domain.Intensity
	Note           string
	CorrelationID  string
	CausationID    string
}

func (u *EventUsecase) LogExercise(ctx context.Context, input LogExerciseInput) domain.Result[*domain.Event] {
	userID := domain.NewUserID(input.UserID)
	if userID.IsFailure() {
		return domain.Failure[*domain.Event](userID.Err())
	}
	exType := domain.NewExerciseTypeID(input.ExerciseTypeID)
	if exType.IsFailure() {
		return domain.Failure[*domain.Event](exType.Err())
	}
	duration := domain.NewExerciseDuration(input.Minutes)
	if duration.IsFailure() {
		return domain.Failure[*domain.Event](duration.Err())
	}
	note := domain.NoteTextFrom(input.Note)
	if note.IsFailure() {
		return domain.Failure[*domain.Event](note.Err())
	}

	event := domain.NewExerciseEvent(userID.Value(), input.OccurredAt, domain.ExerciseDetails{
		ExerciseType: exType.Value(),
		Duration:     duration.Value(),
		Intensity:    input.Intensity,
	}, note.Value(), domain.OriginManual, u.clock, input.CorrelationID, input.CausationID)
	if event.IsFailure() {
		return event
	}
	return u.persist(ctx, event.Value())
}

type LogNoteInput struct {
	UserID        string
	OccurredAt    time.Time
	Body          string
	CorrelationID string
	CausationID   string
}

func (u *EventUsecase) LogNote(ctx context.Context, input LogNoteInput) domain.Result[*domain.Event] {
	userID := domain.NewUserID(input.UserID)
	if userID.IsFailure() {
		return domain.Failure[*domain.Event](userID.Err())
	}
	body := domain.NewNoteText(input.Body)
	if body.IsFailure() {
		return domain.Failure[*domain.Event](body.Err())
	}

	event := domain.NewNoteEvent(userID.Value(), input.OccurredAt, body.Value(), domain.OriginManual, u.clock, input.CorrelationID, input.CausationID)
	if event.IsFailure() {
		return event
	}
	return u.persist(ctx, event.Value())
}

func (u *EventUsecase) persist(ctx context.Context, event *domain.Event) domain.Result[*domain.Event] {
	uow := u.uow.New()
	uow.AddEvent(event)
	if err := uow.Commit(ctx); err != nil {
		return domain.Failure[*domain.Event](domain.ExternalError(fmt.Sprintf("persist event: %v", err)))
	}
	metrics.EventsLoggedTotal.WithLabelValues(string(event.Kind())).Inc()
	return domain.Success(event)
}

// GetByID returns the event only to its owner.
func (u *EventUsecase) GetByID(ctx context.Context, eventID, userID string) domain.Result[*domain.Event] {
	id := domain.NewEventID(eventID)
	if id.IsFailure() {
		return domain.Failure[*domain.Event](id.Err())
	}
	owner := domain.NewUserID(userID)
	if owner.IsFailure() {
		return domain.Failure[*domain.Event](owner.Err())
	}

	event, err := u.events.GetByID(ctx, id.Value())
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return domain.Failure[*domain.Event](domain.NotFoundError("event not found"))
		}
		return domain.Failure[*domain.Event](domain.ExternalError(fmt.Sprintf("get event: %v", err)))
	}
	if event.UserID() != owner.Value() {
		return domain.Failure[*domain.Event](domain.UnauthorizedError("event belongs to another user"))
	}
	return domain.Success(event)
}

type ListEventsInput struct {
	UserID string
	Kind   domain.EventKind
	From   *time.Time
	To     *time.Time
	Limit  int
}

func (u *EventUsecase) ListByUser(ctx context.Context, input ListEventsInput) domain.Result[[]*domain.Event] {
	owner := domain.NewUserID(input.UserID)
	if owner.IsFailure() {
		return domain.Failure[[]*domain.Event](owner.Err())
	}

	events, err := u.events.ListByUser(ctx, repository.ListEventsInput{
		UserID: owner.Value(),
		Kind:   input.Kind,
		From:   input.From,
		To:     input.To,
		Limit:  input.Limit,
	})
	if err != nil {
		return domain.Failure[[]*domain.Event](domain.ExternalError(fmt.Sprintf("list events: %v", err)))
	}
	return domain.Success(events)
}
