package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Identifier wrappers. Distinct types keep a user id from ever being passed
// where an event id belongs; factories reject the empty value.

type UserID string

func NewUserID(value string) Result[UserID] {
	if strings.TrimSpace(value) == "" {
		return Failure[UserID](ValidationError("user id must not be empty"))
	}
	return Success(UserID(value))
}

func (id UserID) String() string { return string(id) }

type EventID string

func NewEventID(value string) Result[EventID] {
	if strings.TrimSpace(value) == "" {
		return Failure[EventID](ValidationError("event id must not be empty"))
	}
	return Success(EventID(value))
}

// GenerateEventID returns a fresh random event id.
func GenerateEventID() EventID { return EventID(uuid.NewString()) }

func (id EventID) String() string { return string(id) }

type LinkID string

func NewLinkID(value string) Result[LinkID] {
	if strings.TrimSpace(value) == "" {
		return Failure[LinkID](ValidationError("link id must not be empty"))
	}
	return Success(LinkID(value))
}

// GenerateLinkID returns a fresh random link id.
func GenerateLinkID() LinkID { return LinkID(uuid.NewString()) }

func (id LinkID) String() string { return string(id) }

// MealTagID identifies a user-defined meal tag (breakfast, lunch, ...).
type MealTagID string

func NewMealTagID(value string) Result[MealTagID] {
	if strings.TrimSpace(value) == "" {
		return Failure[MealTagID](ValidationError("meal tag id must not be empty"))
	}
	return Success(MealTagID(value))
}

func (id MealTagID) String() string { return string(id) }

// ExerciseTypeID identifies a user-defined exercise type (running, ...).
type ExerciseTypeID string

func NewExerciseTypeID(value string) Result[ExerciseTypeID] {
	if strings.TrimSpace(value) == "" {
		return Failure[ExerciseTypeID](ValidationError("exercise type id must not be empty"))
	}
	return Success(ExerciseTypeID(value))
}

func (id ExerciseTypeID) String() string { return string(id) }
