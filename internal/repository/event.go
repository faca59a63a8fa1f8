package repository

import (
	"context"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

// ListEventsInput filters a user's event timeline. Zero fields mean "all".
type ListEventsInput struct {
	UserID domain.UserID
	Kind   domain.EventKind // empty = all kinds
	From   *time.Time       // nil = unbounded
	To     *time.Time
	Limit  int
}

// Use cases depend on interfaces, not concrete implementations, so storage
// can be swapped and tests can pass fakes. Writes go through the unit of
// work; repositories only read.
type EventRepository interface {
	GetByID(ctx context.Context, id domain.EventID) (*domain.Event, error)
	ListByUser(ctx context.Context, input ListEventsInput) ([]*domain.Event, error)
}
