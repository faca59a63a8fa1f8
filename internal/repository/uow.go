package repository

import (
	"context"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

// UnitOfWork batches aggregate mutations into one transaction and releases
// the aggregates' queued domain events after — and only after — the commit
// succeeds. Registration is in-memory; nothing touches storage until Commit.
//
// Commit drains each tracked aggregate's event queue before persisting, so a
// second Commit with no new registrations persists and dispatches nothing.
// A persistence failure after the drain loses those notifications: dispatch
// is at-most-once by design.
type UnitOfWork interface {
	AddEvent(event *domain.Event)
	RemoveEvent(event *domain.Event)
	AddLink(link *domain.CgmLink)
	UpdateLink(link *domain.CgmLink)
	RemoveLink(link *domain.CgmLink)
	Commit(ctx context.Context) error
}

// UnitOfWorkFactory creates one unit of work per application operation.
type UnitOfWorkFactory interface {
	New() UnitOfWork
}
