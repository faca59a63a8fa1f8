// Package events fans committed domain events out to subscribers.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/metrics"
)

// Subscriber reacts to one committed domain event. A returned error is the
// subscriber's problem: it is logged and counted, never propagated — the
// transaction that produced the event has already committed.
type Subscriber interface {
	Handle(ctx context.Context, event domain.DomainEvent) error
}

// Dispatcher delivers events in order to every subscriber. Delivery is
// best-effort and synchronous; it runs strictly after the unit of work's
// transaction has committed.
type Dispatcher struct {
	subscribers []Subscriber
	logger      *slog.Logger
}

func NewDispatcher(logger *slog.Logger, subscribers ...Subscriber) *Dispatcher {
	return &Dispatcher{
		subscribers: subscribers,
		logger:      logger.With("component", "event_dispatcher"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, batch []domain.DomainEvent) {
	for _, event := range batch {
		for _, sub := range d.subscribers {
			if err := d.deliver(ctx, sub, event); err != nil {
				metrics.DomainEventFailuresTotal.WithLabelValues(event.EventName()).Inc()
				d.logger.ErrorContext(ctx, "subscriber failed",
					"event", event.EventName(),
					"correlation_id", event.CorrelationID(),
					"error", err,
				)
			}
		}
		metrics.DomainEventsDispatchedTotal.WithLabelValues(event.EventName()).Inc()
	}
}

// deliver isolates subscriber panics so one bad handler cannot take down
// the request that merely notified it.
func (d *Dispatcher) deliver(ctx context.Context, sub Subscriber, event domain.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return sub.Handle(ctx, event)
}

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprintf("subscriber panicked: %v", e.value) }
