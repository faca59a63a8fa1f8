package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/events"
)

type fakeSubscriber struct {
	handle func(ctx context.Context, event domain.DomainEvent) error
}

func (s *fakeSubscriber) Handle(ctx context.Context, event domain.DomainEvent) error {
	return s.handle(ctx, event)
}

func testEvent(name string) domain.DomainEvent {
	return domain.EventLogged{
		Occurrence: domain.Occurrence{At: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC), Correlation: name},
		Kind:       domain.KindNote,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatch_DeliversEveryEventToEverySubscriber(t *testing.T) {
	var first, second []string
	d := events.NewDispatcher(quietLogger(),
		&fakeSubscriber{handle: func(_ context.Context, e domain.DomainEvent) error {
			first = append(first, e.CorrelationID())
			return nil
		}},
		&fakeSubscriber{handle: func(_ context.Context, e domain.DomainEvent) error {
			second = append(second, e.CorrelationID())
			return nil
		}},
	)

	d.Dispatch(context.Background(), []domain.DomainEvent{testEvent("a"), testEvent("b")})

	for _, got := range [][]string{first, second} {
		if len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("delivery order = %v, want [a b]", got)
		}
	}
}

func TestDispatch_SubscriberErrorDoesNotStopOthers(t *testing.T) {
	delivered := 0
	d := events.NewDispatcher(quietLogger(),
		&fakeSubscriber{handle: func(_ context.Context, _ domain.DomainEvent) error {
			return errors.New("boom")
		}},
		&fakeSubscriber{handle: func(_ context.Context, _ domain.DomainEvent) error {
			delivered++
			return nil
		}},
	)

	d.Dispatch(context.Background(), []domain.DomainEvent{testEvent("a")})

	if delivered != 1 {
		t.Errorf("second subscriber deliveries = %d, want 1", delivered)
	}
}

func TestDispatch_SubscriberPanicIsContained(t *testing.T) {
	delivered := 0
	d := events.NewDispatcher(quietLogger(),
		&fakeSubscriber{handle: func(_ context.Context, _ domain.DomainEvent) error {
			panic("subscriber bug")
		}},
		&fakeSubscriber{handle: func(_ context.Context, _ domain.DomainEvent) error {
			delivered++
			return nil
		}},
	)

	d.Dispatch(context.Background(), []domain.DomainEvent{testEvent("a")})

	if delivered != 1 {
		t.Errorf("second subscriber deliveries = %d, want 1", delivered)
	}
}
