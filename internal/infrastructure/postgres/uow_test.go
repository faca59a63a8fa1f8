package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/infrastructure/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var frozen = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

// fakeTx records the statement sequence so tests can assert ordering
// between persistence and dispatch.
type fakeTx struct {
	execSQL    []string
	execErr    error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if t.execErr != nil {
		return pgconn.CommandTag{}, t.execErr
	}
	t.execSQL = append(t.execSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Conn() *pgx.Conn                       { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects        { return pgx.LargeObjects{} }

func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

type fakeBeginner struct {
	tx     *fakeTx
	begins int
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	b.begins++
	return b.tx, nil
}

type fakeDispatcher struct {
	batches [][]domain.DomainEvent
}

func (d *fakeDispatcher) Dispatch(_ context.Context, batch []domain.DomainEvent) {
	d.batches = append(d.batches, batch)
}

func mustUserID(t *testing.T) domain.UserID {
	t.Helper()
	res := domain.NewUserID("user-1")
	if res.IsFailure() {
		t.Fatalf("user id: %v", res.Err())
	}
	return res.Value()
}

func newNoteEvent(t *testing.T) *domain.Event {
	t.Helper()
	body := domain.NewNoteText("slept badly, expect a rough morning")
	if body.IsFailure() {
		t.Fatalf("note text: %v", body.Err())
	}
	res := domain.NewNoteEvent(mustUserID(t), frozen.Add(-time.Hour), body.Value(), domain.OriginManual, fixedClock{now: frozen}, "corr-1", "")
	if res.IsFailure() {
		t.Fatalf("note event: %v", res.Err())
	}
	return res.Value()
}

func newLink(t *testing.T) *domain.CgmLink {
	t.Helper()
	res := domain.NewCgmLink(mustUserID(t), []byte("enc-access"), []byte("enc-refresh"), frozen.Add(time.Hour), fixedClock{now: frozen}, "corr-1", "")
	if res.IsFailure() {
		t.Fatalf("cgm link: %v", res.Err())
	}
	return res.Value()
}

func TestCommit_PersistsThenDispatchesInMutationOrder(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}
	dispatcher := &fakeDispatcher{}
	uow := postgres.NewUnitOfWorkFactory(db, dispatcher).New()

	event := newNoteEvent(t)
	link := newLink(t)
	uow.AddEvent(event)
	uow.AddLink(link)

	if err := uow.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !tx.committed {
		t.Error("transaction was not committed")
	}
	if len(tx.execSQL) != 2 {
		t.Fatalf("executed %d statements, want 2", len(tx.execSQL))
	}
	if len(dispatcher.batches) != 1 {
		t.Fatalf("dispatched %d batches, want 1", len(dispatcher.batches))
	}
	batch := dispatcher.batches[0]
	if len(batch) != 2 {
		t.Fatalf("batch has %d events, want 2", len(batch))
	}
	if _, ok := batch[0].(domain.EventLogged); !ok {
		t.Errorf("batch[0] = %T, want EventLogged first per registration order", batch[0])
	}
	if _, ok := batch[1].(domain.CgmLinkCreated); !ok {
		t.Errorf("batch[1] = %T, want CgmLinkCreated second", batch[1])
	}
	if len(event.PendingEvents()) != 0 || len(link.PendingEvents()) != 0 {
		t.Error("aggregate queues not cleared after commit")
	}
}

func TestCommit_SecondCallDispatchesNothing(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}
	dispatcher := &fakeDispatcher{}
	uow := postgres.NewUnitOfWorkFactory(db, dispatcher).New()

	uow.AddLink(newLink(t))
	if err := uow.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := uow.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error on second commit: %v", err)
	}

	if db.begins != 1 {
		t.Errorf("began %d transactions, want 1", db.begins)
	}
	if len(dispatcher.batches) != 1 {
		t.Errorf("dispatched %d batches, want 1", len(dispatcher.batches))
	}
}

func TestCommit_FailedApply_DispatchesNothing(t *testing.T) {
	tx := &fakeTx{execErr: errors.New("relation does not exist")}
	db := &fakeBeginner{tx: tx}
	dispatcher := &fakeDispatcher{}
	uow := postgres.NewUnitOfWorkFactory(db, dispatcher).New()

	link := newLink(t)
	uow.AddLink(link)

	if err := uow.Commit(context.Background()); err == nil {
		t.Fatal("want error from failed statement")
	}

	if tx.committed {
		t.Error("transaction must not commit after a failed statement")
	}
	if !tx.rolledBack {
		t.Error("transaction was not rolled back")
	}
	if len(dispatcher.batches) != 0 {
		t.Errorf("dispatched %d batches after failure, want 0", len(dispatcher.batches))
	}
	// Queues drain before persistence runs, so the lost notifications are
	// not re-raised on a retry.
	if len(link.PendingEvents()) != 0 {
		t.Error("aggregate queue should be drained even when persistence fails")
	}
}

func TestCommit_NoMutations_StartsNoTransaction(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{}}
	dispatcher := &fakeDispatcher{}
	uow := postgres.NewUnitOfWorkFactory(db, dispatcher).New()

	if err := uow.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.begins != 0 {
		t.Errorf("began %d transactions, want 0", db.begins)
	}
	if len(dispatcher.batches) != 0 {
		t.Errorf("dispatched %d batches, want 0", len(dispatcher.batches))
	}
}

func TestCommit_SameAggregateTwice_CollectsEventsOnce(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}
	dispatcher := &fakeDispatcher{}
	uow := postgres.NewUnitOfWorkFactory(db, dispatcher).New()

	link := newLink(t)
	uow.AddLink(link)
	link.Unlink(false, fixedClock{now: frozen}, "corr-2", "")
	uow.UpdateLink(link)

	if err := uow.Commit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tx.execSQL) != 2 {
		t.Fatalf("executed %d statements, want 2", len(tx.execSQL))
	}
	if len(dispatcher.batches) != 1 {
		t.Fatalf("dispatched %d batches, want 1", len(dispatcher.batches))
	}
	batch := dispatcher.batches[0]
	if len(batch) != 2 {
		t.Fatalf("batch has %d events, want created and unlinked exactly once each", len(batch))
	}
	if _, ok := batch[0].(domain.CgmLinkCreated); !ok {
		t.Errorf("batch[0] = %T, want CgmLinkCreated", batch[0])
	}
	if _, ok := batch[1].(domain.CgmLinkUnlinked); !ok {
		t.Errorf("batch[1] = %T, want CgmLinkUnlinked", batch[1])
	}
}
