package postgres

import (
	"context"
	"fmt"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/repository"
	"github.com/jackc/pgx/v5"
)

// EventDispatcher receives the drained domain events once the transaction
// has committed.
type EventDispatcher interface {
	Dispatch(ctx context.Context, batch []domain.DomainEvent)
}

// TxBeginner starts a transaction. Satisfied by *pgxpool.Pool; narrowed so
// the commit sequencing can be tested without a live pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UnitOfWork applies registered aggregate mutations in a single pgx
// transaction and hands the aggregates' queued domain events to the
// dispatcher afterwards. Events are drained (and the queues cleared) before
// the transaction runs: if persistence fails, those notifications are lost
// rather than re-raised — dispatch is at-most-once.
type UnitOfWork struct {
	db         TxBeginner
	dispatcher EventDispatcher

	mutations []mutation
}

type mutation struct {
	source domain.EventSource
	apply  func(ctx context.Context, tx pgx.Tx) error
}

type UnitOfWorkFactory struct {
	db         TxBeginner
	dispatcher EventDispatcher
}

func NewUnitOfWorkFactory(db TxBeginner, dispatcher EventDispatcher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, dispatcher: dispatcher}
}

func (f *UnitOfWorkFactory) New() repository.UnitOfWork {
	return &UnitOfWork{db: f.db, dispatcher: f.dispatcher}
}

func (u *UnitOfWork) AddEvent(event *domain.Event) {
	rec := event.Record()
	u.register(event, func(ctx context.Context, tx pgx.Tx) error {
		return insertEvent(ctx, tx, rec)
	})
}

func (u *UnitOfWork) RemoveEvent(event *domain.Event) {
	id := event.ID().String()
	u.register(event, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		return err
	})
}

func (u *UnitOfWork) AddLink(link *domain.CgmLink) {
	rec := link.Record()
	u.register(link, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO cgm_links (id, user_id, access_token_enc, refresh_token_enc,
			                       token_expires_at, last_refreshed_at, unlinked, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID.String(), rec.UserID.String(), rec.EncryptedAccessToken, rec.EncryptedRefreshToken,
			rec.TokenExpiresAt, rec.LastRefreshedAt, rec.Unlinked, rec.CreatedAt,
		)
		return err
	})
}

func (u *UnitOfWork) UpdateLink(link *domain.CgmLink) {
	rec := link.Record()
	u.register(link, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE cgm_links
			SET    access_token_enc  = $2,
			       refresh_token_enc = $3,
			       token_expires_at  = $4,
			       last_refreshed_at = $5,
			       unlinked          = $6
			WHERE id = $1`,
			rec.ID.String(), rec.EncryptedAccessToken, rec.EncryptedRefreshToken,
			rec.TokenExpiresAt, rec.LastRefreshedAt, rec.Unlinked,
		)
		return err
	})
}

func (u *UnitOfWork) RemoveLink(link *domain.CgmLink) {
	id := link.ID().String()
	u.register(link, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM cgm_links WHERE id = $1`, id)
		return err
	})
}

func (u *UnitOfWork) register(source domain.EventSource, apply func(ctx context.Context, tx pgx.Tx) error) {
	u.mutations = append(u.mutations, mutation{source: source, apply: apply})
}

// Commit persists every registered mutation atomically, then dispatches the
// collected domain events in mutation order. Calling Commit again without
// new registrations does nothing.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if len(u.mutations) == 0 {
		return nil
	}

	// Drain queues first so a retry of a failed commit cannot dispatch the
	// same notification twice.
	var batch []domain.DomainEvent
	seen := make(map[domain.EventSource]struct{}, len(u.mutations))
	for _, m := range u.mutations {
		if _, dup := seen[m.source]; dup {
			continue
		}
		seen[m.source] = struct{}{}
		batch = append(batch, m.source.PendingEvents()...)
		m.source.ClearPendingEvents()
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range u.mutations {
		if err := m.apply(ctx, tx); err != nil {
			return fmt.Errorf("apply mutation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}

	u.mutations = nil

	if u.dispatcher != nil {
		u.dispatcher.Dispatch(ctx, batch)
	}
	return nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, rec domain.EventRecord) error {
	var (
		carbGrams      *int
		mealTagID      *string
		absorptionHint *string

		insulinType      *string
		insulinDoseUnits *float64
		insulinPrep      *string
		insulinDelivery  *string
		insulinTiming    *string

		exerciseTypeID      *string
		exerciseDurationMin *int
		exerciseIntensity   *string

		noteBody *string
	)

	switch {
	case rec.Food != nil:
		grams := rec.Food.Carbohydrates.Grams()
		tag := rec.Food.MealTag.String()
		hint := string(rec.Food.Absorption)
		carbGrams, mealTagID, absorptionHint = &grams, &tag, &hint
	case rec.Insulin != nil:
		typ := string(rec.Insulin.Type)
		units := rec.Insulin.Dose.Units()
		insulinType, insulinDoseUnits = &typ, &units
		insulinPrep = noteParam(rec.Insulin.Preparation)
		insulinDelivery = noteParam(rec.Insulin.Delivery)
		insulinTiming = noteParam(rec.Insulin.Timing)
	case rec.Exercise != nil:
		typ := rec.Exercise.ExerciseType.String()
		minutes := rec.Exercise.Duration.Minutes()
		intensity := string(rec.Exercise.Intensity)
		exerciseTypeID, exerciseDurationMin, exerciseIntensity = &typ, &minutes, &intensity
	case rec.NoteBody != nil:
		body := rec.NoteBody.Body.String()
		noteBody = &body
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO events (id, user_id, occurred_at, kind, origin, note, created_at,
		                    carbohydrate_grams, meal_tag_id, absorption_hint,
		                    insulin_type, insulin_dose_units, insulin_preparation, insulin_delivery, insulin_timing,
		                    exercise_type_id, exercise_duration_min, exercise_intensity,
		                    note_body)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		rec.ID.String(), rec.UserID.String(), rec.OccurredAt, string(rec.Kind), string(rec.Origin), noteParam(rec.Note), rec.CreatedAt,
		carbGrams, mealTagID, absorptionHint,
		insulinType, insulinDoseUnits, insulinPrep, insulinDelivery, insulinTiming,
		exerciseTypeID, exerciseDurationMin, exerciseIntensity,
		noteBody,
	)
	return err
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)
var _ repository.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
