package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, user_id, occurred_at, kind, origin, note, created_at,
	       carbohydrate_grams, meal_tag_id, absorption_hint,
	       insulin_type, insulin_dose_units, insulin_preparation, insulin_delivery, insulin_timing,
	       exercise_type_id, exercise_duration_min, exercise_intensity,
	       note_body`

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) GetByID(ctx context.Context, id domain.EventID) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, query, id.String()))
}

func (r *EventRepository) ListByUser(ctx context.Context, input repository.ListEventsInput) ([]*domain.Event, error) {
	args := []any{input.UserID.String()}
	where := []string{"user_id = $1"}

	if input.Kind != "" {
		args = append(args, string(input.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if input.From != nil {
		args = append(args, *input.From)
		where = append(where, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if input.To != nil {
		args = append(args, *input.To)
		where = append(where, fmt.Sprintf("occurred_at < $%d", len(args)))
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT `+eventColumns+`
		FROM events
		WHERE %s
		ORDER BY occurred_at DESC, id DESC
		LIMIT $%d`,
		strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// eventRow flattens the variant payloads into nullable columns; exactly one
// group is non-null per row, enforced by the kind/payload check inside
// domain.RehydrateEvent.
type eventRow struct {
	id         string
	userID     string
	occurredAt time.Time
	kind       string
	origin     string
	note       *string
	createdAt  time.Time

	carbGrams      *int
	mealTagID      *string
	absorptionHint *string

	insulinType        *string
	insulinDoseUnits   *float64
	insulinPreparation *string
	insulinDelivery    *string
	insulinTiming      *string

	exerciseTypeID      *string
	exerciseDurationMin *int
	exerciseIntensity   *string

	noteBody *string
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e eventRow
	err := row.Scan(
		&e.id, &e.userID, &e.occurredAt, &e.kind, &e.origin, &e.note, &e.createdAt,
		&e.carbGrams, &e.mealTagID, &e.absorptionHint,
		&e.insulinType, &e.insulinDoseUnits, &e.insulinPreparation, &e.insulinDelivery, &e.insulinTiming,
		&e.exerciseTypeID, &e.exerciseDurationMin, &e.exerciseIntensity,
		&e.noteBody,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return e.toDomain()
}

func (e eventRow) toDomain() (*domain.Event, error) {
	rec := domain.EventRecord{
		OccurredAt: e.occurredAt,
		Kind:       domain.EventKind(e.kind),
		Origin:     domain.EventOrigin(e.origin),
		CreatedAt:  e.createdAt,
	}

	var err error
	if rec.ID, err = valueOf(domain.NewEventID(e.id)); err != nil {
		return nil, err
	}
	if rec.UserID, err = valueOf(domain.NewUserID(e.userID)); err != nil {
		return nil, err
	}
	if rec.Note, err = optionalNote(e.note); err != nil {
		return nil, err
	}

	switch rec.Kind {
	case domain.KindFood:
		if e.carbGrams == nil || e.mealTagID == nil || e.absorptionHint == nil {
			return nil, fmt.Errorf("event %s: incomplete food payload", e.id)
		}
		carbs, err := valueOf(domain.NewCarbohydrate(*e.carbGrams))
		if err != nil {
			return nil, err
		}
		mealTag, err := valueOf(domain.NewMealTagID(*e.mealTagID))
		if err != nil {
			return nil, err
		}
		rec.Food = &domain.FoodDetails{
			Carbohydrates: carbs,
			MealTag:       mealTag,
			Absorption:    domain.AbsorptionHint(*e.absorptionHint),
		}
	case domain.KindInsulin:
		if e.insulinType == nil || e.insulinDoseUnits == nil {
			return nil, fmt.Errorf("event %s: incomplete insulin payload", e.id)
		}
		dose, err := valueOf(domain.NewInsulinDose(*e.insulinDoseUnits))
		if err != nil {
			return nil, err
		}
		details := &domain.InsulinDetails{
			Type: domain.InsulinType(*e.insulinType),
			Dose: dose,
		}
		if details.Preparation, err = optionalNote(e.insulinPreparation); err != nil {
			return nil, err
		}
		if details.Delivery, err = optionalNote(e.insulinDelivery); err != nil {
			return nil, err
		}
		if details.Timing, err = optionalNote(e.insulinTiming); err != nil {
			return nil, err
		}
		rec.Insulin = details
	case domain.KindExercise:
		if e.exerciseTypeID == nil || e.exerciseDurationMin == nil || e.exerciseIntensity == nil {
			return nil, fmt.Errorf("event %s: incomplete exercise payload", e.id)
		}
		exType, err := valueOf(domain.NewExerciseTypeID(*e.exerciseTypeID))
		if err != nil {
			return nil, err
		}
		duration, err := valueOf(domain.NewExerciseDuration(*e.exerciseDurationMin))
		if err != nil {
			return nil, err
		}
		rec.Exercise = &domain.ExerciseDetails{
			ExerciseType: exType,
			Duration:     duration,
			Intensity:    domain.Intensity(*e.exerciseIntensity),
		}
	case domain.KindNote:
		if e.noteBody == nil {
			return nil, fmt.Errorf("event %s: note payload missing", e.id)
		}
		body, err := valueOf(domain.NewNoteText(*e.noteBody))
		if err != nil {
			return nil, err
		}
		rec.NoteBody = &domain.NoteDetails{Body: body}
	}

	return domain.RehydrateEvent(rec)
}

// valueOf converts a stored column back through its value-object factory; a
// failure means the row was corrupted outside the application.
func valueOf[T any](r domain.Result[T]) (T, error) {
	if r.IsFailure() {
		var zero T
		return zero, fmt.Errorf("stored value violates domain invariant: %v", r.Err())
	}
	return r.Value(), nil
}

func optionalNote(s *string) (domain.NoteText, error) {
	if s == nil {
		return domain.NoNote(), nil
	}
	return valueOf(domain.NewNoteText(*s))
}

func noteParam(n domain.NoteText) *string {
	if !n.IsSet() {
		return nil
	}
	text := n.String()
	return &text
}

var _ repository.EventRepository = (*EventRepository)(nil)
