package domain_test

import (
	"testing"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var frozen = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func mustUserID(t *testing.T) domain.UserID {
	t.Helper()
	return domain.NewUserID("user-1").Value()
}

func foodDetails(t *testing.T) domain.FoodDetails {
	t.Helper()
	return domain.FoodDetails{
		Carbohydrates: domain.NewCarbohydrate(45).Value(),
		MealTag:       domain.NewMealTagID("lunch").Value(),
		Absorption:    domain.AbsorptionNormal,
	}
}

func TestNewFoodEvent_RejectsFutureTime(t *testing.T) {
	clock := fixedClock{now: frozen}

	r := domain.NewFoodEvent(mustUserID(t), frozen.Add(time.Second), foodDetails(t), domain.NoNote(), domain.OriginManual, clock, "corr-1", "cause-1")
	if r.IsSuccess() {
		t.Fatal("event one second in the future must fail")
	}
	if r.Err().Code != domain.CodeValidation {
		t.Errorf("code = %q, want validation", r.Err().Code)
	}

	// Exactly "now" and earlier are fine.
	for _, at := range []time.Time{frozen, frozen.Add(-time.Hour)} {
		if domain.NewFoodEvent(mustUserID(t), at, foodDetails(t), domain.NoNote(), domain.OriginManual, clock, "corr-1", "cause-1").IsFailure() {
			t.Errorf("event at %v must succeed", at)
		}
	}
}

func TestNewFoodEvent_EnqueuesSingleLoggedEvent(t *testing.T) {
	clock := fixedClock{now: frozen}

	r := domain.NewFoodEvent(mustUserID(t), frozen.Add(-time.Minute), foodDetails(t), domain.NoNote(), domain.OriginManual, clock, "corr-1", "cause-1")
	if r.IsFailure() {
		t.Fatalf("unexpected failure: %v", r.Err())
	}
	ev := r.Value()

	pending := ev.PendingEvents()
	if len(pending) != 1 {
		t.Fatalf("pending events = %d, want 1", len(pending))
	}
	logged, ok := pending[0].(domain.EventLogged)
	if !ok {
		t.Fatalf("pending[0] is %T, want EventLogged", pending[0])
	}
	if logged.EventID != ev.ID() || logged.Kind != domain.KindFood {
		t.Error("logged event does not mirror the aggregate")
	}
	if logged.CorrelationID() != "corr-1" || logged.CausationID() != "cause-1" {
		t.Error("correlation/causation ids not stamped")
	}
	if !logged.OccurredAt().Equal(frozen) {
		t.Errorf("occurred at %v, want clock time %v", logged.OccurredAt(), frozen)
	}

	ev.ClearPendingEvents()
	if len(ev.PendingEvents()) != 0 {
		t.Error("queue must be empty after clear")
	}
}

func TestNewNoteEvent_RequiresBody(t *testing.T) {
	clock := fixedClock{now: frozen}

	if domain.NewNoteEvent(mustUserID(t), frozen, domain.NoNote(), domain.OriginManual, clock, "c", "c").IsSuccess() {
		t.Error("note event without a body must fail")
	}

	body := domain.NewNoteText("slept badly, readings high all morning").Value()
	r := domain.NewNoteEvent(mustUserID(t), frozen, body, domain.OriginManual, clock, "c", "c")
	if r.IsFailure() {
		t.Fatalf("unexpected failure: %v", r.Err())
	}
	got, ok := r.Value().NoteBody()
	if !ok || got.Body != body {
		t.Error("note body not preserved")
	}
}

func TestEvent_MatchIsExhaustive(t *testing.T) {
	clock := fixedClock{now: frozen}
	ev := domain.NewInsulinEvent(mustUserID(t), frozen, domain.InsulinDetails{
		Type: domain.InsulinFast,
		Dose: domain.NewInsulinDose(4.5).Value(),
	}, domain.NoNote(), domain.OriginManual, clock, "c", "c").Value()

	var hit domain.EventKind
	ev.Match(domain.EventMatch{
		Food:     func(domain.FoodDetails) { hit = domain.KindFood },
		Insulin:  func(domain.InsulinDetails) { hit = domain.KindInsulin },
		Exercise: func(domain.ExerciseDetails) { hit = domain.KindExercise },
		Note:     func(domain.NoteDetails) { hit = domain.KindNote },
	})
	if hit != domain.KindInsulin {
		t.Errorf("matched %q, want insulin", hit)
	}

	defer func() {
		if recover() == nil {
			t.Error("Match with a missing handler must panic")
		}
	}()
	ev.Match(domain.EventMatch{Food: func(domain.FoodDetails) {}})
}

func TestEvent_VariantAccessorsAgreeWithKind(t *testing.T) {
	clock := fixedClock{now: frozen}
	ev := domain.NewExerciseEvent(mustUserID(t), frozen, domain.ExerciseDetails{
		ExerciseType: domain.NewExerciseTypeID("running").Value(),
		Duration:     domain.NewExerciseDuration(30).Value(),
		Intensity:    domain.IntensityModerate,
	}, domain.NoNote(), domain.OriginManual, clock, "c", "c").Value()

	if _, ok := ev.Exercise(); !ok {
		t.Error("exercise payload must be accessible on an exercise event")
	}
	if _, ok := ev.Food(); ok {
		t.Error("food payload must not be exposed on an exercise event")
	}
	if _, ok := ev.Insulin(); ok {
		t.Error("insulin payload must not be exposed on an exercise event")
	}
}

func TestRehydrateEvent_RejectsKindPayloadMismatch(t *testing.T) {
	clock := fixedClock{now: frozen}
	rec := domain.NewFoodEvent(mustUserID(t), frozen, foodDetails(t), domain.NoNote(), domain.OriginManual, clock, "c", "c").Value().Record()

	back, err := domain.RehydrateEvent(rec)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if len(back.PendingEvents()) != 0 {
		t.Error("rehydration must not raise domain events")
	}

	rec.Food = nil
	if _, err := domain.RehydrateEvent(rec); err == nil {
		t.Error("food kind without food payload must be rejected")
	}
}
