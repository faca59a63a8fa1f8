package domain

import (
	"fmt"
	"math"
	"strings"
)

// Value objects are comparable structs with unexported fields: equality is
// structural and the only way to obtain one is through its factory.

// TirRange is a user's time-in-range glucose target band, mg/dL.
type TirRange struct {
	lower int
	upper int
}

func NewTirRange(lower, upper int) Result[TirRange] {
	if lower < 0 || lower > 1000 {
		return Failure[TirRange](ValidationError(fmt.Sprintf("lower bound %d outside [0,1000]", lower)))
	}
	if upper < 0 || upper > 1000 {
		return Failure[TirRange](ValidationError(fmt.Sprintf("upper bound %d outside [0,1000]", upper)))
	}
	if lower >= upper {
		return Failure[TirRange](ValidationError(fmt.Sprintf("lower bound %d must be below upper bound %d", lower, upper)))
	}
	return Success(TirRange{lower: lower, upper: upper})
}

func (r TirRange) Lower() int { return r.lower }
func (r TirRange) Upper() int { return r.upper }

// Carbohydrate is an amount of carbohydrates in grams.
type Carbohydrate struct {
	grams int
}

func NewCarbohydrate(grams int) Result[Carbohydrate] {
	if grams < 0 || grams > 300 {
		return Failure[Carbohydrate](ValidationError(fmt.Sprintf("carbohydrates %dg outside [0,300]", grams)))
	}
	return Success(Carbohydrate{grams: grams})
}

func (c Carbohydrate) Grams() int { return c.grams }

// InsulinDose is an insulin amount in units, constrained to 0.5-unit steps.
// Stored internally as half-units so float drift cannot break the step
// invariant.
type InsulinDose struct {
	halfUnits int
}

func NewInsulinDose(units float64) Result[InsulinDose] {
	if units < 0 || units > 100 {
		return Failure[InsulinDose](ValidationError(fmt.Sprintf("dose %g outside [0,100]", units)))
	}
	doubled := units * 2
	if doubled != math.Trunc(doubled) {
		return Failure[InsulinDose](ValidationError(fmt.Sprintf("dose %g is not a multiple of 0.5", units)))
	}
	return Success(InsulinDose{halfUnits: int(doubled)})
}

func (d InsulinDose) Units() float64 { return float64(d.halfUnits) / 2 }

// ExerciseDuration is a workout length in whole minutes.
type ExerciseDuration struct {
	minutes int
}

func NewExerciseDuration(minutes int) Result[ExerciseDuration] {
	if minutes < 1 || minutes > 300 {
		return Failure[ExerciseDuration](ValidationError(fmt.Sprintf("duration %dmin outside [1,300]", minutes)))
	}
	return Success(ExerciseDuration{minutes: minutes})
}

func (d ExerciseDuration) Minutes() int { return d.minutes }

// NoteText is optional free text. The zero value is the explicit "no note"
// state, which is valid and distinct from an error.
type NoteText struct {
	text string
	set  bool
}

// NoNote is the absent-note state.
func NoNote() NoteText { return NoteText{} }

func NewNoteText(text string) Result[NoteText] {
	if len(text) < 1 || len(text) > 500 {
		return Failure[NoteText](ValidationError(fmt.Sprintf("note length %d outside [1,500]", len(text))))
	}
	return Success(NoteText{text: text, set: true})
}

// NoteTextFrom maps an optional raw string to a note: empty input becomes
// the no-note state, anything else is validated.
func NoteTextFrom(text string) Result[NoteText] {
	if strings.TrimSpace(text) == "" {
		return Success(NoNote())
	}
	return NewNoteText(text)
}

func (n NoteText) IsSet() bool    { return n.set }
func (n NoteText) String() string { return n.text }
