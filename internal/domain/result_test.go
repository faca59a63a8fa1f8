package domain_test

import (
	"testing"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

func TestResult_SuccessAndFailureAreExclusive(t *testing.T) {
	ok := domain.Success(42)
	if !ok.IsSuccess() || ok.IsFailure() {
		t.Error("Success must be success and not failure")
	}
	if got := ok.Value(); got != 42 {
		t.Errorf("Value() = %d, want 42", got)
	}

	bad := domain.Failure[int](domain.ValidationError("nope"))
	if bad.IsSuccess() || !bad.IsFailure() {
		t.Error("Failure must be failure and not success")
	}
	if got := bad.Err().Code; got != domain.CodeValidation {
		t.Errorf("Err().Code = %q, want %q", got, domain.CodeValidation)
	}
}

func TestResult_ValueOnFailurePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Value() on a failed result must panic")
		}
	}()
	domain.Failure[string](domain.NotFoundError("missing")).Value()
}

func TestResult_ErrOnSuccessPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Err() on a successful result must panic")
		}
	}()
	domain.Success("fine").Err()
}

func TestResult_FailureWithSentinelPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Failure(ErrNone) must panic")
		}
	}()
	domain.Failure[int](domain.ErrNone)
}

func TestError_IsNone(t *testing.T) {
	if !domain.ErrNone.IsNone() {
		t.Error("ErrNone must report IsNone")
	}
	if domain.ConflictError("dup").IsNone() {
		t.Error("a real error must not report IsNone")
	}
}
