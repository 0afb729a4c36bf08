package errs

import (
	"errors"
	"testing"
)

func TestValidationReportsKindAndMessage(t *testing.T) {
	err := Validation("bad column %q", "x")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected Validation to produce an *Error, got %T", err)
	}
	if e.Kind != KindValidation {
		t.Fatalf("expected KindValidation, got %v", e.Kind)
	}
	if err.Error() != `bad column "x"` {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWorkerFailureUnwrapsToCause(t *testing.T) {
	cause := errors.New("boom")
	err := WorkerFailure(cause)
	if errors.Unwrap(err) == nil {
		t.Fatal("expected WorkerFailure to unwrap to a traced cause")
	}
}

func TestLockTimeoutIsKindResource(t *testing.T) {
	var e *Error
	if !errors.As(error(LockTimeout), &e) || e.Kind != KindResource {
		t.Fatal("expected LockTimeout to be a KindResource *Error")
	}
}

func TestCanceledIsNotWrapped(t *testing.T) {
	var e *Error
	if errors.As(Canceled, &e) {
		t.Fatal("expected Canceled to not be an *Error; cancellation is a result, not a taxonomy error")
	}
}
