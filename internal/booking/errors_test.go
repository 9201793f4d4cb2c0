package booking

import (
    "errors"
    "fmt"
    "testing"
    "time"
)

func TestKindOfUnknownErrorIsInternal(test *testing.T) {
    test.Parallel()
    if got := KindOf(errors.New("driver: bad connection")); got != KindInternal {
        test.Fatalf("expected internal kind, got %s", got)
    }
}

func TestKindOfWrappedEngineError(test *testing.T) {
    test.Parallel()
    err := fmt.Errorf("handler context: %w", newError(KindCapacityExceeded, "party size exceeds table capacity (max %d)", 4))
    if got := KindOf(err); got != KindCapacityExceeded {
        test.Fatalf("expected capacity kind through wrapping, got %s", got)
    }
}

func TestConflictWindowOnlyOnConflicts(test *testing.T) {
    test.Parallel()
    win := Window{
        Start: time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC),
        End:   time.Date(2025, 6, 10, 19, 30, 0, 0, time.UTC),
    }
    if got := ConflictWindow(conflictError(win)); got == nil || !got.Start.Equal(win.Start) {
        test.Fatalf("expected the blocking window back, got %v", got)
    }
    if got := ConflictWindow(newError(KindNotFound, "reservation not found")); got != nil {
        test.Fatalf("expected nil window for non-conflict, got %v", got)
    }
}

func TestInternalErrorUnwraps(test *testing.T) {
    test.Parallel()
    cause := errors.New("deadlock found when trying to get lock")
    err := internalError(cause)
    if !errors.Is(err, cause) {
        test.Fatal("expected internal error to wrap its cause")
    }
    if KindOf(err) != KindInternal {
        test.Fatalf("expected internal kind, got %s", KindOf(err))
    }
}
