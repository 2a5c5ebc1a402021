package sherr

import (
	"errors"
	"testing"
)

func TestErrorIsMatchesSentinelByKind(t *testing.T) {
	err := New(NotFound, "thread %q", "t_1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("errors.Is(%v, ErrNotFound) = false, want true", err)
	}
	if errors.Is(err, ErrConflict) {
		t.Fatalf("errors.Is(%v, ErrConflict) = true, want false", err)
	}
}

func TestErrorMessageIncludesKindAndText(t *testing.T) {
	err := New(GridOverflow, "row %d exceeds MAX_ROWS", 1<<20)
	want := "GridOverflow: row 1048576 exceeds MAX_ROWS"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
