package todos

import (
	"errors"
	"testing"
	"time"
)

func TestNewDescriptionRejectsEmpty(t *testing.T) {
	if _, err := NewDescription(""); !errors.Is(err, ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription, got %v", err)
	}
	if description, err := NewDescription("buy milk"); err != nil || description != "buy milk" {
		t.Fatalf("expected description to pass through, got %q / %v", description, err)
	}
}

func TestNewPriorityEnforcesRange(t *testing.T) {
	for _, value := range []int{1, 2, 3, 4} {
		priority, err := NewPriority(value)
		if err != nil {
			t.Fatalf("priority %d should be valid: %v", value, err)
		}
		if priority.Int() != value {
			t.Fatalf("expected priority %d, got %d", value, priority.Int())
		}
	}
	for _, value := range []int{0, 5, -1, 100} {
		if _, err := NewPriority(value); !errors.Is(err, ErrInvalidPriority) {
			t.Fatalf("priority %d should be rejected, got %v", value, err)
		}
	}
}

func TestParseStatusAcceptsKnownValues(t *testing.T) {
	if status, err := ParseStatus("pending"); err != nil || status != StatusPending {
		t.Fatalf("unexpected result for pending: %v / %v", status, err)
	}
	if status, err := ParseStatus("completed"); err != nil || status != StatusCompleted {
		t.Fatalf("unexpected result for completed: %v / %v", status, err)
	}
	if _, err := ParseStatus("archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestParseDueDateAcceptsISODatesOnly(t *testing.T) {
	parsed, err := ParseDueDate("2025-01-17")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := time.Date(2025, time.January, 17, 0, 0, 0, 0, time.UTC)
	if !parsed.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, parsed)
	}

	for _, raw := range []string{"17-01-2025", "2025/01/17", "next Friday", "2025-13-40", ""} {
		if _, err := ParseDueDate(raw); !errors.Is(err, ErrInvalidDueDate) {
			t.Fatalf("%q should be rejected, got %v", raw, err)
		}
	}
}
