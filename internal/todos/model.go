package todos

import (
	"errors"
	"fmt"
	"time"
)

// Status enumerates the lifecycle states of a todo.
type Status string

const (
	// StatusPending marks a todo that has not been completed.
	StatusPending Status = "pending"
	// StatusCompleted marks a todo that has been completed.
	StatusCompleted Status = "completed"
)

// Priority ranks a todo from 1 (highest) to 4 (lowest).
type Priority int

const (
	// PriorityMin is the highest priority.
	PriorityMin Priority = 1
	// PriorityMax is the lowest priority.
	PriorityMax Priority = 4
	// PriorityDefault applies when a creation input omits priority.
	PriorityDefault Priority = 3
)

// DueDateLayout is the only accepted wire format for structured due dates.
const DueDateLayout = "2006-01-02"

var (
	// ErrInvalidDescription indicates an empty description.
	ErrInvalidDescription = errors.New("todos: description must not be empty")
	// ErrInvalidPriority indicates a priority outside the 1..4 range.
	ErrInvalidPriority = errors.New("todos: priority must be between 1 and 4")
	// ErrInvalidStatus indicates a status value other than pending or completed.
	ErrInvalidStatus = errors.New("todos: invalid status")
	// ErrInvalidDueDate indicates a due date that is not an ISO calendar date.
	ErrInvalidDueDate = errors.New("todos: due date must be an ISO date (YYYY-MM-DD)")
)

// NewDescription validates raw input and returns a description.
func NewDescription(rawInput string) (string, error) {
	if len(rawInput) == 0 {
		return "", ErrInvalidDescription
	}
	return rawInput, nil
}

// NewPriority validates raw input and returns a Priority.
func NewPriority(value int) (Priority, error) {
	priority := Priority(value)
	if priority < PriorityMin || priority > PriorityMax {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidPriority, value)
	}
	return priority, nil
}

// Int exposes the raw priority value.
func (p Priority) Int() int {
	return int(p)
}

// ParseStatus validates raw input and returns a Status.
func ParseStatus(rawInput string) (Status, error) {
	switch Status(rawInput) {
	case StatusPending, StatusCompleted:
		return Status(rawInput), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, rawInput)
	}
}

// ParseDueDate validates raw input and returns the calendar date it names.
func ParseDueDate(rawInput string) (time.Time, error) {
	parsed, err := time.Parse(DueDateLayout, rawInput)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, rawInput)
	}
	return parsed.UTC(), nil
}

// Todo models one persisted todo record.
type Todo struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Description string     `gorm:"column:description;type:text;not null"`
	DueDateText *string    `gorm:"column:due_date_text;type:text"`
	DueDate     *time.Time `gorm:"column:due_date;type:date;index:idx_todos_due_date"`
	Notes       *string    `gorm:"column:notes;type:text"`
	Priority    Priority   `gorm:"column:priority;not null;default:3;index:idx_todos_priority"`
	Status      Status     `gorm:"column:status;size:16;not null;default:pending;index:idx_todos_status_deleted,priority:1"`
	GcalEventID *string    `gorm:"column:gcal_event_id;type:text"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index:idx_todos_status_deleted,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Todo) TableName() string {
	return "todos"
}

// CreateInput carries a validated creation request. Construct the
// validated fields through NewDescription, NewPriority and ParseDueDate;
// the repository trusts them as-is.
type CreateInput struct {
	Description string
	DueDateText *string
	DueDate     *time.Time
	Notes       *string
	Priority    Priority
	GcalEventID *string
}

// Field carries one updatable value together with its presence on the
// wire. Set reports whether the caller named the field at all; Null
// reports an explicit null. An unset Field leaves the stored value
// untouched.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// SetValue returns a present, non-null field.
func SetValue[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}

// SetNull returns a present field carrying an explicit null.
func SetNull[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// UpdateInput carries a validated partial update. Absent fields are
// distinct from fields explicitly set to null.
type UpdateInput struct {
	Description Field[string]
	DueDateText Field[string]
	DueDate     Field[time.Time]
	Notes       Field[string]
	Priority    Field[Priority]
	GcalEventID Field[string]
}

// ListFilter narrows List results. Nil members are no-ops; both present
// means both must match.
type ListFilter struct {
	Status   *Status
	Priority *Priority
}
