package todos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound reports that the referenced todo does not exist or is
	// soft-deleted. It is a normal outcome, not a store failure.
	ErrNotFound = errors.New("todos: todo not found")

	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// ServiceError wraps a store failure with a dotted operation code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the dotted operation code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "todos.service.new"
	opCreate     = "todos.create"
	opBulkCreate = "todos.bulk_create"
	opGet        = "todos.get"
	opList       = "todos.list"
	opUpdate     = "todos.update"
	opDelete     = "todos.delete"
	opComplete   = "todos.complete"
	opReopen     = "todos.reopen"
	opPurge      = "todos.purge"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// nullsLastOrder sorts non-null due dates ascending before all null
// ones, with ties broken by ascending priority. The null direction is
// load-bearing: a todo without a due date always lists after every
// dated todo, regardless of priority.
const nullsLastOrder = "CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, priority ASC"

// ServiceConfig describes the dependencies of the todo repository.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service is the data-access layer for todo records. It trusts its
// inputs; field validation happens at the boundary before any call.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the todo repository.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:     cfg.Database,
		clock:  clock,
		logger: logger,
	}, nil
}

// Create persists a new todo and returns it as freshly read from the
// store, so the result reflects exactly what was persisted.
func (s *Service) Create(ctx context.Context, input CreateInput) (Todo, error) {
	now := s.clock().UTC()
	record := newRecord(input, now)

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opCreate, "insert_failed", err)
		return Todo{}, newServiceError(opCreate, "insert_failed", err)
	}

	created, err := s.getActive(ctx, s.db, record.ID)
	if err != nil {
		s.logError(opCreate, "readback_failed", err, zap.Int64("todo_id", record.ID))
		return Todo{}, newServiceError(opCreate, "readback_failed", err)
	}
	return created, nil
}

// BulkCreate persists the inputs in submission order inside one
// transaction. The caller has already validated every element; a store
// failure on any insert rolls back all of them.
func (s *Service) BulkCreate(ctx context.Context, inputs []CreateInput) ([]Todo, error) {
	created := make([]Todo, 0, len(inputs))

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, input := range inputs {
			now := s.clock().UTC()
			record := newRecord(input, now)
			if err := tx.Create(&record).Error; err != nil {
				return newServiceError(opBulkCreate, "insert_failed", err)
			}
			stored, err := s.getActive(ctx, tx, record.ID)
			if err != nil {
				return newServiceError(opBulkCreate, "readback_failed", err)
			}
			created = append(created, stored)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opBulkCreate, "transaction_failed", txErr, zap.Int("input_count", len(inputs)))
		return nil, txErr
	}

	return created, nil
}

// Get returns the todo with the given id. Soft-deleted records are
// indistinguishable from absent ones: both yield ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (Todo, error) {
	record, err := s.getActive(ctx, s.db, id)
	if errors.Is(err, ErrNotFound) {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		s.logError(opGet, "query_failed", err, zap.Int64("todo_id", id))
		return Todo{}, newServiceError(opGet, "query_failed", err)
	}
	return record, nil
}

// List returns non-deleted todos matching the filter, ordered by due
// date ascending with null due dates last, ties broken by priority.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Todo, error) {
	query := s.db.WithContext(ctx).Where("deleted_at IS NULL")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}

	var records []Todo
	if err := query.Order(nullsLastOrder).Find(&records).Error; err != nil {
		s.logError(opList, "query_failed", err)
		return nil, newServiceError(opList, "query_failed", err)
	}
	return records, nil
}

// Update applies the fields present in the input and refreshes
// updated_at, even when zero fields are supplied. Absent fields are
// left untouched; explicit nulls clear the stored value.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Todo, error) {
	if _, err := s.getActive(ctx, s.db, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Todo{}, ErrNotFound
		}
		s.logError(opUpdate, "lookup_failed", err, zap.Int64("todo_id", id))
		return Todo{}, newServiceError(opUpdate, "lookup_failed", err)
	}

	values := updateColumns(input)
	values["updated_at"] = s.clock().UTC()

	err := s.db.WithContext(ctx).Model(&Todo{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(values).Error
	if err != nil {
		s.logError(opUpdate, "update_failed", err, zap.Int64("todo_id", id))
		return Todo{}, newServiceError(opUpdate, "update_failed", err)
	}

	return s.readBack(ctx, opUpdate, id)
}

// Delete soft-deletes the todo by stamping deleted_at. A second delete
// of the same id reports ErrNotFound, since reads exclude deleted rows.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.getActive(ctx, s.db, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		s.logError(opDelete, "lookup_failed", err, zap.Int64("todo_id", id))
		return newServiceError(opDelete, "lookup_failed", err)
	}

	now := s.clock().UTC()
	err := s.db.WithContext(ctx).Model(&Todo{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": now, "updated_at": now}).Error
	if err != nil {
		s.logError(opDelete, "update_failed", err, zap.Int64("todo_id", id))
		return newServiceError(opDelete, "update_failed", err)
	}
	return nil
}

// Complete marks the todo completed, stamping completed_at. Repeating
// the call re-stamps the timestamps and is not rejected.
func (s *Service) Complete(ctx context.Context, id int64) (Todo, error) {
	now := s.clock().UTC()
	return s.transition(ctx, opComplete, id, map[string]any{
		"status":       StatusCompleted,
		"completed_at": now,
		"updated_at":   now,
	})
}

// Reopen marks the todo pending again and clears completed_at.
func (s *Service) Reopen(ctx context.Context, id int64) (Todo, error) {
	return s.transition(ctx, opReopen, id, map[string]any{
		"status":       StatusPending,
		"completed_at": nil,
		"updated_at":   s.clock().UTC(),
	})
}

// PurgeDeleted permanently removes every soft-deleted todo and returns
// how many were removed. Non-deleted records are never touched.
func (s *Service) PurgeDeleted(ctx context.Context) (int64, error) {
	var purged int64

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Todo{}).Where("deleted_at IS NOT NULL").Count(&purged).Error; err != nil {
			return newServiceError(opPurge, "count_failed", err)
		}
		if err := tx.Where("deleted_at IS NOT NULL").Delete(&Todo{}).Error; err != nil {
			return newServiceError(opPurge, "delete_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opPurge, "transaction_failed", txErr)
		return 0, txErr
	}

	return purged, nil
}

func (s *Service) transition(ctx context.Context, operation string, id int64, values map[string]any) (Todo, error) {
	if _, err := s.getActive(ctx, s.db, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Todo{}, ErrNotFound
		}
		s.logError(operation, "lookup_failed", err, zap.Int64("todo_id", id))
		return Todo{}, newServiceError(operation, "lookup_failed", err)
	}

	err := s.db.WithContext(ctx).Model(&Todo{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(values).Error
	if err != nil {
		s.logError(operation, "update_failed", err, zap.Int64("todo_id", id))
		return Todo{}, newServiceError(operation, "update_failed", err)
	}

	return s.readBack(ctx, operation, id)
}

func (s *Service) readBack(ctx context.Context, operation string, id int64) (Todo, error) {
	record, err := s.getActive(ctx, s.db, id)
	if err != nil {
		s.logError(operation, "readback_failed", err, zap.Int64("todo_id", id))
		return Todo{}, newServiceError(operation, "readback_failed", err)
	}
	return record, nil
}

func (s *Service) getActive(ctx context.Context, db *gorm.DB, id int64) (Todo, error) {
	var record Todo
	err := db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, err
	}
	return record, nil
}

func newRecord(input CreateInput, now time.Time) Todo {
	priority := input.Priority
	if priority == 0 {
		priority = PriorityDefault
	}
	return Todo{
		Description: input.Description,
		DueDateText: input.DueDateText,
		DueDate:     input.DueDate,
		Notes:       input.Notes,
		Priority:    priority,
		Status:      StatusPending,
		GcalEventID: input.GcalEventID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func updateColumns(input UpdateInput) map[string]any {
	values := make(map[string]any)
	if input.Description.Set {
		values["description"] = input.Description.Value
	}
	if input.DueDateText.Set {
		values["due_date_text"] = nullable(input.DueDateText)
	}
	if input.DueDate.Set {
		values["due_date"] = nullable(input.DueDate)
	}
	if input.Notes.Set {
		values["notes"] = nullable(input.Notes)
	}
	if input.Priority.Set {
		values["priority"] = input.Priority.Value
	}
	if input.GcalEventID.Set {
		values["gcal_event_id"] = nullable(input.GcalEventID)
	}
	return values
}

func nullable[T any](field Field[T]) any {
	if field.Null {
		return nil
	}
	return field.Value
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("todo repository error", attrs...)
}
