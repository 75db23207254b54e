package database

import (
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/jaketodo/backend/internal/todos"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsRepairsCompletedAtConsistency(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&todos.Todo{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	stamped := time.Unix(1767225600, 0).UTC()
	inconsistent := todos.Todo{
		Description: "reopened before the column was cleared",
		Priority:    todos.PriorityDefault,
		Status:      todos.StatusPending,
		CompletedAt: &stamped,
		CreatedAt:   stamped,
		UpdatedAt:   stamped,
	}
	if err := database.Create(&inconsistent).Error; err != nil {
		testContext.Fatalf("failed to insert todo: %v", err)
	}
	consistent := todos.Todo{
		Description: "legitimately completed",
		Priority:    todos.PriorityDefault,
		Status:      todos.StatusCompleted,
		CompletedAt: &stamped,
		CreatedAt:   stamped,
		UpdatedAt:   stamped,
	}
	if err := database.Create(&consistent).Error; err != nil {
		testContext.Fatalf("failed to insert todo: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var repaired todos.Todo
	if err := database.Where("id = ?", inconsistent.ID).Take(&repaired).Error; err != nil {
		testContext.Fatalf("failed to reload todo: %v", err)
	}
	if repaired.CompletedAt != nil {
		testContext.Fatalf("expected completed_at cleared on pending row, got %v", repaired.CompletedAt)
	}

	var untouched todos.Todo
	if err := database.Where("id = ?", consistent.ID).Take(&untouched).Error; err != nil {
		testContext.Fatalf("failed to reload todo: %v", err)
	}
	if untouched.CompletedAt == nil {
		testContext.Fatalf("completed row must keep its completion timestamp")
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationRepairCompletedAtConsistency).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}

	// A second pass must not re-run the migration.
	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to re-apply migrations: %v", err)
	}
	var records int64
	if err := database.Model(&migrationRecord{}).Count(&records).Error; err != nil {
		testContext.Fatalf("failed to count migration records: %v", err)
	}
	if records != 1 {
		testContext.Fatalf("expected a single migration record, got %d", records)
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		testContext.Fatalf("expected error for empty path")
	}
}

func TestOpenSQLiteCreatesParentDirectory(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "nested", "data", "todos.db")

	database, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		testContext.Fatalf("failed to unwrap sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := database.Create(&todos.Todo{
		Description: "proves the schema exists",
		Priority:    todos.PriorityDefault,
		Status:      todos.StatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}).Error; err != nil {
		testContext.Fatalf("failed to insert into migrated schema: %v", err)
	}
}
