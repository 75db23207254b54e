package database

import (
	"errors"
	"time"

	"github.com/jaketodo/backend/internal/todos"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationRepairCompletedAtConsistency = "2026-07-18_repair_completed_at_consistency"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationRepairCompletedAtConsistency, apply: repairCompletedAtConsistency},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// repairCompletedAtConsistency clears completion timestamps on rows
// whose status is pending, restoring the completed_at <=> completed
// invariant for databases written before reopen cleared the column.
func repairCompletedAtConsistency(db *gorm.DB) error {
	return db.Model(&todos.Todo{}).
		Where("status = ? AND completed_at IS NOT NULL", todos.StatusPending).
		Update("completed_at", nil).Error
}
