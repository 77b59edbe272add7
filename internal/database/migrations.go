package database

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/rmitchellscott/qdither/internal/logging"
)

// RunMigrations runs any pending database migrations using gormigrate
func RunMigrations(db *gorm.DB) error {
	logging.DebugWithComponent(logging.ComponentDatabase, "Running database migrations")

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202610150000_add_runs_saved_and_error",
			Migrate: func(tx *gorm.DB) error {
				// Databases created before runs tracked the save outcome
				for _, column := range []string{"Saved", "Error"} {
					if tx.Migrator().HasColumn(&Run{}, column) {
						continue
					}
					if err := tx.Migrator().AddColumn(&Run{}, column); err != nil {
						return fmt.Errorf("failed to add %s column: %w", column, err)
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return nil
			},
		},
	})

	m.InitSchema(func(tx *gorm.DB) error {
		for _, model := range GetAllModels() {
			if err := tx.AutoMigrate(model); err != nil {
				return fmt.Errorf("failed to migrate %T: %w", model, err)
			}
		}
		return nil
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logging.DebugWithComponent(logging.ComponentDatabase, "Database migrations completed")
	return nil
}
