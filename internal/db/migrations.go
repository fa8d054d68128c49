package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

	// Region reference table; position keeps the asset order used for tie-breaks.
	`CREATE TABLE IF NOT EXISTS plate_regions (
		id          UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		position    INT NOT NULL,
		code        TEXT NOT NULL,
		regions     JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_plate_regions_code ON plate_regions(code);`,
	`CREATE INDEX IF NOT EXISTS idx_plate_regions_position ON plate_regions(position);`,
	`ALTER TABLE plate_regions ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT now();`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
