package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"plate-service/internal/regions"
)

type RegionRepository struct {
	db *gorm.DB
}

func NewRegionRepository(db *gorm.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

func (PlateRegion) TableName() string {
	return "plate_regions"
}

type PlateRegion struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Position  int                         `gorm:"not null"`
	Code      string                      `gorm:"not null;uniqueIndex"`
	Regions   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListRegions returns the stored reference in asset order.
func (r *RegionRepository) ListRegions(ctx context.Context) ([]regions.Record, error) {
	var rows []PlateRegion
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list plate regions: %w", err)
	}

	records := make([]regions.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, regions.Record{
			Code:    row.Code,
			Regions: []string(row.Regions),
		})
	}
	return records, nil
}

// ReplaceRegions swaps the stored reference for the given table in one transaction.
func (r *RegionRepository) ReplaceRegions(ctx context.Context, table *regions.Table) (int, error) {
	rows := toRows(table)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&PlateRegion{}).Error; err != nil {
			return fmt.Errorf("clear plate regions: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("insert plate regions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func toRows(table *regions.Table) []PlateRegion {
	now := time.Now()
	rows := make([]PlateRegion, 0, table.Len())
	table.Each(func(i int, rec regions.Record) bool {
		rows = append(rows, PlateRegion{
			ID:        uuid.New(),
			Position:  i,
			Code:      rec.Code,
			Regions:   datatypes.JSONSlice[string](rec.Regions),
			CreatedAt: now,
			UpdatedAt: now,
		})
		return true
	})
	return rows
}
