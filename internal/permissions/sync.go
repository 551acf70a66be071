package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kdufoot/kdufoot/internal/models"
)

// Sync persists the catalog and the tier grants of matrix so reporting tools can
// query them. Grants are rewritten on every call.
func Sync(ctx context.Context, db *gorm.DB, matrix *Matrix) error {
	if db == nil {
		return errors.New("permission: db is required")
	}
	if matrix == nil {
		return errors.New("permission: matrix is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range GetAll() {
			dependsJSON, err := json.Marshal(def.DependsOn)
			if err != nil {
				return fmt.Errorf("permission: marshal depends_on for %s: %w", def.ID, err)
			}

			record := models.PermissionDefinition{
				ID:          string(def.ID),
				Module:      def.Module,
				Description: def.Description,
				DependsOn:   datatypes.JSON(dependsJSON),
			}

			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"module", "description", "depends_on", "updated_at"}),
			}).Create(&record).Error; err != nil {
				return fmt.Errorf("permission: sync %s: %w", def.ID, err)
			}
		}

		if err := tx.Where("1 = 1").Delete(&models.TierPermission{}).Error; err != nil {
			return fmt.Errorf("permission: clear tier grants: %w", err)
		}

		var rows []models.TierPermission
		for _, tier := range matrix.Tiers() {
			granted, err := matrix.Grants(tier)
			if err != nil {
				return err
			}
			added, err := matrix.Added(tier)
			if err != nil {
				return err
			}
			for _, perm := range granted.Sorted() {
				rows = append(rows, models.TierPermission{
					Tier:         string(tier),
					PermissionID: string(perm),
					Inherited:    !added.Has(perm),
				})
			}
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("permission: sync tier grants: %w", err)
		}
		return nil
	})
}
