package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kdufoot/kdufoot/internal/models"
	"github.com/kdufoot/kdufoot/internal/permissions"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.PermissionDefinition{},
		&models.TierPermission{},
		&models.CacheEntry{},
		&models.SystemSetting{},
		&models.AuditLog{},
	)
}

// SeedData persists the permission catalog and tier grants. The write is skipped
// when the stored fingerprint already matches matrix.
func SeedData(ctx context.Context, db *gorm.DB, matrix *permissions.Matrix) error {
	if matrix == nil {
		return errors.New("seed data: matrix is required")
	}

	fingerprint := matrix.Fingerprint()
	current, err := GetSystemSetting(ctx, db, PermissionFingerprintSetting)
	if err != nil {
		return err
	}
	if current == fingerprint {
		return nil
	}

	if err := permissions.Sync(ctx, db, matrix); err != nil {
		return err
	}

	return UpsertSystemSetting(ctx, db, PermissionFingerprintSetting, fingerprint)
}
