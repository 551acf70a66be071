package permissions

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kdufoot/kdufoot/internal/models"
)

func TestSyncPersistsCatalogAndGrants(t *testing.T) {
	db := setupPermissionTestDB(t)
	ctx := context.Background()

	require.NoError(t, Sync(ctx, db, DefaultMatrix()))
	// second run must upsert rather than duplicate
	require.NoError(t, Sync(ctx, db, DefaultMatrix()))

	var defs int64
	require.NoError(t, db.Model(&models.PermissionDefinition{}).Count(&defs).Error)
	require.EqualValues(t, len(All()), defs)

	var batch models.PermissionDefinition
	require.NoError(t, db.First(&batch, "id = ?", string(VideosAnalyzeBatch)).Error)
	require.Equal(t, "videos", batch.Module)
	var depends []string
	require.NoError(t, json.Unmarshal(batch.DependsOn, &depends))
	require.Equal(t, []string{string(VideosAnalyzeLong)}, depends)

	var ultime []models.TierPermission
	require.NoError(t, db.Where("tier = ?", string(TierUltime)).Find(&ultime).Error)
	require.Len(t, ultime, 19)

	var fresh int64
	require.NoError(t, db.Model(&models.TierPermission{}).
		Where("tier = ? AND inherited = ?", string(TierUltime), false).
		Count(&fresh).Error)
	require.EqualValues(t, 3, fresh)
}

func TestSyncRequiresDependencies(t *testing.T) {
	require.Error(t, Sync(context.Background(), nil, DefaultMatrix()))
	require.Error(t, Sync(context.Background(), setupPermissionTestDB(t), nil))
}

func setupPermissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.PermissionDefinition{},
		&models.TierPermission{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
