package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/kdufoot/kdufoot/internal/cache"
	"github.com/kdufoot/kdufoot/internal/database/testutil"
	"github.com/kdufoot/kdufoot/internal/models"
)

func TestDatabaseStoreIncrementWithTTL(t *testing.T) {
	db := testutil.OpenDB(t, testutil.Migrate())
	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "quota:u1:sessions:adapt:2026-10", time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 2)

	count, ttl, err = store.IncrementWithTTL(ctx, "quota:u1:sessions:adapt:2026-10", 10*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.LessOrEqual(t, ttl, time.Hour)

	value, ok, err := store.Get(ctx, "quota:u1:sessions:adapt:2026-10")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", string(value))
}

func TestDatabaseStoreSetGetDelete(t *testing.T) {
	db := testutil.OpenDB(t, testutil.Migrate())
	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "plans", []byte("v1"), time.Minute))
	require.NoError(t, store.Set(ctx, "plans", []byte("v2"), time.Minute))

	value, ok, err := store.Get(ctx, "plans")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), value)

	require.NoError(t, store.Delete(ctx, "plans"))
	_, ok, err = store.Get(ctx, "plans")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	db := testutil.OpenDB(t, testutil.Migrate())
	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.CacheEntry{Key: "old", Value: []byte("1"), ExpiresAt: past}).Error)
	require.NoError(t, store.Set(ctx, "fresh", []byte("1"), time.Hour))
	require.NoError(t, store.Set(ctx, "forever", []byte("1"), 0))

	removed, err := store.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&remaining).Error)
	require.EqualValues(t, 2, remaining)
}

func TestNewDatabaseStoreNil(t *testing.T) {
	require.Nil(t, cache.NewDatabaseStore(nil))
}

func TestDatabaseStoreQuotesKeyColumn(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "kdufoot:secret@tcp(127.0.0.1:3306)/kdufoot?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var statements []string
	capture := func(tx *gorm.DB) { statements = append(statements, tx.Statement.SQL.String()) }
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	require.NoError(t, db.Callback().Delete().After("gorm:delete").Register("test:capture_delete", capture))

	store := cache.NewDatabaseStore(db)
	ctx := context.Background()

	_, _, err = store.Get(ctx, "quota:auth0|a:videos:analyze:2026-10-17")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "a", "b"))

	require.Len(t, statements, 2)
	require.Contains(t, statements[0], "WHERE `key` = ?")
	require.Contains(t, statements[1], "`key` IN (?,?)")
}
