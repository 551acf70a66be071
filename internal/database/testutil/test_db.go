// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kdufoot/kdufoot/internal/database"
	"github.com/kdufoot/kdufoot/internal/permissions"
)

// Option adjusts OpenDB.
type Option func(*options)

type options struct {
	migrate bool
	matrix  *permissions.Matrix
}

// Migrate applies the schema.
func Migrate() Option {
	return func(o *options) { o.migrate = true }
}

// Seed applies the schema and persists the default catalog and tier grants.
func Seed() Option {
	return func(o *options) {
		o.migrate = true
		o.matrix = permissions.DefaultMatrix()
	}
}

// OpenDB returns a private in-memory SQLite handle closed on test cleanup.
func OpenDB(t testing.TB, opts ...Option) *gorm.DB {
	t.Helper()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	switch {
	case o.matrix != nil:
		require.NoError(t, database.AutoMigrateAndSeed(context.Background(), db, o.matrix))
	case o.migrate:
		require.NoError(t, database.AutoMigrate(db))
	}
	return db
}
