package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_Validation(t *testing.T) {
	_, err := Open(context.Background(), "sqlite", "")
	require.Error(t, err)

	_, err = Open(context.Background(), "oracle", "dsn")
	require.ErrorContains(t, err, "unsupported")
}

func TestOpenMemory_AppliesMigrations(t *testing.T) {
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)

	for _, table := range []string{"users", "refresh_tokens", "merchants", "stalls", "dishes"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, db, "sqlite"))
}

func TestOpenMemory_TranslatesUniqueViolation(t *testing.T) {
	db, err := OpenMemory(context.Background())
	require.NoError(t, err)

	insert := "INSERT INTO users (username, password_hash) VALUES (?, ?)"
	require.NoError(t, db.Exec(insert, "alice", "h").Error)

	err = db.Exec(insert, "alice", "h2").Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOpen_ExternalDatabase(t *testing.T) {
	dsn := os.Getenv("CAMPUS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CAMPUS_TEST_DATABASE_URL is required for tests")
	}
	driver := os.Getenv("CAMPUS_TEST_DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}

	ctx := context.Background()
	db, err := Open(ctx, driver, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, Migrate(ctx, db, driver))
	assert.True(t, db.Migrator().HasTable("refresh_tokens"))
}
