package persist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "claim:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "claim:1", []byte(`{"type":"direct"}`)))
	got, ok, err := s.Get(ctx, "claim:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"direct"}`, string(got))

	require.NoError(t, s.Set(ctx, "claim:1", []byte(`{"type":"multi"}`)))
	got, _, err = s.Get(ctx, "claim:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"multi"}`, string(got))

	require.NoError(t, s.Remove(ctx, "claim:1"))
	_, ok, err = s.Get(ctx, "claim:1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Remove(ctx, "claim:never-written"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(0))
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	value := []byte("abc")
	require.NoError(t, s.Set(context.Background(), "k", value))
	value[0] = 'x'

	got, _, _ := s.Get(context.Background(), "k")
	assert.Equal(t, "abc", string(got))
}

func TestSQLStore(t *testing.T) {
	s, err := NewSQLStore(setupTestDB(t), BackendSQLite, time.Hour)
	require.NoError(t, err)
	exerciseStore(t, s)
	assert.Equal(t, "sqlite", s.Name())
}

func TestSQLStoreExpiredRecordsAreGone(t *testing.T) {
	db := setupTestDB(t)
	s, err := NewSQLStore(db, BackendSQLite, time.Hour)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Create(&StateRecord{Key: "claim:old", Value: []byte("{}"), ExpiresAt: &past}).Error)

	_, ok, err := s.Get(context.Background(), "claim:old")
	require.NoError(t, err)
	assert.False(t, ok)

	var count int64
	db.Model(&StateRecord{}).Count(&count)
	assert.Zero(t, count)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{Backend: "memory"})
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, s.Name())

	_, err = Open(Config{Backend: "redis"})
	assert.Error(t, err, "redis backend needs a client")

	_, err = Open(Config{Backend: "etcd"})
	assert.Error(t, err)

	s, err = Open(Config{Backend: "sqlite", DSN: "file::memory:?cache=shared"})
	require.NoError(t, err)
	exerciseStore(t, s)
	assert.NoError(t, s.Close())
}
