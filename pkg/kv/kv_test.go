package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/nutritrack-backend/pkg/config"
	"github.com/angelmondragon/nutritrack-backend/pkg/db/models"
	"github.com/angelmondragon/nutritrack-backend/pkg/redis"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "notifications")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "notifications", `[{"id":"a"}]`))
	value, ok, err := store.Get(ctx, "notifications")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, value)

	require.NoError(t, store.Set(ctx, "notifications", `[]`))
	value, ok, err = store.Get(ctx, "notifications")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, value)

	require.NoError(t, store.Delete(ctx, "notifications"))
	_, ok, err = store.Get(ctx, "notifications")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, "missing"))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	store, err := NewFile(dir)
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "notifications:../user", "x"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notifications___user.json", entries[0].Name())
}

func TestNewFileRequiresDir(t *testing.T) {
	_, err := NewFile("  ")
	assert.Error(t, err)
}

func TestSQLStore(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&models.KVEntry{}))

	store, err := NewSQL(conn)
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	exerciseStore(t, store)
}

func TestNewSQLRequiresDB(t *testing.T) {
	_, err := NewSQL(nil)
	assert.Error(t, err)
}

type fakeRedis struct {
	data map[string]string
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return value, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeRedis) KVKey(key string) string { return "nt:kv:" + key }

func TestRedisStore(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}}
	store, err := NewRedis(fake)
	require.NoError(t, err)
	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), "k", "v"))
	assert.Equal(t, "v", fake.data["nt:kv:k"])
}

func TestScopedPrefixesKeys(t *testing.T) {
	inner := NewMemory()
	scoped := NewScoped(inner, "notifications")
	require.NoError(t, scoped.Set(context.Background(), "user-1", "x"))

	value, ok, err := inner.Get(context.Background(), "notifications:user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", value)

	exerciseStore(t, scoped)
}

func TestOpenSelectsBackend(t *testing.T) {
	store, err := Open(config.NotificationsConfig{Backend: "memory"}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	store, err = Open(config.NotificationsConfig{Backend: "FILE", FileDir: t.TempDir()}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &File{}, store)

	_, err = Open(config.NotificationsConfig{Backend: "redis"}, nil, nil)
	require.Error(t, err)

	_, err = Open(config.NotificationsConfig{Backend: "sql"}, nil, nil)
	require.Error(t, err)

	_, err = Open(config.NotificationsConfig{Backend: "etcd"}, nil, nil)
	require.Error(t, err)
}
