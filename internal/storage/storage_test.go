package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMapping() *block.PersistedMapping {
	return &block.PersistedMapping{
		Families: []string{"core:stone", "core:torch", "core:cobblestone"},
		IDs: map[string]block.BlockID{
			"core:stone":                    1,
			"core:torch.front":              2,
			"core:torch.left":               3,
			"core:cobblestone:engine:stair": 9,
		},
	}
}

// roundTrip общая проверка для всех реализаций
func roundTrip(t *testing.T, s MappingStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNoMapping)

	require.NoError(t, s.Save(ctx, sampleMapping()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleMapping().Families, got.Families)
	assert.Equal(t, sampleMapping().IDs, got.IDs)

	// повторное сохранение полностью заменяет таблицу
	next := &block.PersistedMapping{
		Families: []string{"core:dirt"},
		IDs:      map[string]block.BlockID{"core:dirt": 4},
	}
	require.NoError(t, s.Save(ctx, next))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.Families, got.Families)
	assert.Equal(t, next.IDs, got.IDs)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	roundTrip(t, s)

	// возвращается копия
	m, err := s.Load(context.Background())
	require.NoError(t, err)
	m.IDs["core:dirt"] = 100
	again, _ := s.Load(context.Background())
	assert.Equal(t, block.BlockID(4), again.IDs["core:dirt"])
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir(), "")
	require.NoError(t, err)
	defer s.Close()
	roundTrip(t, s)
}

func TestBadgerStorePrefixIsolation(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBadgerStore(dir, "a/")
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sampleMapping()))
	require.NoError(t, s.Close())

	other, err := NewBadgerStore(dir, "b/")
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoMapping)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	assert.Equal(t, filepath.Join(dir, "registry.json.zst"), s.Path())
	roundTrip(t, s)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "временный файл должен быть удалён")
}

func TestFileStoreCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o644))
	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMapping)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLStore(context.Background(), "sqlite", filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	defer s.Close()
	roundTrip(t, s)
}

func TestSQLStoreUnknownDriver(t *testing.T) {
	_, err := NewSQLStore(context.Background(), "postgres", "")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("BLOCK_TEST_REDIS")
	if addr == "" {
		t.Skip("BLOCK_TEST_REDIS не задан")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := NewRedisStore(ctx, &RedisConfig{Addr: addr, KeyPrefix: "test:" + t.Name() + ":"})
	if err != nil {
		t.Skipf("Redis недоступен: %v", err)
	}
	defer s.Close()
	defer s.client.Del(context.Background(), s.familiesKey(), s.idsKey())
	roundTrip(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("BLOCK_TEST_MONGO")
	if uri == "" {
		t.Skip("BLOCK_TEST_MONGO не задан")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: "blocks_test", Collection: t.Name()})
	if err != nil {
		t.Skipf("MongoDB недоступен: %v", err)
	}
	defer s.Close()
	defer s.coll.Drop(context.Background())
	roundTrip(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Driver: "file", Path: filepath.Join(t.TempDir(), "x.zst")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(ctx, config.StorageConfig{Driver: "floppy"})
	assert.Error(t, err)
}
