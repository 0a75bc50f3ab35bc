// Package storage сохраняет состояние реестра блоков (список семейств и
// таблицу uri→id) между сессиями.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/config"
)

// ErrNoMapping в хранилище ещё нет сохранённой таблицы
var ErrNoMapping = errors.New("сохранённая таблица id отсутствует")

// MappingStore хранилище состояния реестра
type MappingStore interface {
	// Load возвращает ErrNoMapping, если ничего не сохранено
	Load(ctx context.Context) (*block.PersistedMapping, error)
	Save(ctx context.Context, m *block.PersistedMapping) error
	Close() error
}

// Open создаёт хранилище по конфигурации
func Open(ctx context.Context, cfg config.StorageConfig) (MappingStore, error) {
	switch cfg.Driver {
	case "", "badger":
		return NewBadgerStore(cfg.Path, cfg.KeyPrefix)
	case "file":
		return NewFileStore(cfg.Path), nil
	case "mysql", "sqlite":
		return NewSQLStore(ctx, cfg.Driver, cfg.DSN)
	case "redis":
		return NewRedisStore(ctx, &RedisConfig{Addr: cfg.DSN, KeyPrefix: cfg.KeyPrefix})
	case "mongo":
		return NewMongoStore(ctx, MongoConfig{URI: cfg.DSN, Database: cfg.Database})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища %q", cfg.Driver)
	}
}

// MemoryStore хранит таблицу в памяти процесса
type MemoryStore struct {
	mu sync.RWMutex
	m  *block.PersistedMapping
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load(context.Context) (*block.PersistedMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.m == nil {
		return nil, ErrNoMapping
	}
	return cloneMapping(s.m), nil
}

func (s *MemoryStore) Save(_ context.Context, m *block.PersistedMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = cloneMapping(m)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneMapping(m *block.PersistedMapping) *block.PersistedMapping {
	out := &block.PersistedMapping{
		Families: append([]string(nil), m.Families...),
		IDs:      make(map[string]block.BlockID, len(m.IDs)),
	}
	for k, v := range m.IDs {
		out.IDs[k] = v
	}
	return out
}

// sortedKeys возвращает uri таблицы в лексикографическом порядке
func sortedKeys(ids map[string]block.BlockID) []string {
	keys := make([]string, 0, len(ids))
	for k := range ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
