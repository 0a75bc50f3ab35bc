package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/annel0/block-engine/internal/block"
	"github.com/go-redis/redis/v8"
)

// RedisConfig параметры подключения к Redis
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore список семейств хранится в списке, таблица id в хэше
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, cfg *RedisConfig) (*RedisStore, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "blocks:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) familiesKey() string { return s.prefix + "families" }
func (s *RedisStore) idsKey() string      { return s.prefix + "ids" }

func (s *RedisStore) Load(ctx context.Context) (*block.PersistedMapping, error) {
	families, err := s.client.LRange(ctx, s.familiesKey(), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	raw, err := s.client.HGetAll(ctx, s.idsKey()).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	m := &block.PersistedMapping{Families: families, IDs: make(map[string]block.BlockID, len(raw))}
	for uri, v := range raw {
		id, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("некорректный id для %s: %w", uri, err)
		}
		m.IDs[uri] = block.BlockID(id)
	}
	if m.IsEmpty() {
		return nil, ErrNoMapping
	}
	return m, nil
}

func (s *RedisStore) Save(ctx context.Context, m *block.PersistedMapping) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.familiesKey(), s.idsKey())
		if len(m.Families) > 0 {
			vals := make([]interface{}, len(m.Families))
			for i, f := range m.Families {
				vals[i] = f
			}
			p.RPush(ctx, s.familiesKey(), vals...)
		}
		if len(m.IDs) > 0 {
			fields := make(map[string]interface{}, len(m.IDs))
			for uri, id := range m.IDs {
				fields[uri] = int(id)
			}
			p.HSet(ctx, s.idsKey(), fields)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
