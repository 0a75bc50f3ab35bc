package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/annel0/block-engine/internal/block"
	"github.com/dgraph-io/badger/v3"
)

// BadgerStore хранит список семейств одним ключом и каждую пару uri→id отдельным ключом
type BadgerStore struct {
	db     *badger.DB
	prefix string
}

// NewBadgerStore открывает БД в каталоге dataPath/registry
func NewBadgerStore(dataPath, prefix string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Join(dataPath, "registry"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &BadgerStore{db: db, prefix: prefix}, nil
}

func (s *BadgerStore) familiesKey() []byte { return []byte(s.prefix + "mapping/families") }
func (s *BadgerStore) idPrefix() []byte    { return []byte(s.prefix + "mapping/id/") }

func (s *BadgerStore) Load(ctx context.Context) (*block.PersistedMapping, error) {
	m := &block.PersistedMapping{IDs: make(map[string]block.BlockID)}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.familiesKey())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoMapping
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m.Families)
		}); err != nil {
			return fmt.Errorf("повреждён список семейств: %w", err)
		}

		prefix := s.idPrefix()
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			uri := string(item.Key()[len(prefix):])
			if err := item.Value(func(val []byte) error {
				if len(val) != 2 {
					return fmt.Errorf("некорректное значение id для %s", uri)
				}
				m.IDs[uri] = block.BlockID(binary.BigEndian.Uint16(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Save заменяет сохранённую таблицу целиком в одной транзакции
func (s *BadgerStore) Save(ctx context.Context, m *block.PersistedMapping) error {
	families, err := json.Marshal(m.Families)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		prefix := s.idPrefix()
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var stale [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}

		if err := txn.Set(s.familiesKey(), families); err != nil {
			return err
		}
		for _, uri := range sortedKeys(m.IDs) {
			val := make([]byte, 2)
			binary.BigEndian.PutUint16(val, uint16(m.IDs[uri]))
			if err := txn.Set(append(append([]byte(nil), prefix...), uri...), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
