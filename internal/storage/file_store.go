package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/annel0/block-engine/internal/block"
	"github.com/klauspost/compress/zstd"
)

// FileStore хранит таблицу в сжатом zstd JSON-файле. Запись идёт
// во временный файл с последующим переименованием.
type FileStore struct {
	path string
}

// NewFileStore path: файл или каталог (тогда файл registry.json.zst внутри)
func NewFileStore(path string) *FileStore {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "registry.json.zst")
	}
	return &FileStore{path: path}
}

// Path возвращает путь к файлу
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (*block.PersistedMapping, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoMapping
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var m block.PersistedMapping
	if err := json.NewDecoder(dec).Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(s.path), err)
	}
	if m.IDs == nil {
		m.IDs = make(map[string]block.BlockID)
	}
	return &m, nil
}

func (s *FileStore) Save(ctx context.Context, m *block.PersistedMapping) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".registry-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		tmp.Close()
		return err
	}
	if err := json.NewEncoder(enc).Encode(m); err != nil {
		enc.Close()
		tmp.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Close() error { return nil }
