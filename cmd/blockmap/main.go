package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/config"
	"github.com/annel0/block-engine/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML конфигурация с секцией storage (или ENV BLOCK_CONFIG)")
		command    = flag.String("cmd", "dump", "Команда: dump, export, import, copy")
		file       = flag.String("file", "", "JSON файл для export/import (по умолчанию stdout/stdin)")
		toDriver   = flag.String("to-driver", "", "Драйвер хранилища назначения для copy")
		toPath     = flag.String("to-path", "", "Путь хранилища назначения для copy")
		toDSN      = flag.String("to-dsn", "", "DSN хранилища назначения для copy")
		timeout    = flag.Duration("timeout", 30*time.Second, "Таймаут операций с хранилищем")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	src, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища %s: %v", cfg.Storage.Driver, err)
	}
	defer src.Close()

	switch *command {
	case "dump":
		err = dump(ctx, src, os.Stdout)
	case "export":
		err = export(ctx, src, *file)
	case "import":
		err = importMapping(ctx, src, *file)
	case "copy":
		dst := config.StorageConfig{Driver: *toDriver, Path: *toPath, DSN: *toDSN, KeyPrefix: cfg.Storage.KeyPrefix, Database: cfg.Storage.Database}
		err = copyMapping(ctx, src, dst)
	default:
		err = fmt.Errorf("неизвестная команда %q", *command)
	}
	if err != nil {
		log.Fatalf("❌ %s: %v", *command, err)
	}
}

// dump печатает таблицу в читаемом виде, отсортированной по id
func dump(ctx context.Context, s storage.MappingStore, w io.Writer) error {
	m, err := s.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Семейства (%d):\n", len(m.Families))
	for _, f := range m.Families {
		fmt.Fprintf(w, "  %s\n", f)
	}

	type row struct {
		uri string
		id  block.BlockID
	}
	rows := make([]row, 0, len(m.IDs))
	for uri, id := range m.IDs {
		rows = append(rows, row{uri, id})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })

	fmt.Fprintf(w, "Блоки (%d):\n", len(rows))
	for _, r := range rows {
		fmt.Fprintf(w, "  %5d  %s\n", r.id, r.uri)
	}
	return nil
}

func export(ctx context.Context, s storage.MappingStore, path string) error {
	m, err := s.Load(ctx)
	if err != nil {
		return err
	}
	out := io.Writer(os.Stdout)
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func importMapping(ctx context.Context, s storage.MappingStore, path string) error {
	in := io.Reader(os.Stdin)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	var m block.PersistedMapping
	if err := json.NewDecoder(in).Decode(&m); err != nil {
		return fmt.Errorf("некорректный JSON: %w", err)
	}
	if err := validate(&m); err != nil {
		return err
	}
	if err := s.Save(ctx, &m); err != nil {
		return err
	}
	log.Printf("✅ Импортировано %d семейств, %d id", len(m.Families), len(m.IDs))
	return nil
}

func copyMapping(ctx context.Context, src storage.MappingStore, dstCfg config.StorageConfig) error {
	if dstCfg.Driver == "" {
		return fmt.Errorf("не указан -to-driver")
	}
	m, err := src.Load(ctx)
	if err != nil {
		return err
	}
	dst, err := storage.Open(ctx, dstCfg)
	if err != nil {
		return err
	}
	defer dst.Close()
	if err := dst.Save(ctx, m); err != nil {
		return err
	}
	log.Printf("✅ Скопировано в %s: %d семейств, %d id", dstCfg.Driver, len(m.Families), len(m.IDs))
	return nil
}

// validate отклоняет таблицы с неразбираемыми uri, служебными или повторяющимися id
func validate(m *block.PersistedMapping) error {
	for _, f := range m.Families {
		if _, err := block.ParseURI(f); err != nil {
			return err
		}
	}
	owners := make(map[block.BlockID]string, len(m.IDs))
	ids := make(map[string]block.BlockID, len(m.IDs))
	for key, id := range m.IDs {
		parsed, err := block.ParseURI(key)
		if err != nil {
			return err
		}
		if id < block.MinID || id > block.MaxID {
			return fmt.Errorf("id %d для %s вне диапазона %d..%d", id, key, block.MinID, block.MaxID)
		}
		// реестр читает ключи без формы куба
		uri := parsed.Shapeless().String()
		if prev, seen := ids[uri]; seen {
			if prev != id {
				return fmt.Errorf("блок %s записан дважды: id %d и %d", uri, prev, id)
			}
			continue
		}
		if prev, dup := owners[id]; dup {
			return fmt.Errorf("id %d выдан и %s, и %s", id, prev, uri)
		}
		ids[uri] = id
		owners[id] = uri
	}
	return nil
}
