package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/annel0/block-engine/internal/block"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// SQLStore хранит таблицу в MariaDB/MySQL или SQLite
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore driver "mysql" или "sqlite"
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != "mysql" && driver != "sqlite" {
		return nil, fmt.Errorf("неподдерживаемый SQL драйвер %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("нет соединения с %s: %w", driver, err)
	}

	s := &SQLStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS block_families (
			uri VARCHAR(255) NOT NULL PRIMARY KEY,
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS block_ids (
			uri VARCHAR(255) NOT NULL PRIMARY KEY,
			id INTEGER NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("миграция: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (*block.PersistedMapping, error) {
	m := &block.PersistedMapping{IDs: make(map[string]block.BlockID)}

	rows, err := s.db.QueryContext(ctx, `SELECT uri FROM block_families ORDER BY position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			rows.Close()
			return nil, err
		}
		m.Families = append(m.Families, uri)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT uri, id FROM block_ids`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			uri string
			id  int
		)
		if err := rows.Scan(&uri, &id); err != nil {
			return nil, err
		}
		m.IDs[uri] = block.BlockID(id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if m.IsEmpty() {
		return nil, ErrNoMapping
	}
	return m, nil
}

func (s *SQLStore) Save(ctx context.Context, m *block.PersistedMapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM block_families`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM block_ids`); err != nil {
		return err
	}
	for i, uri := range m.Families {
		if _, err := tx.ExecContext(ctx, `INSERT INTO block_families (uri, position) VALUES (?, ?)`, uri, i); err != nil {
			return err
		}
	}
	for _, uri := range sortedKeys(m.IDs) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO block_ids (uri, id) VALUES (?, ?)`, uri, int(m.IDs[uri])); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
