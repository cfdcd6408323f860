package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores every collection in one documents table
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (creating if needed) the database file at dbPath
func NewSQLite(dbPath string) (*SQLite, error) {
	// Enable WAL mode and other optimizations via connection string
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1) // SQLite works best with single writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &SQLite{conn: conn}

	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// initialize creates tables and indexes
func (db *SQLite) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		doc TEXT NOT NULL,
		UNIQUE (collection, key)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection_seq ON documents(collection, seq);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) Insert(ctx context.Context, c Collection, key string, doc []byte) error {
	query := `INSERT INTO documents (collection, key, doc) VALUES (?, ?, ?) ON CONFLICT (collection, key) DO NOTHING`
	result, err := db.conn.ExecContext(ctx, query, string(c), key, string(doc))
	if err != nil {
		return err
	}
	return affected(result, ErrAlreadyExists)
}

func (db *SQLite) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	query := `SELECT doc FROM documents WHERE collection = ? AND key = ?`

	var doc string
	err := db.conn.QueryRowContext(ctx, query, string(c), key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

func (db *SQLite) Update(ctx context.Context, c Collection, key string, doc []byte) error {
	query := `UPDATE documents SET doc = ? WHERE collection = ? AND key = ?`
	result, err := db.conn.ExecContext(ctx, query, string(doc), string(c), key)
	if err != nil {
		return err
	}
	return affected(result, ErrNotFound)
}

func (db *SQLite) Delete(ctx context.Context, c Collection, key string) error {
	query := `DELETE FROM documents WHERE collection = ? AND key = ?`
	result, err := db.conn.ExecContext(ctx, query, string(c), key)
	if err != nil {
		return err
	}
	return affected(result, ErrNotFound)
}

func (db *SQLite) List(ctx context.Context, c Collection) ([][]byte, error) {
	query := `SELECT doc FROM documents WHERE collection = ? ORDER BY seq`

	rows, err := db.conn.QueryContext(ctx, query, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, []byte(doc))
	}
	return docs, rows.Err()
}

func (db *SQLite) Count(ctx context.Context, c Collection) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE collection = ?", string(c)).Scan(&count)
	return count, err
}

// affected returns errNone when the statement touched no row
func affected(result sql.Result, errNone error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNone
	}
	return nil
}
