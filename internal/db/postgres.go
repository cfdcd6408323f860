package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps documents as JSONB rows keyed by (collection, key)
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	pg := &Postgres{pool: pool}
	if err := pg.initialize(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return pg, nil
}

func (pg *Postgres) initialize(ctx context.Context) error {
	_, err := pg.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			seq        BIGSERIAL,
			collection TEXT  NOT NULL,
			key        TEXT  NOT NULL,
			doc        JSONB NOT NULL,
			PRIMARY KEY (collection, key)
		);
		CREATE INDEX IF NOT EXISTS idx_documents_collection_seq ON documents (collection, seq);
	`)
	return err
}

func (pg *Postgres) Close() error {
	pg.pool.Close()
	return nil
}

func (pg *Postgres) Insert(ctx context.Context, c Collection, key string, doc []byte) error {
	tag, err := pg.pool.Exec(ctx, `
		INSERT INTO documents (collection, key, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, string(c), key, string(doc))
	return rowsTouched(tag, err, ErrAlreadyExists)
}

func (pg *Postgres) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	var doc []byte
	err := pg.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND key = $2`,
		string(c), key,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (pg *Postgres) Update(ctx context.Context, c Collection, key string, doc []byte) error {
	tag, err := pg.pool.Exec(ctx,
		`UPDATE documents SET doc = $3 WHERE collection = $1 AND key = $2`,
		string(c), key, string(doc),
	)
	return rowsTouched(tag, err, ErrNotFound)
}

func (pg *Postgres) Delete(ctx context.Context, c Collection, key string) error {
	tag, err := pg.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND key = $2`,
		string(c), key,
	)
	return rowsTouched(tag, err, ErrNotFound)
}

func (pg *Postgres) List(ctx context.Context, c Collection) ([][]byte, error) {
	rows, err := pg.pool.Query(ctx,
		`SELECT doc FROM documents WHERE collection = $1 ORDER BY seq`,
		string(c),
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]byte, error) {
		var doc []byte
		err := row.Scan(&doc)
		return doc, err
	})
}

func (pg *Postgres) Count(ctx context.Context, c Collection) (int, error) {
	var count int
	err := pg.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = $1`,
		string(c),
	).Scan(&count)
	return count, err
}

func rowsTouched(tag pgconn.CommandTag, err error, errNone error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNone
	}
	return nil
}
