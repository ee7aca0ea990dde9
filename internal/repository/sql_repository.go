package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLBackend keeps the document as one row of the documents table. It works
// with any sqlx driver whose dialect supports INSERT ... ON CONFLICT
// (PostgreSQL through lib/pq, SQLite through modernc.org/sqlite).
type SQLBackend struct {
	db   *sqlx.DB
	name string
}

// NewSQLBackend creates a backend storing the document under name
func NewSQLBackend(db *sqlx.DB, name string) *SQLBackend {
	return &SQLBackend{
		db:   db,
		name: name,
	}
}

// GetDB returns the underlying database connection
func (r *SQLBackend) GetDB() *sqlx.DB {
	return r.db
}

func (r *SQLBackend) Fetch(ctx context.Context) ([]byte, error) {
	query := r.db.Rebind(`SELECT body FROM documents WHERE name = ?`)

	var body string
	err := r.db.GetContext(ctx, &body, query, r.name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	return []byte(body), nil
}

func (r *SQLBackend) Put(ctx context.Context, data []byte) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	query := r.db.Rebind(`
		INSERT INTO documents (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`)

	_, err = tx.ExecContext(ctx, query, r.name, string(data), time.Now().UTC())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SQLBackend) Close() error {
	return r.db.Close()
}
