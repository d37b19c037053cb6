package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Entry struct {
	Key      string
	Value    string
	Revision int64
}

const getEntry = `
SELECT key, value, revision FROM ledger_kv WHERE key = ?
`

func (q *Queries) GetEntry(ctx context.Context, key string) (Entry, error) {
	row := q.db.QueryRowContext(ctx, getEntry, key)
	var e Entry
	err := row.Scan(&e.Key, &e.Value, &e.Revision)
	return e, err
}

const upsertEntry = `
INSERT INTO ledger_kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    revision = ledger_kv.revision + 1,
    updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertEntry(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertEntry, key, value)
	return err
}
