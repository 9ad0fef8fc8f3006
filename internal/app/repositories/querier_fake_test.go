package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow scans the next scripted result into dest
type fakeRow struct {
	scan func(dest ...interface{}) error
}

func (r fakeRow) Scan(dest ...interface{}) error { return r.scan(dest...) }

func rowErr(err error) fakeRow {
	return fakeRow{scan: func(...interface{}) error { return err }}
}

func rowBool(v bool) fakeRow {
	return fakeRow{scan: func(dest ...interface{}) error {
		*dest[0].(*bool) = v
		return nil
	}}
}

type execResult struct {
	tag pgconn.CommandTag
	err error
}

// fakeTx replays scripted Exec and QueryRow results in order and records
// how the transaction ended. Methods not overridden panic via the nil Tx.
type fakeTx struct {
	pgx.Tx
	execs      []execResult
	rows       []fakeRow
	statements []string
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	t.statements = append(t.statements, sql)
	if len(t.execs) == 0 {
		return pgconn.CommandTag{}, errors.New("unexpected exec: " + sql)
	}
	next := t.execs[0]
	t.execs = t.execs[1:]
	return next.tag, next.err
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, _ ...interface{}) pgx.Row {
	t.statements = append(t.statements, sql)
	if len(t.rows) == 0 {
		return rowErr(errors.New("unexpected query: " + sql))
	}
	next := t.rows[0]
	t.rows = t.rows[1:]
	return next
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

// fakeQuerier hands out tx on Begin; reads outside a transaction use rows.
type fakeQuerier struct {
	tx   *fakeTx
	rows []fakeRow
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected exec: " + sql)
}

func (q *fakeQuerier) Query(_ context.Context, sql string, _ ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("unexpected query: " + sql)
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, _ ...interface{}) pgx.Row {
	if len(q.rows) == 0 {
		return rowErr(errors.New("unexpected query: " + sql))
	}
	next := q.rows[0]
	q.rows = q.rows[1:]
	return next
}

func (q *fakeQuerier) Begin(context.Context) (pgx.Tx, error) {
	return q.tx, nil
}
