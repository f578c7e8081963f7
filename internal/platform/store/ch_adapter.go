package store

import (
	"context"
	"errors"
	"time"

	"crimecast/internal/platform/store/ch"
	"crimecast/internal/platform/store/pg"
)

// chConn is the subset of *ch.CH the adapter needs
type chConn interface {
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

func newCHAdapter(c chConn, tracer pg.QueryTracer) Clickhouse {
	return &clickhouseAdapter{inner: c, tracer: tracer}
}

// clickhouseAdapter adapts *ch.CH to the store.Clickhouse interface
type clickhouseAdapter struct {
	inner  chConn
	tracer pg.QueryTracer
}

var _ Clickhouse = (*clickhouseAdapter)(nil)

func (a *clickhouseAdapter) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	start := time.Now()
	err := a.inner.Insert(ctx, table, columns, rows)
	a.emit(ctx, ch.InsertSQL(table, columns), nil, int64(len(rows)), start, err)
	return err
}

func (a *clickhouseAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	r, err := a.inner.Query(ctx, sql, args...)
	a.emit(ctx, sql, args, 0, start, err)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{r: r}, nil
}

func (a *clickhouseAdapter) Close() error { return a.inner.Close() }

// Ping verifies connectivity with ClickHouse
func (a *clickhouseAdapter) Ping(ctx context.Context) error {
	if a == nil || a.inner == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.inner.Ping(ctx)
}

func (a *clickhouseAdapter) emit(ctx context.Context, sql string, args []any, n int64, start time.Time, err error) {
	if a.tracer == nil {
		return
	}
	a.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		Rows:      n,
		ElapsedUS: time.Since(start).Microseconds(),
		Err:       err,
	})
}

// rowsAdapter wraps ch.Rows as store.Rows
type rowsAdapter struct {
	r ch.Rows
}

func (r *rowsAdapter) Next() bool             { return r.r.Next() }
func (r *rowsAdapter) Scan(dest ...any) error { return r.r.Scan(dest...) }
func (r *rowsAdapter) Err() error             { return r.r.Err() }
func (r *rowsAdapter) Close()                 { _ = r.r.Close() }
func (r *rowsAdapter) Columns() []string      { return r.r.Columns() }
