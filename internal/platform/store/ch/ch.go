// Package ch provides a clickhouse client on top of clickhouse-go
package ch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures the clickhouse client
type Config struct {
	URL        string
	ClientName string
	ClientTag  string
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// CH wraps a native clickhouse connection
type CH struct {
	conn driver.Conn
}

var openConn = clickhouse.Open

// Open parses the dsn and opens a native connection
func Open(_ context.Context, cfg Config) (*CH, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("clickhouse url is empty")
	}
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid clickhouse url: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)
	conn, err := openConn(opts)
	if err != nil {
		return nil, err
	}
	return &CH{conn: conn}, nil
}

// InsertSQL builds the batch prefix for a table and column list
func InsertSQL(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
}

// Insert appends rows as one batch; an empty rows slice is a no-op
func (c *CH) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, InsertSQL(table, columns))
	if err != nil {
		return err
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			_ = batch.Abort()
			return fmt.Errorf("row %d has %d values, want %d", i, len(r), len(columns))
		}
		if err := batch.Append(r...); err != nil {
			_ = batch.Abort()
			return err
		}
	}
	return batch.Send()
}

// Query runs a select and returns its rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Ping checks the server answers
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes the connection
func (c *CH) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
