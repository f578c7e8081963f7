// Package repo provides warehouse access for the prediction pipeline
package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crimecast/internal/core/ranges"
	"crimecast/internal/modkit/repokit"
	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/store"
	"crimecast/internal/services/predict/domain"

	"github.com/jackc/pgx/v5"
)

// Column lists in table order
var (
	DateColumns       = []string{"date_id", "year", "month", "day", "day_of_week", "quarter"}
	TimeColumns       = []string{"time_id", "hour", "am_pm", "period_of_day"}
	PredictionColumns = []string{"date_id", "time_id", "district_id", "crime_count_predicted", "model_name"}
)

// DefaultFactTable holds the observed hourly counts
const DefaultFactTable = "fact_crime_hourly"

// insertChunk bounds rows per multi-row INSERT when COPY is not available
const insertChunk = 500

type (
	// PG is a Postgres binder for domain.WarehouseRepo
	PG struct {
		FactTable string
	}
	queries struct {
		q    repokit.Queryer
		fact string
	}
)

// NewPG returns a Postgres binder for domain.WarehouseRepo
func NewPG(factTable string) repokit.Binder[domain.WarehouseRepo] {
	return PG{FactTable: factTable}
}

// Bind implements repokit.Binder
func (b PG) Bind(q repokit.Queryer) domain.WarehouseRepo {
	fact := b.FactTable
	if fact == "" {
		fact = DefaultFactTable
	}
	return &queries{q: q, fact: fact}
}

// ExistingDates returns which of dates already exist in dim_date
func (r *queries) ExistingDates(ctx context.Context, dates []time.Time) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	out, err := store.Many(ctx, r.q, func(row repokit.Row) (time.Time, error) {
		var d time.Time
		err := row.Scan(&d)
		return ranges.DateOf(d), err
	}, `SELECT date_id FROM dim_date WHERE date_id = ANY($1::date[])`, dates)
	return out, perr.FromPostgres(err, "read dim_date")
}

// InsertDates appends dim_date rows
func (r *queries) InsertDates(ctx context.Context, rows []domain.DateRow) (int, error) {
	n, err := r.insert(ctx, domain.DimDate, DateColumns, dateValues(rows))
	return n, perr.FromPostgres(err, "insert dim_date")
}

// ExistingHours returns the time_id values present in dim_time
func (r *queries) ExistingHours(ctx context.Context) ([]int, error) {
	out, err := store.Many(ctx, r.q, func(row repokit.Row) (int, error) {
		var h int64
		err := row.Scan(&h)
		return int(h), err
	}, `SELECT time_id FROM dim_time`)
	return out, perr.FromPostgres(err, "read dim_time")
}

// InsertHours appends dim_time rows
func (r *queries) InsertHours(ctx context.Context, rows []domain.TimeRow) (int, error) {
	n, err := r.insert(ctx, domain.DimTime, TimeColumns, timeValues(rows))
	return n, perr.FromPostgres(err, "insert dim_time")
}

// AppendPredictions appends rows to a prediction table
func (r *queries) AppendPredictions(ctx context.Context, table string, rows []domain.PredictionRow) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	vals := predictionValues(rows, districtValue)
	n, err := r.insert(ctx, table, PredictionColumns, vals)
	return n, perr.FromPostgresf(err, "append %s", table)
}

// LastFactTime returns the latest observed hour in the fact table
func (r *queries) LastFactTime(ctx context.Context) (time.Time, error) {
	sql := fmt.Sprintf(`SELECT date_id, time_id FROM %s ORDER BY date_id DESC, time_id DESC LIMIT 1`,
		pgx.Identifier{r.fact}.Sanitize())
	var (
		d time.Time
		h int64
	)
	if err := r.q.QueryRow(ctx, sql).Scan(&d, &h); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, perr.NotFoundf("%s has no rows", r.fact)
		}
		return time.Time{}, perr.FromPostgresf(err, "read %s cursor", r.fact)
	}
	return factTime(d, int(h)), nil
}

// insert bulk loads through COPY when the queryer supports it, else multi-row INSERTs
func (r *queries) insert(ctx context.Context, table string, cols []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if c, ok := repokit.CopierOf(r.q); ok {
		n, err := c.CopyFrom(ctx, table, cols, rows)
		return int(n), err
	}
	total := 0
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		sql, args := insertSQL(table, cols, rows[start:end])
		tag, err := r.q.Exec(ctx, sql, args...)
		if err != nil {
			return total, err
		}
		total += int(tag.RowsAffected())
	}
	return total, nil
}

// insertSQL renders a multi-row INSERT with positional placeholders
func insertSQL(table string, cols []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{table}.Sanitize())
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")
	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(len(args)))
		}
		b.WriteByte(')')
	}
	return b.String(), args
}

// districtValue keeps numeric district ids numeric
func districtValue(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func checkTable(table string) error {
	if strings.TrimSpace(table) == "" {
		return perr.InvalidArgf("destination table is empty")
	}
	return nil
}

func factTime(d time.Time, hour int) time.Time {
	return ranges.DateOf(d).Add(time.Duration(hour) * time.Hour)
}
