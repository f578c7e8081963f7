package repo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"crimecast/internal/core/ranges"
	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/store"
	"crimecast/internal/services/predict/domain"
)

// CH is the ClickHouse flavour of domain.WarehouseRepo
//
// Expected column types: date_id Date, every integer column Int32, district_id String,
// crime_count_predicted Float64, the rest String
type CH struct {
	c    store.Clickhouse
	fact string
}

// NewCH returns a ClickHouse repo over c
func NewCH(c store.Clickhouse, factTable string) *CH {
	if factTable == "" {
		factTable = DefaultFactTable
	}
	return &CH{c: c, fact: factTable}
}

// ExistingDates scans the span of dates and keeps the requested ones
func (r *CH) ExistingDates(ctx context.Context, dates []time.Time) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	want := make(map[time.Time]struct{}, len(dates))
	lo, hi := ranges.DateOf(dates[0]), ranges.DateOf(dates[0])
	for _, d := range dates {
		d = ranges.DateOf(d)
		want[d] = struct{}{}
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	rows, err := r.c.Query(ctx, `SELECT DISTINCT date_id FROM dim_date WHERE date_id BETWEEN ? AND ?`, lo, hi)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "read dim_date")
	}
	found, err := store.Collect(rows, func(row store.Row) (time.Time, error) {
		var d time.Time
		err := row.Scan(&d)
		return ranges.DateOf(d), err
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan dim_date")
	}
	out := found[:0]
	for _, d := range found {
		if _, ok := want[d]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// InsertDates appends dim_date rows
func (r *CH) InsertDates(ctx context.Context, rows []domain.DateRow) (int, error) {
	return r.insert(ctx, domain.DimDate, DateColumns, dateValues(rows))
}

// ExistingHours returns the time_id values present in dim_time
func (r *CH) ExistingHours(ctx context.Context) ([]int, error) {
	rows, err := r.c.Query(ctx, `SELECT DISTINCT time_id FROM dim_time`)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "read dim_time")
	}
	out, err := store.Collect(rows, func(row store.Row) (int, error) {
		var h int32
		err := row.Scan(&h)
		return int(h), err
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan dim_time")
	}
	slices.Sort(out)
	return out, nil
}

// InsertHours appends dim_time rows
func (r *CH) InsertHours(ctx context.Context, rows []domain.TimeRow) (int, error) {
	return r.insert(ctx, domain.DimTime, TimeColumns, timeValues(rows))
}

// AppendPredictions appends rows to a prediction table
func (r *CH) AppendPredictions(ctx context.Context, table string, rows []domain.PredictionRow) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	return r.insert(ctx, table, PredictionColumns, predictionValues(rows, func(id string) any { return id }))
}

// LastFactTime returns the latest observed hour in the fact table
func (r *CH) LastFactTime(ctx context.Context) (time.Time, error) {
	rows, err := r.c.Query(ctx, fmt.Sprintf(
		"SELECT date_id, time_id FROM %s ORDER BY date_id DESC, time_id DESC LIMIT 1", quoteCH(r.fact)))
	if err != nil {
		return time.Time{}, perr.Wrapf(err, perr.ErrorCodeDB, "read %s cursor", r.fact)
	}
	out, err := store.Collect(rows, func(row store.Row) (time.Time, error) {
		var (
			d time.Time
			h int32
		)
		err := row.Scan(&d, &h)
		return factTime(d, int(h)), err
	})
	if err != nil {
		return time.Time{}, perr.Wrapf(err, perr.ErrorCodeDB, "scan %s cursor", r.fact)
	}
	if len(out) == 0 {
		return time.Time{}, perr.NotFoundf("%s has no rows", r.fact)
	}
	return out[0], nil
}

func (r *CH) insert(ctx context.Context, table string, cols []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := r.c.Insert(ctx, quoteCH(table), cols, rows); err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "insert %s", table)
	}
	return len(rows), nil
}

// quoteCH backquotes an identifier
func quoteCH(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '`')
	for i := 0; i < len(name); i++ {
		if name[i] == '`' || name[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, name[i])
	}
	return string(append(out, '`'))
}
