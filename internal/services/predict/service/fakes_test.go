package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"crimecast/internal/core/forecast"
	perr "crimecast/internal/platform/errors"
	"crimecast/internal/services/predict/domain"
)

// memWarehouse is an in-memory warehouse that is also its own session
type memWarehouse struct {
	dates    map[time.Time]domain.DateRow
	hours    map[int]domain.TimeRow
	tables   map[string][]domain.PredictionRow
	lastFact time.Time
	ops      []string
	sessions int

	appendErr error
}

func newWarehouse() *memWarehouse {
	return &memWarehouse{
		dates:  map[time.Time]domain.DateRow{},
		hours:  map[int]domain.TimeRow{},
		tables: map[string][]domain.PredictionRow{},
	}
}

func (m *memWarehouse) Do(_ context.Context, fn func(domain.WarehouseRepo) error) error {
	m.sessions++
	return fn(m)
}

func (m *memWarehouse) ExistingDates(_ context.Context, dates []time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, d := range dates {
		if _, ok := m.dates[d]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memWarehouse) InsertDates(_ context.Context, rows []domain.DateRow) (int, error) {
	m.ops = append(m.ops, domain.DimDate)
	for _, r := range rows {
		if _, dup := m.dates[r.DateID]; dup {
			return 0, perr.Newf(perr.ErrorCodeDuplicateKey, "duplicate date %s", r.DateID)
		}
		m.dates[r.DateID] = r
	}
	return len(rows), nil
}

func (m *memWarehouse) ExistingHours(context.Context) ([]int, error) {
	var out []int
	for h := range m.hours {
		out = append(out, h)
	}
	return out, nil
}

func (m *memWarehouse) InsertHours(_ context.Context, rows []domain.TimeRow) (int, error) {
	m.ops = append(m.ops, domain.DimTime)
	for _, r := range rows {
		if _, dup := m.hours[r.TimeID]; dup {
			return 0, perr.Newf(perr.ErrorCodeDuplicateKey, "duplicate hour %d", r.TimeID)
		}
		m.hours[r.TimeID] = r
	}
	return len(rows), nil
}

func (m *memWarehouse) AppendPredictions(_ context.Context, table string, rows []domain.PredictionRow) (int, error) {
	m.ops = append(m.ops, table)
	if m.appendErr != nil {
		return 0, m.appendErr
	}
	m.tables[table] = append(m.tables[table], rows...)
	return len(rows), nil
}

func (m *memWarehouse) LastFactTime(context.Context) (time.Time, error) {
	if m.lastFact.IsZero() {
		return time.Time{}, perr.NotFoundf("no facts")
	}
	return m.lastFact, nil
}

type fakeArtifacts struct {
	paths     []string
	arts      map[string]domain.Artifact
	errs      map[string]error
	lastTrain time.Time
}

func (f *fakeArtifacts) Paths(context.Context) ([]string, error) { return f.paths, nil }

func (f *fakeArtifacts) Load(_ context.Context, path string) (domain.Artifact, error) {
	if err := f.errs[path]; err != nil {
		return domain.Artifact{}, err
	}
	return f.arts[path], nil
}

func (f *fakeArtifacts) LastTrainTime(context.Context) (time.Time, error) {
	if f.lastTrain.IsZero() {
		return time.Time{}, perr.NotFoundf("no artifacts")
	}
	return f.lastTrain, nil
}

func (f *fakeArtifacts) add(path string, a domain.Artifact) {
	if f.arts == nil {
		f.arts = map[string]domain.Artifact{}
	}
	a.Path = path
	f.paths = append(f.paths, path)
	f.arts[path] = a
}

func (f *fakeArtifacts) fail(path string, err error) {
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	f.paths = append(f.paths, path)
	f.errs[path] = err
}

type countRec struct {
	processed, skipped, failed int
	rows                       map[string]int
	dims                       map[string]int
}

func newRec() *countRec { return &countRec{rows: map[string]int{}, dims: map[string]int{}} }

func (c *countRec) ArtifactProcessed()                { c.processed++ }
func (c *countRec) ArtifactSkipped()                  { c.skipped++ }
func (c *countRec) ArtifactFailed()                   { c.failed++ }
func (c *countRec) RowsExported(table string, n int)  { c.rows[table] += n }
func (c *countRec) DimRowsInserted(dim string, n int) { c.dims[dim] += n }

type captureNotify struct {
	events []domain.ExportEvent
	err    error
}

func (c *captureNotify) Exported(_ context.Context, ev domain.ExportEvent) error {
	c.events = append(c.events, ev)
	return c.err
}

func model(t *testing.T, fam forecast.Family, raw string) forecast.Forecaster {
	t.Helper()
	m, err := forecast.Decode(fam, json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decode %s: %v", fam, err)
	}
	return m
}

func artifact(t *testing.T, fam forecast.Family, district string, raw string) domain.Artifact {
	t.Helper()
	return domain.Artifact{
		Family: forecast.Normalize(fam),
		Meta:   domain.Metadata{ModelName: "m-" + district, DistrictID: district},
		Model:  model(t, fam, raw),
	}
}
