package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/store"
	kit "crimecast/internal/platform/testkit"
	"crimecast/internal/services/predict/domain"
)

type fakeCH struct {
	result    *table
	queries   []string
	args      [][]any
	inserted  map[string][][]any
	insertErr error
}

func (f *fakeCH) Insert(_ context.Context, table string, _ []string, rows [][]any) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.inserted == nil {
		f.inserted = map[string][][]any{}
	}
	f.inserted[table] = append(f.inserted[table], rows...)
	return nil
}

func (f *fakeCH) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	if f.result == nil {
		return &table{}, nil
	}
	return f.result, nil
}

func (f *fakeCH) Close() error { return nil }

func TestCHExistingDatesFiltersSpan(t *testing.T) {
	f := &fakeCH{result: &table{data: [][]any{{day(2024, 1, 1)}, {day(2024, 1, 2)}, {day(2024, 1, 3)}}}}
	got, err := NewCH(f, "").ExistingDates(context.Background(), []time.Time{
		day(2024, 1, 3), time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].Equal(day(2024, 1, 1)) || !got[1].Equal(day(2024, 1, 3)) {
		t.Fatalf("got %v", got)
	}
	if lo := f.args[0][0].(time.Time); !lo.Equal(day(2024, 1, 1)) {
		t.Fatalf("lower bound %v", lo)
	}
}

func TestCHInsertsQuoteTable(t *testing.T) {
	f := &fakeCH{}
	r := NewCH(f, "")
	n, err := r.AppendPredictions(context.Background(), "prediction_test", []domain.PredictionRow{
		{DateID: day(2024, 1, 1), TimeID: 1, DistrictID: "7", Predicted: 0.5, ModelName: "ar"},
	})
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	rows := f.inserted["`prediction_test`"]
	if len(rows) != 1 || rows[0][2] != "7" {
		t.Fatalf("rows %v", f.inserted)
	}
}

func TestCHInsertError(t *testing.T) {
	r := NewCH(&fakeCH{insertErr: errors.New("boom")}, "")
	_, err := r.InsertHours(context.Background(), []domain.TimeRow{{TimeID: 1}})
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("got %v", err)
	}
}

func TestCHExistingHoursSorted(t *testing.T) {
	f := &fakeCH{result: &table{data: [][]any{{int32(5)}, {int32(1)}}}}
	got, err := NewCH(f, "").ExistingHours(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 5 {
		t.Fatalf("got %v", got)
	}
}

func TestCHLastFactTime(t *testing.T) {
	f := &fakeCH{result: &table{data: [][]any{{day(2024, 5, 1), int32(23)}}}}
	got, err := NewCH(f, "fact").LastFactTime(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)) {
		t.Fatalf("got %v", got)
	}
	kit.MustContain(t, f.queries[0], "FROM `fact`")

	_, err = NewCH(&fakeCH{}, "").LastFactTime(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("empty fact: %v", err)
	}
}

func TestQuoteCH(t *testing.T) {
	if got := quoteCH("a`b"); got != "`a\\`b`" {
		t.Fatalf("got %s", got)
	}
}
