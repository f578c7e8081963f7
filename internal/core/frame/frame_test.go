package frame

import (
	"bytes"
	"math"
	"testing"
	"time"

	perr "crimecast/internal/platform/errors"
	kit "crimecast/internal/platform/testkit"
)

func idx(t *testing.T, hours ...string) []time.Time {
	out := make([]time.Time, len(hours))
	for i, h := range hours {
		out[i] = kit.Hour(t, h)
	}
	return out
}

func TestSetAndColumnsOrder(t *testing.T) {
	f := New(idx(t, "2024-01-01T00", "2024-01-01T01"))
	if err := f.Set("b", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := f.Set("a", []float64{3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := f.Set("b", []float64{5, 6}); err != nil {
		t.Fatal(err)
	}
	cols := f.Columns()
	if len(cols) != 2 || cols[0] != "b" || cols[1] != "a" {
		t.Fatalf("cols = %v", cols)
	}
	if v, _ := f.Col("b"); v[0] != 5 {
		t.Fatalf("b not replaced: %v", v)
	}
	if err := f.Set("c", []float64{1}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestSelectMissingIsValidation(t *testing.T) {
	f := New(idx(t, "2024-01-01T00"))
	f.Fill("a", 1)
	_, err := f.Select("a", "ghost")
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("got %v", err)
	}
	kit.MustContain(t, err.Error(), "ghost")
	if e, _ := perr.As(err); e.Field() != "ghost" {
		t.Fatalf("field = %q", e.Field())
	}
}

func TestSelectKeepsRequestedOrder(t *testing.T) {
	f := New(idx(t, "2024-01-01T00"))
	f.Fill("a", 1)
	f.Fill("b", 2)
	s, err := f.Select("b", "a")
	if err != nil {
		t.Fatal(err)
	}
	if r := s.Row(0); r[0] != 2 || r[1] != 1 {
		t.Fatalf("row = %v", r)
	}
}

func TestMissing(t *testing.T) {
	f := New(idx(t, "2024-01-01T00", "2024-01-01T01"))
	_ = f.Set("ok", []float64{1, 2})
	_ = f.Set("gap", []float64{math.NaN(), math.NaN()})
	m := f.Missing()
	if len(m) != 1 || m[0].Column != "gap" || m[0].Count != 2 {
		t.Fatalf("missing = %+v", m)
	}
}

func TestWriteCSV(t *testing.T) {
	f := New(idx(t, "2024-01-01T05"))
	_ = f.Set("hour_sin", []float64{0.5})
	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	want := "datetime,hour_sin\n2024-01-01 05:00:00,0.5\n"
	if buf.String() != want {
		t.Fatalf("got %q", buf.String())
	}
}
