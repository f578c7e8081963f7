package ranges

import (
	"sort"
	"testing"
	"time"

	perr "crimecast/internal/platform/errors"
	kit "crimecast/internal/platform/testkit"
)

func TestHourlyInclusive(t *testing.T) {
	r := Hourly(kit.Hour(t, "2024-01-01T22"), kit.Hour(t, "2024-01-02T01"))
	if r.Len() != 4 {
		t.Fatalf("len = %d", r.Len())
	}
	if !r.End().Equal(kit.Hour(t, "2024-01-02T01")) {
		t.Fatalf("end = %v", r.End())
	}
	if len(r.Dates()) != 2 {
		t.Fatalf("dates = %v", r.Dates())
	}
	if Hourly(r.End(), r.Start()) != nil {
		t.Fatal("reversed range should be empty")
	}
}

func TestComputeExample(t *testing.T) {
	// trained through 2023-12-31T23, observed through 2024-01-01T02
	rs, err := Compute(kit.Hour(t, "2023-12-31T23"), kit.Hour(t, "2024-01-01T02"))
	if err != nil {
		t.Fatal(err)
	}
	if rs.Test.Len() != 3 || rs.Future.Len() != 3 || rs.Full.Len() != 6 {
		t.Fatalf("lens %d %d %d", rs.Test.Len(), rs.Future.Len(), rs.Full.Len())
	}
	if !rs.Test.Start().Equal(kit.Hour(t, "2024-01-01T00")) {
		t.Fatalf("test start = %v", rs.Test.Start())
	}
	if !rs.Future.Start().Equal(kit.Hour(t, "2024-01-01T03")) {
		t.Fatalf("future start = %v", rs.Future.Start())
	}
	for i := 1; i < rs.Full.Len(); i++ {
		if rs.Full[i].Sub(rs.Full[i-1]) != time.Hour {
			t.Fatalf("gap at %d", i)
		}
	}
}

func TestComputeRejectsStaleFacts(t *testing.T) {
	_, err := Compute(kit.Hour(t, "2024-01-01T05"), kit.Hour(t, "2024-01-01T05"))
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("got %v", err)
	}
}

func TestContains(t *testing.T) {
	r := Hourly(kit.Hour(t, "2024-01-01T00"), kit.Hour(t, "2024-01-01T03"))
	if !r.Contains(kit.Hour(t, "2024-01-01T02")) {
		t.Fatal("expected contained")
	}
	if r.Contains(kit.Hour(t, "2024-01-01T02").Add(30 * time.Minute)) {
		t.Fatal("off-grid instant should not be contained")
	}
	if r.Contains(kit.Hour(t, "2024-01-01T04")) {
		t.Fatal("past end should not be contained")
	}
}

func TestSliceRoundTrip(t *testing.T) {
	rs, err := Explicit(kit.Hour(t, "2024-03-01T00"), kit.Hour(t, "2024-03-02T11"))
	if err != nil {
		t.Fatal(err)
	}
	type row struct {
		at time.Time
		v  int
	}
	unified := make([]row, 0, rs.Full.Len())
	for i, ts := range rs.Full {
		unified = append(unified, row{at: ts, v: i})
	}

	test, future := Slice(rs, unified, func(r row) time.Time { return r.at })
	if len(test) != rs.Test.Len() || len(future) != rs.Future.Len() {
		t.Fatalf("split %d/%d", len(test), len(future))
	}

	seen := map[int]bool{}
	for _, r := range test {
		seen[r.v] = true
	}
	for _, r := range future {
		if seen[r.v] {
			t.Fatalf("row %d in both slices", r.v)
		}
	}

	merged := append(append([]row{}, future...), test...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].at.Before(merged[j].at) })
	for i := range merged {
		if merged[i] != unified[i] {
			t.Fatalf("mismatch at %d: %+v vs %+v", i, merged[i], unified[i])
		}
	}
}
