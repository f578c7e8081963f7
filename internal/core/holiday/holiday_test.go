package holiday

import (
	"testing"
	"time"

	perr "crimecast/internal/platform/errors"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func contains(ds []time.Time, want time.Time) bool {
	for _, d := range ds {
		if d.Equal(want) {
			return true
		}
	}
	return false
}

func TestLocalObservances(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	ds := r.Between(date(2024, 1, 1), date(2024, 12, 31))
	for _, want := range []time.Time{date(2024, 2, 14), date(2024, 3, 17), date(2024, 5, 22)} {
		if !contains(ds, want) {
			t.Fatalf("missing local observance %s", want.Format(time.DateOnly))
		}
	}
}

func TestFederalHolidays(t *testing.T) {
	r, _ := New("")
	ds := r.Between(date(2024, 1, 1), date(2024, 12, 31))
	for _, want := range []time.Time{
		date(2024, 1, 1),   // new year
		date(2024, 7, 4),   // independence day
		date(2024, 11, 28), // thanksgiving
		date(2024, 12, 25), // christmas
	} {
		if !contains(ds, want) {
			t.Fatalf("missing %s", want.Format(time.DateOnly))
		}
	}
	if contains(ds, date(2024, 3, 31)) {
		t.Fatal("california holiday without subdivision")
	}
}

func TestCaliforniaAndObserved(t *testing.T) {
	r, err := New("ca")
	if err != nil {
		t.Fatal(err)
	}
	ds := r.Between(date(2024, 1, 1), date(2024, 12, 31))
	if !contains(ds, date(2024, 3, 31)) {
		t.Fatal("missing cesar chavez day")
	}
	if !contains(ds, date(2024, 11, 29)) {
		t.Fatal("missing day after thanksgiving")
	}

	// July 4 2026 is a Saturday, observed Friday
	ds = r.Between(date(2026, 7, 1), date(2026, 7, 31))
	if !contains(ds, date(2026, 7, 3)) || !contains(ds, date(2026, 7, 4)) {
		t.Fatalf("expected actual and observed independence day, got %v", ds)
	}
}

func TestCaliforniaCalendar(t *testing.T) {
	r, err := New("CA")
	if err != nil {
		t.Fatal(err)
	}
	national, _ := New("")

	for _, tc := range []struct {
		name string
		d    time.Time
		want bool
	}{
		{"cesar chavez on a saturday stays put", date(2018, 3, 31), true},
		{"no friday before a saturday cesar chavez", date(2018, 3, 30), false},
		{"cesar chavez on a sunday", date(2024, 3, 31), true},
		{"cesar chavez sunday observed monday", date(2024, 4, 1), true},
		{"susan b anthony day", date(2019, 2, 15), true},
		{"susan b anthony day before 2014", date(2013, 2, 15), false},
		{"lincoln's birthday", date(2008, 2, 12), true},
		{"lincoln's birthday sunday observed monday", date(2006, 2, 13), true},
		{"lincoln's birthday after 2009", date(2012, 2, 12), false},
		{"native american day", date(2024, 9, 27), true},
		{"native american day before 2024", date(2023, 9, 22), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ds := r.Between(date(tc.d.Year(), 1, 1), date(tc.d.Year(), 12, 31))
			if got := contains(ds, tc.d); got != tc.want {
				t.Fatalf("%s: holiday = %v, want %v", tc.d.Format(time.DateOnly), got, tc.want)
			}
		})
	}

	if contains(national.Between(date(2019, 1, 1), date(2019, 12, 31)), date(2019, 2, 15)) {
		t.Fatal("state observance without subdivision")
	}
}

func TestBetweenSortedDistinctAndBounded(t *testing.T) {
	r, _ := New("CA")
	lo, hi := date(2023, 12, 20), date(2025, 1, 10)
	ds := r.Between(lo.Add(15*time.Hour), hi.Add(3*time.Hour))
	if len(ds) == 0 {
		t.Fatal("expected holidays")
	}
	for i, d := range ds {
		if d.Before(lo) || d.After(hi) {
			t.Fatalf("%s out of bounds", d)
		}
		if i > 0 && !ds[i-1].Before(d) {
			t.Fatalf("not strictly ascending at %d", i)
		}
	}
}

func TestEmptyRange(t *testing.T) {
	r, _ := New("")
	if ds := r.Between(date(2024, 2, 1), date(2024, 1, 1)); len(ds) != 0 {
		t.Fatalf("got %v", ds)
	}
	// a window with no holidays at all
	if ds := r.Between(date(2024, 8, 10), date(2024, 8, 20)); len(ds) != 0 {
		t.Fatalf("got %v", ds)
	}
}

func TestUnknownSubdivision(t *testing.T) {
	_, err := New("ZZ")
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("got %v", err)
	}
}

func TestYearIsMemoized(t *testing.T) {
	r, _ := New("CA")
	a := r.Year(2024)
	b := r.Year(2024)
	if len(a) == 0 || &a[0] != &b[0] {
		t.Fatal("expected cached slice")
	}
}
