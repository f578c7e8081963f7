// Package ranges builds the hourly test, future and full windows a run predicts over
package ranges

import (
	"time"

	perr "crimecast/internal/platform/errors"
)

// Range is a gap-free ascending sequence of hourly timestamps
type Range []time.Time

// Hourly returns every hour from start to end inclusive, stepping from start
func Hourly(start, end time.Time) Range {
	if end.Before(start) {
		return nil
	}
	n := int(end.Sub(start)/time.Hour) + 1
	return Periods(start, n)
}

// Periods returns n consecutive hours beginning at start
func Periods(start time.Time, n int) Range {
	if n <= 0 {
		return nil
	}
	out := make(Range, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

// Len is the number of hours
func (r Range) Len() int { return len(r) }

// Start is the first hour; zero for an empty range
func (r Range) Start() time.Time {
	if len(r) == 0 {
		return time.Time{}
	}
	return r[0]
}

// End is the last hour; zero for an empty range
func (r Range) End() time.Time {
	if len(r) == 0 {
		return time.Time{}
	}
	return r[len(r)-1]
}

// Contains reports whether t is one of the hours, by exact instant
func (r Range) Contains(t time.Time) bool {
	if len(r) == 0 || t.Before(r[0]) || t.After(r[len(r)-1]) {
		return false
	}
	return t.Sub(r[0])%time.Hour == 0
}

// Dates returns the distinct calendar dates covered, ascending, at UTC midnight
func (r Range) Dates() []time.Time {
	var out []time.Time
	for _, t := range r {
		d := DateOf(t)
		if len(out) == 0 || !out[len(out)-1].Equal(d) {
			out = append(out, d)
		}
	}
	return out
}

// DateOf truncates t to its UTC calendar date
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Ranges is the set of windows for one run; Full is Test followed by Future
type Ranges struct {
	Test   Range
	Future Range
	Full   Range
}

// Compute derives the windows from the last training hour and the last observed hour
func Compute(lastTrain, lastFact time.Time) (Ranges, error) {
	if !lastFact.After(lastTrain) {
		return Ranges{}, perr.InvalidArgf("last observation %s is not after last training hour %s",
			lastFact.Format(time.RFC3339), lastTrain.Format(time.RFC3339))
	}
	return Explicit(lastTrain.Add(time.Hour), lastFact)
}

// Explicit builds the windows from an inclusive test span; the future window has the same length
func Explicit(testStart, testEnd time.Time) (Ranges, error) {
	if testEnd.Before(testStart) {
		return Ranges{}, perr.InvalidArgf("test end %s before test start %s",
			testEnd.Format(time.RFC3339), testStart.Format(time.RFC3339))
	}
	test := Hourly(testStart, testEnd)
	future := Periods(test.End().Add(time.Hour), test.Len())
	full := make(Range, 0, test.Len()+future.Len())
	full = append(append(full, test...), future...)
	return Ranges{Test: test, Future: future, Full: full}, nil
}

// Slice splits items into the test and future windows by timestamp membership; items in neither are dropped
func Slice[T any](r Ranges, items []T, at func(T) time.Time) (test, future []T) {
	for _, it := range items {
		ts := at(it)
		switch {
		case r.Test.Contains(ts):
			test = append(test, it)
		case r.Future.Contains(ts):
			future = append(future, it)
		}
	}
	return test, future
}
