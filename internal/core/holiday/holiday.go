// Package holiday resolves the holiday dates that drive the calendar features
package holiday

import (
	"slices"
	"strings"
	"time"

	perr "crimecast/internal/platform/errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

var weekendAlt = []cal.AltDay{
	{Day: time.Saturday, Offset: -1},
	{Day: time.Sunday, Offset: 1},
}

// LincolnsBirthday was a California state holiday on February 12 until 2009
var LincolnsBirthday = &cal.Holiday{
	Name:      "Lincoln's Birthday",
	Type:      cal.ObservancePublic,
	Month:     time.February,
	Day:       12,
	StartYear: 1971,
	EndYear:   2009,
	Observed:  weekendAlt,
	Func:      cal.CalcDayOfMonth,
}

// SusanBAnthonyDay is a California observance on February 15; it is not moved off weekends
var SusanBAnthonyDay = &cal.Holiday{
	Name:      "Susan B. Anthony Day",
	Type:      cal.ObservanceOther,
	Month:     time.February,
	Day:       15,
	StartYear: 2014,
	Func:      cal.CalcDayOfMonth,
}

// CesarChavezDay is a California state holiday on March 31; only a Sunday moves, to Monday
var CesarChavezDay = &cal.Holiday{
	Name:      "Cesar Chavez Day",
	Type:      cal.ObservancePublic,
	Month:     time.March,
	Day:       31,
	StartYear: 1995,
	Observed:  []cal.AltDay{{Day: time.Sunday, Offset: 1}},
	Func:      cal.CalcDayOfMonth,
}

// NativeAmericanDay is a California state holiday on the fourth Friday of September
var NativeAmericanDay = &cal.Holiday{
	Name:      "Native American Day",
	Type:      cal.ObservancePublic,
	Month:     time.September,
	Weekday:   time.Friday,
	Offset:    4,
	StartYear: 2024,
	Func:      cal.CalcWeekdayOffset,
}

// DayAfterThanksgiving is a California state holiday on the Friday after Thanksgiving
var DayAfterThanksgiving = &cal.Holiday{
	Name:      "Day After Thanksgiving",
	Type:      cal.ObservancePublic,
	Month:     time.November,
	Weekday:   time.Thursday,
	Offset:    4,
	StartYear: 1975,
	Func: func(h *cal.Holiday, year int) time.Time {
		return cal.CalcWeekdayOffset(h, year).AddDate(0, 0, 1)
	},
}

var subdivisions = map[string][]*cal.Holiday{
	"CA": {LincolnsBirthday, SusanBAnthonyDay, CesarChavezDay, NativeAmericanDay, DayAfterThanksgiving},
}

// Observance is a fixed month/day that recurs every year
type Observance struct {
	Name  string
	Month time.Month
	Day   int
}

// Local is the fixed list of city observances added on top of the national and regional calendars
var Local = []Observance{
	{Name: "Valentine's Day", Month: time.February, Day: 14},
	{Name: "St. Patrick's Day", Month: time.March, Day: 17},
	{Name: "Harvey Milk Day", Month: time.May, Day: 22},
}

// Resolver computes holiday dates and memoizes them per year
type Resolver struct {
	holidays []*cal.Holiday
	local    []Observance
	cache    *lru.Cache[int, []time.Time]
}

// New returns a resolver for national holidays plus the given subdivision; "" means national only
func New(subdivision string) (*Resolver, error) {
	hs := slices.Clone(us.Holidays)
	if sub := strings.ToUpper(strings.TrimSpace(subdivision)); sub != "" {
		extra, ok := subdivisions[sub]
		if !ok {
			return nil, perr.InvalidArgf("unsupported holiday subdivision %q", subdivision)
		}
		hs = append(hs, extra...)
	}
	c, err := lru.New[int, []time.Time](32)
	if err != nil {
		return nil, err
	}
	return &Resolver{holidays: hs, local: Local, cache: c}, nil
}

// Year returns the sorted distinct dates of one year's holidays, actual and observed, at UTC midnight
// an observed date can fall in the neighbouring year
func (r *Resolver) Year(year int) []time.Time {
	if v, ok := r.cache.Get(year); ok {
		return v
	}
	seen := map[time.Time]struct{}{}
	add := func(t time.Time) {
		if t.IsZero() {
			return
		}
		seen[day(t)] = struct{}{}
	}
	for _, h := range r.holidays {
		actual, observed := h.Calc(year)
		add(actual)
		add(observed)
	}
	for _, o := range r.local {
		add(time.Date(year, o.Month, o.Day, 0, 0, 0, 0, time.UTC))
	}

	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	r.cache.Add(year, out)
	return out
}

// Between returns the sorted distinct holiday dates within [start, end] by calendar date
func (r *Resolver) Between(start, end time.Time) []time.Time {
	lo, hi := day(start), day(end)
	if hi.Before(lo) {
		return nil
	}
	var out []time.Time
	for y := lo.Year() - 1; y <= hi.Year()+1; y++ {
		for _, d := range r.Year(y) {
			if !d.Before(lo) && !d.After(hi) {
				out = append(out, d)
			}
		}
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}

// day keeps the wall-clock calendar date of t and drops the rest
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
