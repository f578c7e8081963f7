// Package features synthesizes the hourly calendar covariates fed to the forecasters
package features

import (
	"math"
	"time"

	"crimecast/internal/core/frame"
	"crimecast/internal/core/ranges"
)

// Day periods, as category labels
const (
	PeriodMadrugada = "madrugada"
	PeriodManana    = "mañana"
	PeriodTarde     = "tarde"
	PeriodNoche     = "noche"
)

// Periods lists the day periods in one-hot column order
var Periods = []string{PeriodMadrugada, PeriodManana, PeriodNoche, PeriodTarde}

// Columns is the fixed output schema in order
var Columns = []string{
	"is_weekend", "is_night", "is_rush_hour",
	"hour_sin", "hour_cos",
	"dayofweek_sin", "dayofweek_cos",
	"month_sin", "month_cos",
	"dayofyear_sin", "dayofyear_cos",
	"week_sin", "week_cos",
	"is_holiday", "is_pre_holiday", "is_post_holiday",
	"period_madrugada", "period_mañana", "period_noche", "period_tarde",
}

// Period buckets an hour of day: 0-5, 6-11, 12-17, 18-23
func Period(hour int) string {
	switch {
	case hour <= 5:
		return PeriodMadrugada
	case hour <= 11:
		return PeriodManana
	case hour <= 17:
		return PeriodTarde
	default:
		return PeriodNoche
	}
}

// HolidaySource returns holiday dates within an inclusive calendar span
type HolidaySource interface {
	Between(start, end time.Time) []time.Time
}

// Synthesizer builds feature frames
type Synthesizer struct {
	holidays HolidaySource
}

// New returns a synthesizer; a nil source means no holidays
func New(h HolidaySource) *Synthesizer { return &Synthesizer{holidays: h} }

// Build returns one row per hour in [start, end] with the Columns schema
func (s *Synthesizer) Build(start, end time.Time) *frame.Frame {
	return s.Over(ranges.Hourly(start, end))
}

// Over builds the frame for an explicit set of hours
func (s *Synthesizer) Over(hours ranges.Range) *frame.Frame {
	n := hours.Len()
	cols := make(map[string][]float64, len(Columns))
	for _, c := range Columns {
		cols[c] = make([]float64, n)
	}

	holidays, pre, post := s.holidaySets(hours)

	for i, ts := range hours {
		ts = ts.UTC()
		hour := ts.Hour()
		dow := (int(ts.Weekday()) + 6) % 7 // monday is 0
		month := int(ts.Month())
		doy := ts.YearDay()
		_, week := ts.ISOWeek()
		d := ranges.DateOf(ts)

		cols["is_weekend"][i] = flag(dow >= 5)
		cols["is_night"][i] = flag(hour >= 22 || hour <= 5)
		cols["is_rush_hour"][i] = flag(rushHour(hour))

		cyc(cols, "hour", i, float64(hour), 24)
		cyc(cols, "dayofweek", i, float64(dow), 7)
		cyc(cols, "month", i, float64(month-1), 12)
		cyc(cols, "dayofyear", i, float64(doy-1), 365.25)
		cyc(cols, "week", i, float64(week-1), 52)

		_, h := holidays[d]
		_, p := pre[d]
		_, q := post[d]
		cols["is_holiday"][i] = flag(h)
		cols["is_pre_holiday"][i] = flag(p)
		cols["is_post_holiday"][i] = flag(q)

		cols["period_"+Period(hour)][i] = 1
	}

	f := frame.New(hours)
	for _, c := range Columns {
		_ = f.Set(c, cols[c])
	}
	return f
}

// holidaySets returns the holiday dates and those dates shifted back and forward one day
func (s *Synthesizer) holidaySets(hours ranges.Range) (hol, pre, post map[time.Time]struct{}) {
	hol, pre, post = map[time.Time]struct{}{}, map[time.Time]struct{}{}, map[time.Time]struct{}{}
	if s.holidays == nil || hours.Len() == 0 {
		return
	}
	for _, d := range s.holidays.Between(hours.Start(), hours.End()) {
		d = ranges.DateOf(d)
		hol[d] = struct{}{}
		pre[d.AddDate(0, 0, -1)] = struct{}{}
		post[d.AddDate(0, 0, 1)] = struct{}{}
	}
	return
}

func cyc(cols map[string][]float64, name string, i int, v, period float64) {
	a := 2 * math.Pi * v / period
	cols[name+"_sin"][i] = math.Sin(a)
	cols[name+"_cos"][i] = math.Cos(a)
}

func rushHour(h int) bool {
	switch h {
	case 7, 8, 9, 17, 18, 19:
		return true
	}
	return false
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
