package service

import (
	"context"
	"slices"
	"time"

	"crimecast/internal/core/features"
	"crimecast/internal/core/ranges"
	"crimecast/internal/platform/logger"
	"crimecast/internal/services/predict/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HoursPerDay is the fixed dim_time domain
const HoursPerDay = 24

var periodTitle = cases.Title(language.Spanish)

// DateRowFor derives the dim_date attributes of a calendar date
func DateRowFor(d time.Time) domain.DateRow {
	d = ranges.DateOf(d)
	return domain.DateRow{
		DateID:    d,
		Year:      d.Year(),
		Month:     int(d.Month()),
		Day:       d.Day(),
		DayOfWeek: d.Weekday().String(),
		Quarter:   (int(d.Month())-1)/3 + 1,
	}
}

// TimeRowFor derives the dim_time attributes of an hour of day
func TimeRowFor(h int) domain.TimeRow {
	ampm := "AM"
	if h >= 12 {
		ampm = "PM"
	}
	return domain.TimeRow{
		TimeID:      h,
		Hour:        h,
		AmPm:        ampm,
		PeriodOfDay: periodTitle.String(features.Period(h)),
	}
}

// SyncDates appends the dim_date rows missing for dates; repeated calls insert nothing new
func (s *Service) SyncDates(ctx context.Context, dates []time.Time) (int, error) {
	want := distinctDates(dates)
	if len(want) == 0 {
		return 0, nil
	}
	var inserted int
	err := s.Session.Do(ctx, func(r domain.WarehouseRepo) error {
		existing, err := r.ExistingDates(ctx, want)
		if err != nil {
			return err
		}
		have := make(map[time.Time]struct{}, len(existing))
		for _, d := range existing {
			have[ranges.DateOf(d)] = struct{}{}
		}
		var rows []domain.DateRow
		for _, d := range want {
			if _, ok := have[d]; !ok {
				rows = append(rows, DateRowFor(d))
			}
		}
		if len(rows) == 0 {
			return nil
		}
		inserted, err = r.InsertDates(ctx, rows)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logDims(ctx, domain.DimDate, inserted)
	return inserted, nil
}

// SyncTime appends whichever of the 24 hours dim_time lacks
func (s *Service) SyncTime(ctx context.Context) (int, error) {
	var inserted int
	err := s.Session.Do(ctx, func(r domain.WarehouseRepo) error {
		existing, err := r.ExistingHours(ctx)
		if err != nil {
			return err
		}
		var rows []domain.TimeRow
		for h := range HoursPerDay {
			if !slices.Contains(existing, h) {
				rows = append(rows, TimeRowFor(h))
			}
		}
		if len(rows) == 0 {
			return nil
		}
		inserted, err = r.InsertHours(ctx, rows)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logDims(ctx, domain.DimTime, inserted)
	return inserted, nil
}

func (s *Service) logDims(ctx context.Context, dim string, n int) {
	s.Rec.DimRowsInserted(dim, n)
	log := logger.C(ctx)
	if n > 0 {
		log.Info().Str("dim", dim).Int("inserted", n).Msg("dimension rows inserted")
		return
	}
	log.Debug().Str("dim", dim).Msg("dimension already complete")
}

// distinctDates truncates to calendar dates, dedups and sorts
func distinctDates(in []time.Time) []time.Time {
	out := make([]time.Time, 0, len(in))
	for _, t := range in {
		out = append(out, ranges.DateOf(t))
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}
