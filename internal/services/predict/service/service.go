// Package service runs the batch prediction pipeline: features, dispatch, dimension sync and export
package service

import (
	"context"
	"time"

	"crimecast/internal/core/features"
	"crimecast/internal/core/frame"
	"crimecast/internal/core/ranges"
	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/logger"
	"crimecast/internal/services/predict/domain"
)

// Config holds the service options
type Config struct {
	TestTable   string
	FutureTable string

	// ZeroFill synthesizes absent autoregressive inputs as zeros
	ZeroFill bool
}

// Service implements domain.RunnerPort
type Service struct {
	Session   domain.Session
	Artifacts domain.ArtifactStore
	Synth     *features.Synthesizer
	Notify    domain.Notifier
	Rec       domain.Recorder
	Cfg       Config

	dispatch Dispatcher
}

// New constructs the prediction service; notify and rec may be nil
func New(
	session domain.Session,
	artifacts domain.ArtifactStore,
	synth *features.Synthesizer,
	notify domain.Notifier,
	rec domain.Recorder,
	cfg Config,
) *Service {
	if session == nil {
		panic("predict.Service requires a non nil Session")
	}
	if artifacts == nil {
		panic("predict.Service requires a non nil ArtifactStore")
	}
	if synth == nil {
		synth = features.New(nil)
	}
	if notify == nil {
		notify = nopNotifier{}
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if cfg.TestTable == "" {
		cfg.TestTable = "prediction_test"
	}
	if cfg.FutureTable == "" {
		cfg.FutureTable = "prediction_future"
	}
	return &Service{
		Session:   session,
		Artifacts: artifacts,
		Synth:     synth,
		Notify:    notify,
		Rec:       rec,
		Cfg:       cfg,
		dispatch:  Dispatcher{ZeroFill: cfg.ZeroFill},
	}
}

// Ranges derives the windows from the first artifact's training cutoff and the fact cursor
func (s *Service) Ranges(ctx context.Context) (ranges.Ranges, error) {
	lastTrain, err := s.Artifacts.LastTrainTime(ctx)
	if err != nil {
		return ranges.Ranges{}, err
	}
	var lastFact time.Time
	err = s.Session.Do(ctx, func(r domain.WarehouseRepo) error {
		var err error
		lastFact, err = r.LastFactTime(ctx)
		return err
	})
	if err != nil {
		return ranges.Ranges{}, err
	}
	return ranges.Compute(lastTrain, lastFact)
}

// SyncDims ensures dim_date covers [start, end] and dim_time is complete
func (s *Service) SyncDims(ctx context.Context, start, end time.Time) (dates, hours int, err error) {
	if end.Before(start) {
		return 0, 0, perr.InvalidArgf("end %s before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	var span []time.Time
	for d := ranges.DateOf(start); !d.After(ranges.DateOf(end)); d = d.AddDate(0, 0, 1) {
		span = append(span, d)
	}
	if dates, err = s.SyncDates(ctx, span); err != nil {
		return 0, 0, err
	}
	if hours, err = s.SyncTime(ctx); err != nil {
		return dates, 0, err
	}
	return dates, hours, nil
}

// Features builds the feature frame over [start, end]
func (s *Service) Features(start, end time.Time) *frame.Frame {
	return s.Synth.Build(start, end)
}

// Run predicts every artifact over rs.Full and exports the test and future slices
// An artifact without a district is skipped; any other failure stops the run
func (s *Service) Run(ctx context.Context, rs ranges.Ranges) (domain.RunSummary, error) {
	sum := domain.RunSummary{RunID: logger.RunID(ctx), Exported: map[string]int{}}
	log := logger.C(ctx)

	if rs.Full.Len() == 0 {
		return sum, perr.InvalidArgf("empty prediction range")
	}
	log.Info().
		Time("test_start", rs.Test.Start()).Time("test_end", rs.Test.End()).
		Time("future_start", rs.Future.Start()).Time("future_end", rs.Future.End()).
		Int("hours", rs.Full.Len()).
		Msg("run started")

	var err error
	if sum.Dates, err = s.SyncDates(ctx, rs.Full.Dates()); err != nil {
		return sum, err
	}
	if sum.Hours, err = s.SyncTime(ctx); err != nil {
		return sum, err
	}

	paths, err := s.Artifacts.Paths(ctx)
	if err != nil {
		return sum, err
	}
	if len(paths) == 0 {
		log.Warn().Msg("no artifacts to process")
		return sum, nil
	}

	feats := s.Synth.Over(rs.Full)

	for _, path := range paths {
		exported, err := s.runOne(ctx, rs, feats, path)
		if err != nil {
			if perr.Skippable(err) {
				log.Warn().Err(err).Str("path", path).Msg("artifact skipped")
				s.Rec.ArtifactSkipped()
				sum.Skipped++
				continue
			}
			log.Error().Err(err).Str("path", path).Msg("artifact failed")
			s.Rec.ArtifactFailed()
			return sum, err
		}
		for t, n := range exported {
			sum.Exported[t] += n
		}
		s.Rec.ArtifactProcessed()
		sum.Processed++
	}

	log.Info().
		Int("processed", sum.Processed).
		Int("skipped", sum.Skipped).
		Interface("exported", sum.Exported).
		Msg("run finished")
	return sum, nil
}

func (s *Service) runOne(ctx context.Context, rs ranges.Ranges, feats *frame.Frame, path string) (map[string]int, error) {
	a, err := s.Artifacts.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithArtifact(ctx, a.Meta.ModelName, a.Meta.DistrictID)
	logger.C(ctx).Info().Str("family", string(a.Family)).Msg("processing artifact")

	rows, err := s.dispatch.Predict(ctx, a, feats)
	if err != nil {
		return nil, err
	}
	test, future := ranges.Slice(rs, rows, func(r domain.PredictionRow) time.Time { return r.Datetime })

	out := map[string]int{}
	for _, slice := range []struct {
		table string
		rows  []domain.PredictionRow
	}{
		{s.Cfg.TestTable, test},
		{s.Cfg.FutureTable, future},
	} {
		n, err := s.Export(ctx, slice.table, slice.rows)
		if err != nil {
			return nil, err
		}
		out[slice.table] += n
	}
	return out, nil
}

type nopNotifier struct{}

func (nopNotifier) Exported(context.Context, domain.ExportEvent) error { return nil }

type nopRecorder struct{}

func (nopRecorder) ArtifactProcessed()          {}
func (nopRecorder) ArtifactSkipped()            {}
func (nopRecorder) ArtifactFailed()             {}
func (nopRecorder) RowsExported(string, int)    {}
func (nopRecorder) DimRowsInserted(string, int) {}
