package domain

import (
	"context"
	"time"

	"crimecast/internal/core/frame"
	"crimecast/internal/core/ranges"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	// Run predicts every artifact over rs and exports the test and future slices
	Run(ctx context.Context, rs ranges.Ranges) (RunSummary, error)

	// Ranges derives the run windows from the fact cursor and the first artifact
	Ranges(ctx context.Context) (ranges.Ranges, error)

	// SyncDims ensures dim_date covers every date in [start, end] and dim_time is complete
	SyncDims(ctx context.Context, start, end time.Time) (dates, hours int, err error)

	// Features builds the feature frame over [start, end]
	Features(start, end time.Time) *frame.Frame
}

// WarehouseRepo is the tx-bound storage surface
type WarehouseRepo interface {
	// ExistingDates returns which of dates already exist in dim_date
	ExistingDates(ctx context.Context, dates []time.Time) ([]time.Time, error)

	// InsertDates appends dim_date rows
	InsertDates(ctx context.Context, rows []DateRow) (int, error)

	// ExistingHours returns the time_id values present in dim_time
	ExistingHours(ctx context.Context) ([]int, error)

	// InsertHours appends dim_time rows
	InsertHours(ctx context.Context, rows []TimeRow) (int, error)

	// AppendPredictions appends rows to a prediction table
	AppendPredictions(ctx context.Context, table string, rows []PredictionRow) (int, error)

	// LastFactTime returns the latest observed hour in the fact table
	LastFactTime(ctx context.Context) (time.Time, error)
}

// Session runs each unit of work against the warehouse; every call is its own transaction
type Session interface {
	Do(ctx context.Context, fn func(WarehouseRepo) error) error
}

// ArtifactStore lists and loads model artifacts
type ArtifactStore interface {
	Paths(ctx context.Context) ([]string, error)
	Load(ctx context.Context, path string) (Artifact, error)

	// LastTrainTime is the training cutoff recorded by the first artifact
	LastTrainTime(ctx context.Context) (time.Time, error)
}

// Notifier announces exported slices
type Notifier interface {
	Exported(ctx context.Context, ev ExportEvent) error
}

// Recorder counts run outcomes
type Recorder interface {
	ArtifactProcessed()
	ArtifactSkipped()
	ArtifactFailed()
	RowsExported(table string, n int)
	DimRowsInserted(dim string, n int)
}
