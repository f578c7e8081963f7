// Package domain holds the prediction pipeline types and ports
package domain

import (
	"time"

	"crimecast/internal/core/forecast"
)

// BestParams carries the column choices recorded at training time
type BestParams struct {
	RegressorNames []string `json:"regressor_names,omitempty"`
	ExogVars       []string `json:"exog_vars,omitempty"`
}

// Metadata describes one trained artifact
type Metadata struct {
	ModelName  string
	DistrictID string
	LastTrain  time.Time // zero when the artifact did not record it
	BestParams BestParams
}

// Artifact is a decoded model with its metadata; one per district
type Artifact struct {
	Path   string
	Family forecast.Family
	Meta   Metadata
	Model  forecast.Forecaster
}

// PredictionRow is one hourly prediction for a district
type PredictionRow struct {
	Datetime   time.Time
	DateID     time.Time // calendar date at UTC midnight
	TimeID     int       // hour of day 0-23
	DistrictID string
	Predicted  float64
	ModelName  string
}

// DateRow is a dim_date row
type DateRow struct {
	DateID    time.Time
	Year      int
	Month     int
	Day       int
	DayOfWeek string
	Quarter   int
}

// TimeRow is a dim_time row
type TimeRow struct {
	TimeID      int
	Hour        int
	AmPm        string
	PeriodOfDay string
}

// ExportEvent describes one appended prediction slice
type ExportEvent struct {
	RunID      string    `json:"run_id"`
	ModelName  string    `json:"model_name"`
	DistrictID string    `json:"district_id"`
	Table      string    `json:"table"`
	Rows       int       `json:"rows"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
}

// Dimension names used in logs and metrics
const (
	DimDate = "dim_date"
	DimTime = "dim_time"
)

// RunSummary counts what a run did
type RunSummary struct {
	RunID     string
	Processed int
	Skipped   int
	Exported  map[string]int
	Dates     int
	Hours     int
}
