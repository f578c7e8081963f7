package forecast

import (
	"context"
	"encoding/json"
	"math"
	"slices"
	"strings"

	"crimecast/internal/core/frame"
	perr "crimecast/internal/platform/errors"

	"gonum.org/v1/gonum/floats"
)

// Autoregressive forecasts recursively from its own lags plus exogenous columns
type Autoregressive struct {
	Intercept       float64   `json:"intercept"`
	LagCoefs        []float64 `json:"lag_coefs"`   // lag_coefs[j] applies to y[t-1-j]
	Exog            []string  `json:"exog_names"`  // optional, as recorded at fit time
	ExogCoefs       []float64 `json:"exog_coefs"`  // positional over the input columns
	LastWindow      []float64 `json:"last_window"` // oldest first
	ClipNonNegative bool      `json:"clip_non_negative"`

	revLags []float64
}

// DecodeAutoregressive decodes and checks autoregressive parameters
func DecodeAutoregressive(raw json.RawMessage) (Forecaster, error) {
	var m Autoregressive
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	p := len(m.LagCoefs)
	if len(m.LastWindow) < p {
		return nil, perr.InvalidArgf("last_window has %d values, need at least %d lags", len(m.LastWindow), p)
	}
	if len(m.Exog) > 0 && len(m.Exog) != len(m.ExogCoefs) {
		return nil, perr.InvalidArgf("exog_names has %d entries but exog_coefs has %d", len(m.Exog), len(m.ExogCoefs))
	}
	m.revLags = slices.Clone(m.LagCoefs)
	slices.Reverse(m.revLags)
	return &m, nil
}

// Family implements Forecaster
func (m *Autoregressive) Family() Family { return FamilyAutoregressive }

// ExogNames returns the recorded exogenous columns, nil when none were recorded
func (m *Autoregressive) ExogNames() []string {
	if len(m.Exog) == 0 {
		return nil
	}
	return slices.Clone(m.Exog)
}

// Predict forecasts exactly in.Len() steps; the frame columns are the exogenous inputs in fit order
func (m *Autoregressive) Predict(ctx context.Context, in *frame.Frame) ([]float64, error) {
	cols := in.Columns()
	if len(cols) != len(m.ExogCoefs) {
		return nil, perr.Validationf("model expects %d exogenous columns, got %d", len(m.ExogCoefs), len(cols))
	}
	if len(m.Exog) > 0 && !slices.Equal(cols, m.Exog) {
		return nil, perr.Validationf("exogenous columns %s do not match fit order %s",
			strings.Join(cols, ","), strings.Join(m.Exog, ","))
	}
	if m.revLags == nil && len(m.LagCoefs) > 0 {
		m.revLags = slices.Clone(m.LagCoefs)
		slices.Reverse(m.revLags)
	}

	p := len(m.LagCoefs)
	steps := in.Len()
	hist := make([]float64, 0, p+steps)
	hist = append(hist, m.LastWindow[len(m.LastWindow)-p:]...)
	out := make([]float64, steps)
	for t := 0; t < steps; t++ {
		if t%1024 == 0 {
			if err := ctxErr(ctx); err != nil {
				return nil, err
			}
		}
		y := m.Intercept
		if p > 0 {
			y += floats.Dot(m.revLags, hist[len(hist)-p:])
		}
		if len(cols) > 0 {
			y += floats.Dot(m.ExogCoefs, in.Row(t))
		}
		if m.ClipNonNegative {
			y = math.Max(y, 0)
		}
		out[t] = y
		hist = append(hist, y)
	}
	return out, nil
}
