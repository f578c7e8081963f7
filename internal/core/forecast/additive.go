package forecast

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"crimecast/internal/core/frame"
	perr "crimecast/internal/platform/errors"

	"gonum.org/v1/gonum/mat"
)

// Changepoint shifts the trend rate from T onward, T in scaled time
type Changepoint struct {
	T     float64 `json:"t"`
	Delta float64 `json:"delta"`
}

// Seasonality is a Fourier series of Order terms over PeriodHours
type Seasonality struct {
	Name        string    `json:"name"`
	PeriodHours float64   `json:"period_hours"`
	Order       int       `json:"order"`
	Beta        []float64 `json:"beta"` // sin_1, cos_1, sin_2, cos_2, ...
}

// Regressor is an external column with its standardization and coefficient
type Regressor struct {
	Name string  `json:"name"`
	Coef float64 `json:"coef"`
	Mu   float64 `json:"mu"`
	Std  float64 `json:"std"`
}

// Additive is a piecewise-linear trend plus Fourier seasonalities plus external regressors
type Additive struct {
	Start         time.Time     `json:"start"`
	TScaleHours   float64       `json:"t_scale_hours"`
	YScale        float64       `json:"y_scale"`
	K             float64       `json:"k"`
	M             float64       `json:"m"`
	Changepoints  []Changepoint `json:"changepoints"`
	Seasonalities []Seasonality `json:"seasonalities"`
	Regressors    []Regressor   `json:"regressors"`
}

// DecodeAdditive decodes and checks additive parameters
func DecodeAdditive(raw json.RawMessage) (Forecaster, error) {
	var a Additive
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	if a.TScaleHours <= 0 {
		return nil, perr.InvalidArgf("t_scale_hours must be positive")
	}
	if a.YScale == 0 {
		a.YScale = 1
	}
	for _, s := range a.Seasonalities {
		if s.PeriodHours <= 0 || s.Order <= 0 {
			return nil, perr.InvalidArgf("seasonality %q needs a positive period and order", s.Name)
		}
		if len(s.Beta) != 2*s.Order {
			return nil, perr.InvalidArgf("seasonality %q has %d coefficients, want %d", s.Name, len(s.Beta), 2*s.Order)
		}
	}
	seen := map[string]bool{}
	for _, r := range a.Regressors {
		if r.Name == "" || seen[r.Name] {
			return nil, perr.InvalidArgf("regressor names must be unique and non-empty")
		}
		seen[r.Name] = true
	}
	return &a, nil
}

// Family implements Forecaster
func (a *Additive) Family() Family { return FamilyAdditive }

// RegressorNames returns the declared regressors in model order
func (a *Additive) RegressorNames() []string {
	out := make([]string, len(a.Regressors))
	for i, r := range a.Regressors {
		out[i] = r.Name
	}
	return out
}

// Predict returns the yhat column of Forecast
func (a *Additive) Predict(ctx context.Context, in *frame.Frame) ([]float64, error) {
	out, err := a.Forecast(ctx, in)
	if err != nil {
		return nil, err
	}
	yhat, _ := out.Col("yhat")
	return yhat, nil
}

// Forecast returns trend, additive_terms and yhat over the frame's timestamps
func (a *Additive) Forecast(ctx context.Context, in *frame.Frame) (*frame.Frame, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	n := in.Len()
	idx := in.Index()

	trend := make([]float64, n)
	for i, ts := range idx {
		trend[i] = a.trend(a.scaledTime(ts))
	}

	terms := mat.NewVecDense(max(n, 1), nil)
	if n > 0 {
		for _, s := range a.Seasonalities {
			terms.AddVec(terms, seasonalTerm(idx, s))
		}
		if len(a.Regressors) > 0 {
			rt, err := a.regressorTerm(in)
			if err != nil {
				return nil, err
			}
			terms.AddVec(terms, rt)
		}
	}

	additive := make([]float64, n)
	yhat := make([]float64, n)
	for i := 0; i < n; i++ {
		additive[i] = terms.AtVec(i) * a.YScale
		yhat[i] = trend[i]*a.YScale + additive[i]
	}

	out := frame.New(idx)
	_ = out.Set("trend", scale(trend, a.YScale))
	_ = out.Set("additive_terms", additive)
	_ = out.Set("yhat", yhat)
	return out, nil
}

func (a *Additive) scaledTime(ts time.Time) float64 {
	return ts.Sub(a.Start).Hours() / a.TScaleHours
}

// trend evaluates the piecewise-linear growth at scaled time t
func (a *Additive) trend(t float64) float64 {
	k, m := a.K, a.M
	for _, cp := range a.Changepoints {
		if t >= cp.T {
			k += cp.Delta
			m -= cp.T * cp.Delta
		}
	}
	return k*t + m
}

// seasonalTerm multiplies the Fourier design matrix by the seasonality coefficients
func seasonalTerm(idx []time.Time, s Seasonality) *mat.VecDense {
	n := len(idx)
	x := mat.NewDense(n, 2*s.Order, nil)
	for i, ts := range idx {
		h := float64(ts.Unix()) / 3600
		for j := 1; j <= s.Order; j++ {
			a := 2 * math.Pi * float64(j) * h / s.PeriodHours
			x.Set(i, 2*(j-1), math.Sin(a))
			x.Set(i, 2*(j-1)+1, math.Cos(a))
		}
	}
	out := mat.NewVecDense(n, nil)
	out.MulVec(x, mat.NewVecDense(len(s.Beta), s.Beta))
	return out
}

// regressorTerm standardizes the regressor columns and applies their coefficients
func (a *Additive) regressorTerm(in *frame.Frame) (*mat.VecDense, error) {
	n := in.Len()
	x := mat.NewDense(n, len(a.Regressors), nil)
	beta := make([]float64, len(a.Regressors))
	for j, r := range a.Regressors {
		col, ok := in.Col(r.Name)
		if !ok {
			return nil, perr.WithField(perr.Validationf("regressor %q not in input", r.Name), r.Name)
		}
		std := r.Std
		if std == 0 {
			std = 1
		}
		for i, v := range col {
			x.Set(i, j, (v-r.Mu)/std)
		}
		beta[j] = r.Coef
	}
	out := mat.NewVecDense(n, nil)
	out.MulVec(x, mat.NewVecDense(len(beta), beta))
	return out, nil
}

func scale(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}
