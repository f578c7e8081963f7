package service

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"crimecast/internal/core/features"
	"crimecast/internal/core/forecast"
	"crimecast/internal/core/frame"
	perr "crimecast/internal/platform/errors"
	kit "crimecast/internal/platform/testkit"
)

func feats(t *testing.T, start, end string) *frame.Frame {
	t.Helper()
	return features.New(nil).Build(kit.Hour(t, start), kit.Hour(t, end))
}

func TestDispatchAutoregressiveUsesModelOrder(t *testing.T) {
	a := artifact(t, forecast.FamilyAutoregressive, "3",
		`{"intercept": 1, "exog_names": ["is_night", "is_rush_hour"], "exog_coefs": [10, 100]}`)
	// metadata disagrees; the model's own names win
	a.Meta.BestParams.ExogVars = []string{"is_rush_hour"}

	rows, err := Dispatcher{}.Predict(context.Background(), a, feats(t, "2024-01-01T05", "2024-01-01T07"))
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{11, 1, 101} // 05 night, 06 neither, 07 rush
	for i, r := range rows {
		if r.Predicted != want[i] {
			t.Fatalf("row %d: got %v want %v", i, r.Predicted, want[i])
		}
		if r.DistrictID != "3" || r.ModelName != "m-3" {
			t.Fatalf("row %d meta %+v", i, r)
		}
	}
	if rows[2].TimeID != 7 || !rows[2].DateID.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("keys %+v", rows[2])
	}
}

func TestDispatchAutoregressiveMetadataThenAllFeatures(t *testing.T) {
	a := artifact(t, forecast.FamilyAutoregressive, "1", `{"intercept": 0, "exog_coefs": [1]}`)
	a.Meta.BestParams.ExogVars = []string{"is_weekend"}
	// 2024-01-06 is a Saturday
	rows, err := Dispatcher{}.Predict(context.Background(), a, feats(t, "2024-01-06T00", "2024-01-06T01"))
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Predicted != 1 {
		t.Fatalf("got %v", rows[0].Predicted)
	}

	coefs := make([]float64, len(features.Columns))
	raw, _ := json.Marshal(map[string]any{"intercept": 0.5, "exog_coefs": coefs})
	all := artifact(t, forecast.FamilyAutoregressive, "1", string(raw))
	rows, err = Dispatcher{}.Predict(context.Background(), all, feats(t, "2024-01-06T00", "2024-01-06T03"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[3].Predicted != 0.5 {
		t.Fatalf("rows %+v", rows)
	}
}

func TestDispatchZeroFill(t *testing.T) {
	raw := `{"intercept": 2, "exog_names": ["hour_sin", "is_school_day"], "exog_coefs": [0, 5]}`
	f := feats(t, "2024-01-01T00", "2024-01-01T02")

	rows, err := Dispatcher{ZeroFill: true}.Predict(context.Background(), artifact(t, forecast.FamilyAutoregressive, "9", raw), f)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r.Predicted != 2 {
			t.Fatalf("zero filled column should contribute nothing: %v", r.Predicted)
		}
	}
	if f.Has("is_school_day") {
		t.Fatal("shared feature frame was mutated")
	}

	_, err = Dispatcher{ZeroFill: false}.Predict(context.Background(), artifact(t, forecast.FamilyAutoregressive, "9", raw), f)
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("got %v", err)
	}
	kit.MustContain(t, err.Error(), "is_school_day")
}

func TestDispatchAdditiveUnresolvableRegressor(t *testing.T) {
	a := artifact(t, forecast.FamilyAdditive, "4", `{"start": "2024-01-01T00:00:00Z", "t_scale_hours": 100, "k": 0, "m": 1}`)
	a.Meta.BestParams.RegressorNames = []string{"is_holiday", "fleet_week"}

	_, err := Dispatcher{ZeroFill: true}.Predict(context.Background(), a, feats(t, "2024-01-01T00", "2024-01-01T05"))
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("got %v", err)
	}
	kit.MustContain(t, err.Error(), "fleet_week")
	if e, _ := perr.As(err); e.Field() != "fleet_week" {
		t.Fatalf("field %q", e.Field())
	}
}

func TestDispatchAdditiveRegressorsFromModel(t *testing.T) {
	a := artifact(t, forecast.FamilyAdditive, "4", `{
		"start": "2024-01-01T00:00:00Z", "t_scale_hours": 100, "k": 0, "m": 1,
		"regressors": [{"name": "is_night", "coef": 2, "mu": 0, "std": 1}]
	}`)
	rows, err := Dispatcher{}.Predict(context.Background(), a, feats(t, "2024-01-01T05", "2024-01-01T06"))
	if err != nil {
		t.Fatal(err)
	}
	kit.Approx(t, "night", rows[0].Predicted, 3, 1e-9)
	kit.Approx(t, "day", rows[1].Predicted, 1, 1e-9)
}

func TestDispatchMissingValues(t *testing.T) {
	f := feats(t, "2024-01-01T00", "2024-01-01T02")
	bad := []float64{math.NaN(), 1, math.NaN()}
	if err := f.Set("is_weekend", bad); err != nil {
		t.Fatal(err)
	}
	a := artifact(t, forecast.FamilyAutoregressive, "2", `{"exog_names": ["is_weekend", "hour_cos"], "exog_coefs": [1, 1]}`)

	_, err := Dispatcher{}.Predict(context.Background(), a, f)
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("got %v", err)
	}
	kit.MustContain(t, err.Error(), "is_weekend: 2")
}

type shortModel struct{}

func (shortModel) Family() forecast.Family { return "short" }
func (shortModel) Predict(context.Context, *frame.Frame) ([]float64, error) {
	return []float64{1}, nil
}

func TestDispatchLengthMismatch(t *testing.T) {
	a := artifact(t, forecast.FamilyAutoregressive, "2", `{"exog_coefs": []}`)
	a.Model = shortModel{}
	a.Meta.BestParams.ExogVars = []string{"hour_sin"}
	_, err := Dispatcher{}.Predict(context.Background(), a, feats(t, "2024-01-01T00", "2024-01-01T02"))
	if !perr.IsCode(err, perr.ErrorCodeModel) {
		t.Fatalf("got %v", err)
	}
}
