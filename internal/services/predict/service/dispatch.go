package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"crimecast/internal/core/forecast"
	"crimecast/internal/core/frame"
	"crimecast/internal/core/ranges"
	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/logger"
	"crimecast/internal/services/predict/domain"
)

// TargetColumn is never an input to the autoregressive family
const TargetColumn = "crime_count"

// Dispatcher turns an artifact plus the feature frame into prediction rows
type Dispatcher struct {
	// ZeroFill synthesizes absent autoregressive inputs as zeros; when false they are a validation error
	ZeroFill bool
}

// Predict builds the family specific input, validates it and predicts one row per frame row
func (d Dispatcher) Predict(ctx context.Context, a domain.Artifact, feats *frame.Frame) ([]domain.PredictionRow, error) {
	var (
		in  *frame.Frame
		err error
	)
	switch a.Family {
	case forecast.FamilyAdditive:
		in, err = d.additiveInput(a, feats)
	default:
		in, err = d.autoregressiveInput(ctx, a, feats)
	}
	if err != nil {
		return nil, err
	}

	if missing := in.Missing(); len(missing) > 0 {
		logger.C(ctx).Warn().Str("missing", describe(missing)).Msg("exogenous inputs contain missing values")
		return nil, perr.WithField(
			perr.Validationf("exogenous inputs for %s contain missing values: %s", a.Meta.ModelName, describe(missing)),
			missing[0].Column,
		)
	}

	yhat, err := a.Model.Predict(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(yhat) != in.Len() {
		return nil, perr.Newf(perr.ErrorCodeModel, "%s returned %d predictions for %d rows", a.Meta.ModelName, len(yhat), in.Len())
	}

	idx := in.Index()
	out := make([]domain.PredictionRow, len(idx))
	for i, ts := range idx {
		out[i] = domain.PredictionRow{
			Datetime:   ts,
			DateID:     ranges.DateOf(ts),
			TimeID:     ts.UTC().Hour(),
			DistrictID: a.Meta.DistrictID,
			Predicted:  yhat[i],
			ModelName:  a.Meta.ModelName,
		}
	}
	return out, nil
}

// additiveInput restricts the frame to the regressors; an unresolvable regressor is never defaulted
func (d Dispatcher) additiveInput(a domain.Artifact, feats *frame.Frame) (*frame.Frame, error) {
	regs := a.Meta.BestParams.RegressorNames
	if regs == nil {
		if rn, ok := a.Model.(forecast.RegressorNamer); ok {
			regs = rn.RegressorNames()
		}
	}
	if len(regs) == 0 {
		return feats, nil
	}
	in, err := feats.Select(regs...)
	if err != nil {
		field := ""
		if e, ok := perr.As(err); ok {
			field = e.Field()
		}
		return nil, perr.WithField(
			perr.Wrapf(err, perr.ErrorCodeValidation, "unresolvable regressor for %s", a.Meta.ModelName),
			field,
		)
	}
	return in, nil
}

// autoregressiveInput picks the exogenous columns in fit order
// Order of precedence: the model's recorded names, metadata exog_vars, every feature but the target
func (d Dispatcher) autoregressiveInput(ctx context.Context, a domain.Artifact, feats *frame.Frame) (*frame.Frame, error) {
	var exog []string
	if en, ok := a.Model.(forecast.ExogNamer); ok {
		exog = en.ExogNames()
	}
	if len(exog) == 0 {
		exog = a.Meta.BestParams.ExogVars
	}
	if len(exog) == 0 {
		exog = slices.DeleteFunc(feats.Columns(), func(c string) bool { return c == TargetColumn })
	}

	var present, absent []string
	for _, c := range exog {
		if feats.Has(c) {
			present = append(present, c)
		} else {
			absent = append(absent, c)
		}
	}
	in, err := feats.Select(present...)
	if err != nil {
		return nil, err
	}
	if len(absent) > 0 {
		if !d.ZeroFill {
			return nil, perr.WithField(
				perr.Validationf("exogenous columns for %s not produced by the feature engineering: %s",
					a.Meta.ModelName, strings.Join(absent, ", ")),
				absent[0],
			)
		}
		logger.C(ctx).Warn().Strs("columns", absent).Msg("zero filling absent exogenous columns")
		for _, c := range absent {
			in.Fill(c, 0)
		}
	}
	return in.Select(exog...)
}

func describe(m []frame.MissingCount) string {
	parts := make([]string, len(m))
	for i, c := range m {
		parts[i] = fmt.Sprintf("%s: %d", c.Column, c.Count)
	}
	return strings.Join(parts, ", ")
}
