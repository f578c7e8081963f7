// Package forecast defines the forecaster families and decodes them from artifact payloads
package forecast

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"crimecast/internal/core/frame"
	perr "crimecast/internal/platform/errors"
)

// Family tags a forecaster variant in an artifact
type Family string

// Known families
const (
	FamilyAdditive       Family = "additive"
	FamilyAutoregressive Family = "autoregressive"
)

// Forecaster predicts one value per frame row, in row order
type Forecaster interface {
	Family() Family
	Predict(ctx context.Context, in *frame.Frame) ([]float64, error)
}

// RegressorNamer is implemented by forecasters that declare their external regressors
type RegressorNamer interface {
	RegressorNames() []string
}

// ExogNamer is implemented by forecasters that recorded the exogenous columns they were fit on
type ExogNamer interface {
	ExogNames() []string
}

// Decoder builds a forecaster from its serialized parameters
type Decoder func(raw json.RawMessage) (Forecaster, error)

var (
	mu       sync.RWMutex
	decoders = map[Family]Decoder{}
)

func init() {
	Register(FamilyAdditive, DecodeAdditive)
	Register(FamilyAutoregressive, DecodeAutoregressive)
}

// Register installs the decoder for a family, replacing any previous one
func Register(f Family, d Decoder) {
	mu.Lock()
	decoders[Normalize(f)] = d
	mu.Unlock()
}

// Families lists the registered families, sorted
func Families() []Family {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Family, 0, len(decoders))
	for f := range decoders {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Normalize lowercases a tag; an empty tag is the autoregressive general case
func Normalize(f Family) Family {
	s := strings.ToLower(strings.TrimSpace(string(f)))
	if s == "" {
		return FamilyAutoregressive
	}
	return Family(s)
}

// Decode selects the family decoder by tag and decodes raw
func Decode(f Family, raw json.RawMessage) (Forecaster, error) {
	f = Normalize(f)
	mu.RLock()
	d, ok := decoders[f]
	mu.RUnlock()
	if !ok {
		return nil, perr.InvalidArgf("unknown model family %q", f)
	}
	if len(raw) == 0 {
		return nil, perr.InvalidArgf("%s model has no parameters", f)
	}
	m, err := d(raw)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "decode %s model", f)
	}
	return m, nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeModel, "prediction cancelled")
	}
	return nil
}
