package artifacts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	perr "crimecast/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// DefaultModelName labels artifacts that did not record a name
const DefaultModelName = "UnknownModel"

type envelope struct {
	Family   string          `json:"family" validate:"omitempty,max=64"`
	Metadata *metadata       `json:"metadata" validate:"required"`
	Model    json.RawMessage `json:"model"`
}

type metadata struct {
	ModelName  string          `json:"model_name" validate:"omitempty,max=128"`
	DistrictID json.RawMessage `json:"district_id"`
	LastTrain  string          `json:"last_train_datetime"`
	BestParams *bestParams     `json:"best_params"`
}

type bestParams struct {
	RegressorNames []string `json:"regressor_names" validate:"omitempty,dive,column"`
	ExogVars       []string `json:"exog_vars" validate:"omitempty,dive,column"`
}

// toJSON converts a YAML document to JSON so both formats share one decoder
func toJSON(b []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse yaml artifact")
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "yaml artifact is not json compatible")
	}
	return out, nil
}

// districtID renders the raw district id; ok is false when absent, null or blank
func districtID(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "district_id")
	}
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true, nil
		}
		// 3.0 is district 3
		if f, err := t.Float64(); err == nil && f == math.Trunc(f) {
			return strconv.FormatInt(int64(f), 10), true, nil
		}
		return t.String(), true, nil
	case string:
		s := strings.TrimSpace(t)
		return s, s != "", nil
	default:
		return "", false, perr.InvalidArgf("district_id must be a number or a string")
	}
}

var trainLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTrain reads last_train_datetime; timestamps without a zone are UTC
func parseTrain(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range trainLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, perr.InvalidArgf("last_train_datetime %q is not a timestamp", s)
}
