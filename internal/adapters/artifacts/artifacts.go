package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"crimecast/internal/core/forecast"
	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/logger"
	"crimecast/internal/platform/validate"
	"crimecast/internal/services/predict/domain"
)

// Store reads artifacts from a directory
type Store struct {
	dir string
	log *logger.Logger
}

// New returns a store over dir
func New(dir string) *Store {
	return &Store{dir: dir, log: logger.Named("artifacts")}
}

// Dir returns the models directory
func (s *Store) Dir() string { return s.dir }

// Paths lists artifact files in lexical order
func (s *Store) Paths(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.NotFoundf("models dir %s does not exist", s.dir)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "read models dir %s", s.dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			out = append(out, filepath.Join(s.dir, e.Name()))
		}
	}
	slices.Sort(out)
	return out, nil
}

// Load reads, validates and decodes one artifact
// A missing district id is reported before the model is decoded
func (s *Store) Load(ctx context.Context, path string) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}
	env, err := decode(path)
	if err != nil {
		return domain.Artifact{}, err
	}

	// an artifact without a district is skipped whatever else is wrong with it
	var district string
	if env.Metadata != nil {
		var ok bool
		if district, ok, err = districtID(env.Metadata.DistrictID); err != nil {
			return domain.Artifact{}, perr.WithOp(err, path)
		}
		if !ok {
			return domain.Artifact{}, perr.WithField(perr.MissingIdentifierf("district_id missing in %s", filepath.Base(path)), "metadata.district_id")
		}
	}
	if err := validate.Struct(env); err != nil {
		return domain.Artifact{}, perr.WithOp(err, path)
	}

	md := env.Metadata
	name := strings.TrimSpace(md.ModelName)
	if name == "" {
		name = DefaultModelName
	}

	lastTrain, err := parseTrain(md.LastTrain)
	if err != nil {
		return domain.Artifact{}, perr.WithOp(err, path)
	}

	model, err := forecast.Decode(forecast.Family(env.Family), env.Model)
	if err != nil {
		return domain.Artifact{}, perr.WithOp(err, path)
	}

	a := domain.Artifact{
		Path:   path,
		Family: model.Family(),
		Model:  model,
		Meta: domain.Metadata{
			ModelName:  name,
			DistrictID: district,
			LastTrain:  lastTrain,
		},
	}
	if md.BestParams != nil {
		a.Meta.BestParams = domain.BestParams{
			RegressorNames: md.BestParams.RegressorNames,
			ExogVars:       md.BestParams.ExogVars,
		}
	}

	s.log.Debug().
		Str("path", path).
		Str("family", string(a.Family)).
		Str("model_name", name).
		Str("district_id", district).
		Msg("artifact loaded")
	return a, nil
}

// LastTrainTime reads last_train_datetime from the first artifact; all artifacts are assumed to share it
func (s *Store) LastTrainTime(ctx context.Context) (time.Time, error) {
	paths, err := s.Paths(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if len(paths) == 0 {
		return time.Time{}, perr.NotFoundf("no artifacts in %s", s.dir)
	}
	env, err := read(paths[0])
	if err != nil {
		return time.Time{}, err
	}
	t, err := parseTrain(env.Metadata.LastTrain)
	if err != nil {
		return time.Time{}, perr.WithOp(err, paths[0])
	}
	if t.IsZero() {
		return time.Time{}, perr.WithField(perr.InvalidArgf("%s has no last_train_datetime", filepath.Base(paths[0])), "metadata.last_train_datetime")
	}
	return t, nil
}

// read decodes and validates the envelope at path
func read(path string) (envelope, error) {
	env, err := decode(path)
	if err != nil {
		return envelope{}, err
	}
	if err := validate.Struct(env); err != nil {
		return envelope{}, perr.WithOp(err, path)
	}
	return env, nil
}

func decode(path string) (envelope, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envelope{}, perr.NotFoundf("artifact %s not found", path)
		}
		return envelope{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "read artifact %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if b, err = toJSON(b); err != nil {
			return envelope{}, perr.WithOp(err, path)
		}
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return envelope{}, perr.WithOp(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "decode artifact"), path)
	}
	return env, nil
}
