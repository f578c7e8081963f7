// Package module wires the predict service from config and the opened backends
package module

import (
	"crimecast/internal/adapters/artifacts"
	"crimecast/internal/adapters/notify"
	"crimecast/internal/core/features"
	"crimecast/internal/core/holiday"
	"crimecast/internal/modkit"
	"crimecast/internal/platform/metrics"
	"crimecast/internal/services/predict/domain"
	"crimecast/internal/services/predict/repo"
	"crimecast/internal/services/predict/service"
)

// Name is the registry name of the module
const Name = "predict"

// Ports defines the predict module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the predict module
type Module struct {
	deps    modkit.Deps
	opts    Options
	metrics *metrics.Run
	ports   Ports
}

// New constructs the predict module from deps.Cfg
// It panics when the configured warehouse backend is not open
func New(deps modkit.Deps, extra ...modkit.Option) *Module {
	opts := FromConfig(deps.Cfg)
	built := modkit.Build(append([]modkit.Option{
		modkit.WithName(Name),
		modkit.WithStatementTimeout(opts.StatementTimeout),
	}, extra...)...)

	var session domain.Session
	switch opts.Warehouse {
	case WarehouseCH:
		if deps.CH == nil {
			panic("predict module: CORE_PREDICT_WAREHOUSE=ch but clickhouse is not enabled")
		}
		session = repo.Direct{Repo: repo.NewCH(deps.CH, opts.FactTable)}
	default:
		db := built.Runner(deps)
		if db == nil {
			panic("predict module: CORE_PREDICT_WAREHOUSE=pg but postgres is not enabled")
		}
		session = repo.TxSession{DB: db, Binder: repo.NewPG(opts.FactTable)}
	}

	rec := metrics.New()
	svc := service.New(
		session,
		artifacts.New(opts.ModelsDir),
		Synthesizer(opts),
		notify.New(deps.RDS, opts.NotifyChannel),
		rec,
		service.Config{
			TestTable:   opts.TestTable,
			FutureTable: opts.FutureTable,
			ZeroFill:    opts.ZeroFill,
		},
	)

	m := &Module{deps: deps, opts: opts, metrics: rec}
	m.ports = Ports{Runner: svc}
	return m
}

// Synthesizer builds the feature synthesizer for the configured holiday subdivision
// It panics on an unknown subdivision
func Synthesizer(opts Options) *features.Synthesizer {
	h, err := holiday.New(opts.HolidaySubdivision)
	if err != nil {
		panic(err)
	}
	return features.New(h)
}

// Name returns the module name
func (m *Module) Name() string { return Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }

// Metrics returns the run counters
func (m *Module) Metrics() *metrics.Run { return m.metrics }
