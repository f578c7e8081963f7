package module

import (
	"time"

	"crimecast/internal/adapters/notify"
	"crimecast/internal/platform/config"
	"crimecast/internal/services/predict/repo"
)

// Warehouse backends
const (
	WarehousePG = "pg"
	WarehouseCH = "ch"
)

// Options holds configuration settings for the predict module
type Options struct {
	ModelsDir          string
	Warehouse          string
	FactTable          string
	TestTable          string
	FutureTable        string
	HolidaySubdivision string
	ZeroFill           bool
	NotifyChannel      string
	PushgatewayURL     string
	StatementTimeout   time.Duration
}

// FromConfig reads the predict options from config with CORE_PREDICT_ prefix
func FromConfig(cfg config.Conf) Options {
	pf := cfg.Prefix("CORE_PREDICT_")
	return Options{
		ModelsDir:          pf.MayPath("MODELS_DIR", "models_to_use"),
		Warehouse:          pf.MayEnum("WAREHOUSE", WarehousePG, WarehousePG, WarehouseCH),
		FactTable:          pf.MayString("FACT_TABLE", repo.DefaultFactTable),
		TestTable:          pf.MayString("TEST_TABLE", "prediction_test"),
		FutureTable:        pf.MayString("FUTURE_TABLE", "prediction_future"),
		HolidaySubdivision: pf.MayString("HOLIDAY_SUBDIVISION", "CA"),
		ZeroFill:           pf.MayBool("ZERO_FILL", true),
		NotifyChannel:      pf.MayString("NOTIFY_CHANNEL", notify.DefaultChannel),
		PushgatewayURL:     pf.MayString("PUSHGATEWAY_URL", ""),
		StatementTimeout:   pf.MayDuration("STATEMENT_TIMEOUT", 0),
	}
}
