package modkit

import (
	"crimecast/internal/modkit/repokit"
	"crimecast/internal/platform/config"
	"crimecast/internal/platform/logger"
	"crimecast/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	RDS *redis.Client
}

// FromStore copies the opened backends out of st; a nil store yields deps with no backends
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st == nil {
		return d
	}
	d.PG, d.CH, d.RDS = st.PG, st.CH, st.RDS
	return d
}
