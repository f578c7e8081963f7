package pg

import (
	"context"
	"strings"

	"crimecast/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one executed statement
type QueryEvent struct {
	SQL       string
	Args      any
	Rows      int64
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives a QueryEvent per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that logs every statement regardless of the root level
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "sql").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := z.log.Debug()
	switch {
	case ev.Err != nil:
		evt = z.log.Error().Err(ev.Err)
	case ev.Slow:
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Int64("rows", ev.Rows).
		Str("sql", Compact(ev.SQL)).
		Interface("args", ev.Args).
		Msg("sql")
}

// Compact collapses whitespace runs so multi-line statements log on one line
func Compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
