package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"crimecast/internal/core/ranges"
	"crimecast/internal/modkit"
	"crimecast/internal/modkit/repokit"
	"crimecast/internal/platform/config"
	"crimecast/internal/platform/logger"
	"crimecast/internal/platform/store"

	predictdom "crimecast/internal/services/predict/domain"
	predictmod "crimecast/internal/services/predict/module"
)

const (
	hourLayout = "2006-01-02T15"
	dateLayout = "2006-01-02"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Get().Warn().Err(err).Msg("failed to load .env")
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var modelsDir string

	cmd := &cobra.Command{
		Use:   "crimecast-predict",
		Short: "Batch forecasting of hourly crime counts into the warehouse",
		PersistentPreRun: func(*cobra.Command, []string) {
			mustSetEnv("CORE_PREDICT_MODELS_DIR", modelsDir)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&modelsDir, "models-dir", "", "directory of model artifacts (overrides CORE_PREDICT_MODELS_DIR)")

	cmd.AddCommand(runCmd(), rangesCmd(), syncDimsCmd(), featuresCmd())
	return cmd
}

func runCmd() *cobra.Command {
	var testStart, testEnd string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Predict every artifact and export the test and future windows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logger.WithRun(cmd.Context(), uuid.NewString())
			log := logger.C(ctx)

			app, done := mustOpen(ctx)
			defer done()

			rs, err := resolveRanges(ctx, app, testStart, testEnd)
			if err != nil {
				return err
			}

			began := time.Now()
			sum, runErr := app.runner().Run(ctx, rs)
			app.mod.Metrics().Observe(began)

			if err := app.mod.Metrics().Push(ctx, app.mod.Options().PushgatewayURL, sum.RunID); err != nil {
				log.Warn().Err(err).Msg("metrics push failed")
			}
			if runErr != nil {
				return runErr
			}
			log.Info().
				Int("processed", sum.Processed).
				Int("skipped", sum.Skipped).
				Int("dates", sum.Dates).
				Int("hours", sum.Hours).
				Msg("predict done")
			return nil
		},
	}
	cmd.Flags().StringVar(&testStart, "test-start", "", "UTC test window start YYYY-MM-DDTHH (with --test-end)")
	cmd.Flags().StringVar(&testEnd, "test-end", "", "UTC test window end YYYY-MM-DDTHH inclusive")
	return cmd
}

func rangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges",
		Short: "Print the test, future and full windows derived from the warehouse",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, done := mustOpen(ctx)
			defer done()

			rs, err := app.runner().Ranges(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range []struct {
				name string
				r    ranges.Range
			}{{"test", rs.Test}, {"future", rs.Future}, {"full", rs.Full}} {
				fmt.Fprintf(out, "%-7s %s .. %s (%d hours)\n", w.name,
					w.r.Start().Format(hourLayout), w.r.End().Format(hourLayout), w.r.Len())
			}
			return nil
		},
	}
}

func syncDimsCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "sync-dims",
		Short: "Ensure dim_date covers [start, end] and dim_time holds every hour",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := parseSpan(dateLayout, start, end)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app, done := mustOpen(ctx)
			defer done()

			dates, hours, err := app.runner().SyncDims(ctx, from, to)
			if err != nil {
				return err
			}
			logger.C(ctx).Info().Int("dates", dates).Int("hours", hours).Msg("dimensions synced")
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last date YYYY-MM-DD inclusive")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func featuresCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Write the synthesized feature frame for [start, end] as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := parseSpan(hourLayout, start, end)
			if err != nil {
				return err
			}
			synth := predictmod.Synthesizer(predictmod.FromConfig(config.New()))
			return synth.Build(from, to).WriteCSV(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "UTC start hour YYYY-MM-DDTHH")
	cmd.Flags().StringVar(&end, "end", "", "UTC end hour YYYY-MM-DDTHH inclusive")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// resolveRanges uses the explicit test window when both bounds are given, else derives it
func resolveRanges(ctx context.Context, app *app, testStart, testEnd string) (ranges.Ranges, error) {
	if testStart == "" && testEnd == "" {
		return app.runner().Ranges(ctx)
	}
	from, to, err := parseSpan(hourLayout, testStart, testEnd)
	if err != nil {
		return ranges.Ranges{}, err
	}
	return ranges.Explicit(from, to)
}

func parseSpan(layout, start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("both start and end are required")
	}
	from, err := time.ParseInLocation(layout, start, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start %q: %w", start, err)
	}
	to, err := time.ParseInLocation(layout, end, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end %q: %w", end, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s before start %s", end, start)
	}
	return from, to, nil
}

type app struct {
	mod *predictmod.Module
}

func (a *app) runner() predictdom.RunnerPort {
	return modkit.MustPortsOf[predictmod.Ports](a.mod).Runner
}

// mustOpen opens the configured backends and registers the predict module
func mustOpen(ctx context.Context) (*app, func()) {
	root := config.New()
	l := logger.Get()

	st, err := store.Open(ctx, storeConfig(root), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	done := func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}

	deps := modkit.FromStore(*l, root, st)
	repokit.MustGuard(ctx, st)
	mod := predictmod.New(deps)
	modkit.Register(mod)
	return &app{mod: mod}, done
}

// storeConfig enables each backend whose url is set
func storeConfig(root config.Conf) store.Config {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	rdsCfg := root.Prefix("SERVICE_REDIS_")

	return store.Config{
		AppName: "crimecast-predict",
		PG: store.PGConfig{
			Enabled:     pgCfg.Has("DBURL"),
			URL:         pgCfg.MayString("DBURL", ""),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chCfg.Has("DBURL"),
			URL:        chCfg.MayString("DBURL", ""),
			LogSQL:     chCfg.MayBool("LOG_SQL", false),
			ClientName: "crimecast",
			ClientTag:  "predict",
		},
		RDS: store.RedisConfig{
			Enabled: rdsCfg.Has("URL"),
			URL:     rdsCfg.MayString("URL", ""),
		},
	}
}
