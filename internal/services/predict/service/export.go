package service

import (
	"context"
	"time"

	perr "crimecast/internal/platform/errors"
	"crimecast/internal/platform/logger"
	"crimecast/internal/services/predict/domain"
)

// Export reconciles the dimensions referenced by rows, then appends rows to table
func (s *Service) Export(ctx context.Context, table string, rows []domain.PredictionRow) (int, error) {
	if !s.knownTable(table) {
		return 0, perr.WithField(perr.InvalidArgf("unknown destination table %q", table), "table")
	}
	log := logger.C(ctx)
	if len(rows) == 0 {
		log.Info().Str("table", table).Msg("nothing to export")
		return 0, nil
	}

	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = r.DateID
	}
	if _, err := s.SyncDates(ctx, dates); err != nil {
		return 0, err
	}
	if _, err := s.SyncTime(ctx); err != nil {
		return 0, err
	}

	var n int
	err := s.Session.Do(ctx, func(r domain.WarehouseRepo) error {
		var err error
		n, err = r.AppendPredictions(ctx, table, rows)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.Rec.RowsExported(table, n)
	log.Info().Str("table", table).Int("rows", n).Msg("exported")

	ev := domain.ExportEvent{
		RunID:      logger.RunID(ctx),
		ModelName:  rows[0].ModelName,
		DistrictID: rows[0].DistrictID,
		Table:      table,
		Rows:       n,
		From:       rows[0].Datetime,
		To:         rows[len(rows)-1].Datetime,
	}
	if err := s.Notify.Exported(ctx, ev); err != nil {
		// rows are already committed
		log.Warn().Err(err).Str("table", table).Msg("export notification failed")
	}
	return n, nil
}

func (s *Service) knownTable(table string) bool {
	return table != "" && (table == s.Cfg.TestTable || table == s.Cfg.FutureTable)
}
