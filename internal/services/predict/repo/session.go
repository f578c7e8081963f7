package repo

import (
	"context"

	"crimecast/internal/modkit/repokit"
	"crimecast/internal/services/predict/domain"
)

// TxSession runs every unit of work in its own Postgres transaction
type TxSession struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.WarehouseRepo]
}

// Do implements domain.Session
func (s TxSession) Do(ctx context.Context, fn func(domain.WarehouseRepo) error) error {
	return repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		return fn(repokit.MustBind(s.Binder, q))
	})
}

// Direct hands the same repo to every unit of work; for stores without transactions
type Direct struct {
	Repo domain.WarehouseRepo
}

// Do implements domain.Session
func (s Direct) Do(ctx context.Context, fn func(domain.WarehouseRepo) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s.Repo)
}
