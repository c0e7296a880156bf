package postgres

import (
	"context"
	"fmt"

	"fxengine/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func (r *AuditRepository) Record(ctx context.Context, rec domain.AuditRecord) error {
	const q = `
		insert into fx_lookup_audit
		  (base_currency, quote_currency, requested_date, resolved_date, rate, provisional, warnings, created_at)
		values ($1, $2, $3, $4, $5::numeric, $6, $7, $8);
	`

	_, err := r.pool.Exec(ctx, q,
		rec.Base, rec.Quote, rec.RequestedDate, rec.ResolvedDate, rec.Rate.String(), rec.Provisional, rec.Warnings, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lookup audit for %s/%s: %w", rec.Base, rec.Quote, err)
	}
	return nil
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}
