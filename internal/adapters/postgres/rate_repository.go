package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fxengine/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const rateColumns = `rate_date, base_currency, quote_currency, rate_mid::text, provider, fetched_at`

type RateRepository struct {
	pool *pgxpool.Pool
}

func (r *RateRepository) FindExact(ctx context.Context, date time.Time, base, quote string) (domain.ExchangeRate, error) {
	const q = `
		select ` + rateColumns + `
		from fx_exchange_rates
		where rate_date = $1 and base_currency = $2 and quote_currency = $3;
	`
	return r.queryOne(ctx, q, fmt.Sprintf("%s/%s at %s", base, quote, domain.FormatDate(date)), date, base, quote)
}

func (r *RateRepository) FindLatestOnOrBefore(ctx context.Context, base, quote string, date time.Time) (domain.ExchangeRate, error) {
	const q = `
		select ` + rateColumns + `
		from fx_exchange_rates
		where base_currency = $1 and quote_currency = $2 and rate_date <= $3
		order by rate_date desc
		limit 1;
	`
	return r.queryOne(ctx, q, fmt.Sprintf("%s/%s on or before %s", base, quote, domain.FormatDate(date)), base, quote, date)
}

func (r *RateRepository) FindLatestOverall(ctx context.Context, base, quote string) (domain.ExchangeRate, error) {
	const q = `
		select ` + rateColumns + `
		from fx_exchange_rates
		where base_currency = $1 and quote_currency = $2
		order by rate_date desc
		limit 1;
	`
	return r.queryOne(ctx, q, fmt.Sprintf("latest %s/%s", base, quote), base, quote)
}

func (r *RateRepository) FindLatestOnOrAfter(ctx context.Context, base, quote string, date time.Time) (domain.ExchangeRate, error) {
	const q = `
		select ` + rateColumns + `
		from fx_exchange_rates
		where base_currency = $1 and quote_currency = $2 and rate_date >= $3
		order by rate_date asc
		limit 1;
	`
	return r.queryOne(ctx, q, fmt.Sprintf("%s/%s on or after %s", base, quote, domain.FormatDate(date)), base, quote, date)
}

func (r *RateRepository) FindRange(ctx context.Context, base, quote string, start, end time.Time) ([]domain.ExchangeRate, error) {
	const q = `
		select ` + rateColumns + `
		from fx_exchange_rates
		where base_currency = $1 and quote_currency = $2 and rate_date between $3 and $4
		order by rate_date asc;
	`

	rows, err := r.pool.Query(ctx, q, base, quote, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for %s/%s: %w", base, quote, err)
	}
	defer rows.Close()

	rates := make([]domain.ExchangeRate, 0, 64)
	for rows.Next() {
		rate, scanErr := scanRate(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", scanErr)
		}
		rates = append(rates, rate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rates: %w", err)
	}
	return rates, nil
}

// Upsert writes one rate and reports whether the row was new.
func (r *RateRepository) Upsert(ctx context.Context, rate domain.ExchangeRate) (bool, error) {
	const q = `
		insert into fx_exchange_rates (rate_date, base_currency, quote_currency, rate_mid, provider, fetched_at)
		values ($1, $2, $3, $4::numeric, $5, $6)
		on conflict (rate_date, base_currency, quote_currency) do update
		set rate_mid = excluded.rate_mid, provider = excluded.provider, fetched_at = excluded.fetched_at
		returning (xmax = 0) as inserted;
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, q,
		rate.RateDate, rate.Base, rate.Quote, rate.RateMid.String(), rate.Provider, rate.FetchedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert rate %s/%s at %s: %w", rate.Base, rate.Quote, domain.FormatDate(rate.RateDate), err)
	}
	return inserted, nil
}

type rateRow struct {
	RateDate  string    `json:"rate_date"`
	Base      string    `json:"base_currency"`
	Quote     string    `json:"quote_currency"`
	RateMid   string    `json:"rate_mid"`
	Provider  string    `json:"provider"`
	FetchedAt time.Time `json:"fetched_at"`
}

// UpsertBatch writes all rates of one provider answer in a single transaction.
func (r *RateRepository) UpsertBatch(ctx context.Context, rates []domain.ExchangeRate) (int, int, error) {
	if len(rates) == 0 {
		return 0, 0, nil
	}

	payload := make([]rateRow, 0, len(rates))
	for _, rate := range rates {
		payload = append(payload, rateRow{
			RateDate:  domain.FormatDate(rate.RateDate),
			Base:      rate.Base,
			Quote:     rate.Quote,
			RateMid:   rate.RateMid.String(),
			Provider:  rate.Provider,
			FetchedAt: rate.FetchedAt,
		})
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal rates: %w", err)
	}

	const q = `
		with input_rows as (
		  select * from json_to_recordset($1::json) as r(
		    rate_date date, base_currency text, quote_currency text, rate_mid numeric, provider text, fetched_at timestamptz
		  )
		)
		insert into fx_exchange_rates (rate_date, base_currency, quote_currency, rate_mid, provider, fetched_at)
		select rate_date, base_currency, quote_currency, rate_mid, provider, fetched_at from input_rows
		on conflict (rate_date, base_currency, quote_currency) do update
		set rate_mid = excluded.rate_mid, provider = excluded.provider, fetched_at = excluded.fetched_at
		returning (xmax = 0) as inserted;
	`

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, q, json.RawMessage(payloadJSON))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to execute query: %w", err)
	}
	var inserted, updated int
	for rows.Next() {
		var isNew bool
		if err = rows.Scan(&isNew); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("failed to scan upsert result: %w", err)
		}
		if isNew {
			inserted++
		} else {
			updated++
		}
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("error iterating upsert results: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, updated, nil
}

func (r *RateRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `select count(*) from fx_exchange_rates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rates: %w", err)
	}
	return n, nil
}

// MissingDates lists every day in [start, end] where at least one of the quotes has no row.
func (r *RateRepository) MissingDates(ctx context.Context, base string, quotes []string, start, end time.Time) ([]time.Time, error) {
	if len(quotes) == 0 || end.Before(start) {
		return nil, nil
	}

	const q = `
		select d::date
		from generate_series($3::date, $4::date, interval '1 day') as d
		where (
		  select count(distinct r.quote_currency)
		  from fx_exchange_rates r
		  where r.rate_date = d::date and r.base_currency = $1 and r.quote_currency = any($2::text[])
		) < cardinality($2::text[])
		order by d;
	`

	rows, err := r.pool.Query(ctx, q, base, quotes, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing dates: %w", err)
	}
	defer rows.Close()

	var missing []time.Time
	for rows.Next() {
		var day time.Time
		if err = rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan missing date: %w", err)
		}
		missing = append(missing, domain.DateOf(day))
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missing dates: %w", err)
	}
	return missing, nil
}

func (r *RateRepository) queryOne(ctx context.Context, q, what string, args ...any) (domain.ExchangeRate, error) {
	rate, err := scanRate(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ExchangeRate{}, domain.ErrRateNotFound
		}
		return domain.ExchangeRate{}, fmt.Errorf("failed to select rate %s: %w", what, err)
	}
	return rate, nil
}

func scanRate(row pgx.Row) (domain.ExchangeRate, error) {
	var (
		rate    domain.ExchangeRate
		rateMid string
	)
	if err := row.Scan(&rate.RateDate, &rate.Base, &rate.Quote, &rateMid, &rate.Provider, &rate.FetchedAt); err != nil {
		return domain.ExchangeRate{}, err
	}
	mid, err := decimal.NewFromString(rateMid)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("invalid rate_mid %q: %w", rateMid, err)
	}
	rate.RateMid = mid
	rate.RateDate = domain.DateOf(rate.RateDate)
	return rate, nil
}

func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}
