package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"fxengine/internal/adapters/cache"
	"fxengine/internal/adapters/httpclient"
	"fxengine/internal/adapters/kafka"
	"fxengine/internal/adapters/postgres"
	"fxengine/internal/api"
	"fxengine/internal/config"
	"fxengine/internal/platform/db"
	httpserver "fxengine/internal/platform/http"
	"fxengine/internal/platform/metrics"
	"fxengine/internal/rate"
	"fxengine/internal/rate/handler"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"golang.org/x/sync/errgroup"
)

// App holds the wired components. Close releases them.
type App struct {
	cfg      *config.AppConfig
	pool     *pgxpool.Pool
	registry *prometheus.Registry
	memo     *cache.RistrettoLookupMemo
	engine   *rate.Service
}

// SetupLogger configures the package-level logrus logger.
func SetupLogger(cfg config.Logging) {
	logrus.SetOutput(os.Stdout)
	if parsedLvl, parseErr := logrus.ParseLevel(cfg.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// OpenDB connects to Postgres and applies pending migrations.
func OpenDB(ctx context.Context, cfg config.DbServer) (*pgxpool.Pool, error) {
	pool, err := db.CreatePoolAndPing(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to db: %w", err)
	}
	logrus.Info("✅ Postgres connection successful")

	if err = db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error migrating db: %w", err)
	}
	logrus.Info("✅ Migrations applied")
	return pool, nil
}

// New builds the FX engine on top of an opened database.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	pool, err := OpenDB(ctx, cfg.DbServer)
	if err != nil {
		return nil, err
	}

	memo, err := cache.NewLookupMemo(cfg.Memo.MaxItems, cfg.Memo.TTL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error creating lookup memo: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	provider := httpclient.NewFrankfurterClient(
		httpclient.NewHTTPClient(cfg.HTTPClient.ConnectTimeout, cfg.HTTPClient.ReadTimeout),
		cfg.FX.Provider.BaseURL,
		cfg.FX.Provider.Name,
		cfg.HTTPClient.MaxAttempts,
		cfg.HTTPClient.RetryBackoff,
	)

	engine := rate.NewService(engineSettings(cfg.FX, cfg.Scheduler), rate.NewMode(cfg.FX.Enabled, cfg.FX.DynamicFetch), rate.Deps{
		Store:    postgres.NewRateRepository(pool),
		Provider: provider,
		Audit:    postgres.NewAuditRepository(pool),
		Memo:     memo,
		Clock:    clockwork.NewRealClock(),
		Metrics:  metrics.NewFxMetrics(registry),
	})
	logrus.Infof("✅ FX engine ready (base %s, quotes %v, mode %s)", cfg.FX.BaseCurrency, cfg.FX.Quotes, engine.Mode().Name())

	return &App{cfg: cfg, pool: pool, registry: registry, memo: memo, engine: engine}, nil
}

func (a *App) Engine() *rate.Service { return a.engine }

func (a *App) Close() {
	a.memo.Close()
	a.pool.Close()
}

// Serve runs the startup ingestion, the schedulers, the transactions consumer and the HTTP server
// until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	if err := a.engine.Startup(ctx); err != nil {
		return fmt.Errorf("fx startup failed: %w", err)
	}
	logrus.Info("✅ FX startup ingestion finished")

	adminRate, err := limiter.NewRateFromFormatted(a.cfg.RateLimit.Admin)
	if err != nil {
		return fmt.Errorf("invalid admin rate limit %q: %w", a.cfg.RateLimit.Admin, err)
	}

	backfill, warmer := a.engine.Jobs()
	scheduler := rate.NewScheduler(backfill, warmer, clockwork.NewRealClock(), schedule(a.cfg.Scheduler))
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Info("✅ Scheduler activation successful")

	validator := rate.NewValidator(a.cfg.FX.BaseCurrency, a.engine.SupportedCurrencies())
	router := api.NewRouter(handler.NewRateHandler(validator, a.engine), adminRate, a.registry)

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.Kafka.Enabled {
		consumer := kafka.NewTransactionsConsumer(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, a.cfg.Kafka.GroupID, a.engine)
		g.Go(func() error { return consumer.Run(gctx) })
		logrus.Infof("✅ Consuming %s", a.cfg.Kafka.Topic)
	}
	g.Go(func() error {
		logrus.Info("Starting http server")
		return httpserver.Start(gctx, a.cfg.HTTPServer, router)
	})
	return g.Wait()
}

func schedule(cfg config.Scheduler) rate.Schedule {
	return rate.Schedule{
		IngestCron:   cfg.IngestCron,
		BackfillCron: cfg.BackfillCron,
		WarmupCron:   cfg.WarmupCron,
	}
}

func engineSettings(cfg config.FX, sched config.Scheduler) rate.Settings {
	return rate.Settings{
		Base:                 cfg.BaseCurrency,
		Quotes:               cfg.Quotes,
		StalenessWarnDays:    cfg.StalenessWarnDays,
		DailyBackfillDays:    cfg.DailyBackfillDays,
		WideGapThresholdDays: cfg.WideGapThresholdDays,
		ForwardWarmDays:      cfg.ForwardWarmDays,
		StartupBackfillDays:  cfg.StartupBackfillDays,
		StartupMinRows:       cfg.StartupMinRows,
		ChunkSizeDays:        cfg.ChunkSizeDays,
		WarmupWorkers:        cfg.WarmupWorkers,
		LookupTimeout:        cfg.LookupTimeout,
		Schedule:             schedule(sched),
	}
}
