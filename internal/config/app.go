package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port" validate:"required,numeric"`
}

type DbServer struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `mapstructure:"max_conns" validate:"min=1"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		config.User, config.Pass, config.Host, config.Port, config.Name, config.SSLMode,
	)
}

type HTTPClient struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	MaxAttempts    int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff" validate:"min=0"`
}

type Logging struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type Provider struct {
	Name    string `mapstructure:"name" validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// FX holds the engine knobs.
type FX struct {
	Enabled              bool          `mapstructure:"enabled"`
	DynamicFetch         bool          `mapstructure:"dynamic_fetch"`
	BaseCurrency         string        `mapstructure:"base_currency" validate:"len=3,uppercase"`
	Quotes               []string      `mapstructure:"quotes" validate:"min=1,dive,len=3,uppercase"`
	Provider             Provider      `mapstructure:"provider"`
	StalenessWarnDays    int           `mapstructure:"staleness_warn_days" validate:"min=0"`
	DailyBackfillDays    int           `mapstructure:"daily_backfill_days" validate:"min=1"`
	WideGapThresholdDays int           `mapstructure:"wide_gap_threshold_days" validate:"min=1"`
	ForwardWarmDays      int           `mapstructure:"forward_warm_days" validate:"min=0"`
	StartupBackfillDays  int           `mapstructure:"startup_backfill_days" validate:"min=1"`
	StartupMinRows       int64         `mapstructure:"startup_min_rows" validate:"min=0"`
	ChunkSizeDays        int           `mapstructure:"chunk_size_days" validate:"min=1"`
	WarmupWorkers        int           `mapstructure:"warmup_workers" validate:"min=1"`
	LookupTimeout        time.Duration `mapstructure:"lookup_timeout" validate:"gt=0"`
}

// Scheduler holds six-field cron expressions.
type Scheduler struct {
	IngestCron   string `mapstructure:"ingest_cron" validate:"required"`
	BackfillCron string `mapstructure:"backfill_cron" validate:"required"`
	WarmupCron   string `mapstructure:"warmup_cron" validate:"required"`
}

type Kafka struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers" validate:"required_if=Enabled true"`
	Topic   string   `mapstructure:"topic" validate:"required_if=Enabled true"`
	GroupID string   `mapstructure:"group_id" validate:"required_if=Enabled true"`
}

type Memo struct {
	MaxItems int64         `mapstructure:"max_items" validate:"min=1"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type RateLimit struct {
	// Admin is a ulule/limiter formatted rate, e.g. "5-M".
	Admin string `mapstructure:"admin" validate:"required"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	Logging    Logging    `mapstructure:"logging"`
	FX         FX         `mapstructure:"fx"`
	Scheduler  Scheduler  `mapstructure:"scheduler"`
	Kafka      Kafka      `mapstructure:"kafka"`
	Memo       Memo       `mapstructure:"memo"`
	RateLimit  RateLimit  `mapstructure:"rate_limit"`
}

// Init reads .env (optional), the YAML config file and the environment, in increasing precedence.
// An empty path means ./config.yaml, which may be absent.
func Init(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	normalize(&cfg)

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", "8080")

	v.SetDefault("db_server.port", "5432")
	v.SetDefault("db_server.ssl_mode", "disable")
	v.SetDefault("db_server.max_conns", 10)

	v.SetDefault("http_client.connect_timeout", "5s")
	v.SetDefault("http_client.read_timeout", "15s")
	v.SetDefault("http_client.max_attempts", 3)
	v.SetDefault("http_client.retry_backoff", "300ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("fx.enabled", true)
	v.SetDefault("fx.dynamic_fetch", false)
	v.SetDefault("fx.base_currency", "EUR")
	v.SetDefault("fx.quotes", []string{"HUF", "USD"})
	v.SetDefault("fx.provider.name", "Frankfurter")
	v.SetDefault("fx.provider.base_url", "https://api.frankfurter.app")
	v.SetDefault("fx.staleness_warn_days", 5)
	v.SetDefault("fx.daily_backfill_days", 30)
	v.SetDefault("fx.wide_gap_threshold_days", 7)
	v.SetDefault("fx.forward_warm_days", 90)
	v.SetDefault("fx.startup_backfill_days", 1100)
	v.SetDefault("fx.startup_min_rows", 1000)
	v.SetDefault("fx.chunk_size_days", 120)
	v.SetDefault("fx.warmup_workers", 4)
	v.SetDefault("fx.lookup_timeout", "30s")

	v.SetDefault("scheduler.ingest_cron", "0 10 6 * * *")
	v.SetDefault("scheduler.backfill_cron", "0 30 6 * * *")
	v.SetDefault("scheduler.warmup_cron", "0 0 7 * * *")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "transactions.saved")
	v.SetDefault("kafka.group_id", "fxengine")

	v.SetDefault("memo.max_items", 100000)
	v.SetDefault("memo.ttl", "6h")

	v.SetDefault("rate_limit.admin", "5-M")
}

func bindEnv(v *viper.Viper) {
	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// http server env vars
	_ = v.BindEnv("http_server.port", "HTTP_PORT")

	// logging env vars
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")

	// fx env vars
	_ = v.BindEnv("fx.enabled", "FX_ENABLED")
	_ = v.BindEnv("fx.dynamic_fetch", "FX_DYNAMIC_FETCH")
	_ = v.BindEnv("fx.base_currency", "FX_BASE_CURRENCY")
	_ = v.BindEnv("fx.quotes", "FX_QUOTES")
	_ = v.BindEnv("fx.provider.base_url", "FX_PROVIDER_BASE_URL")

	// kafka env vars
	_ = v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

func normalize(cfg *AppConfig) {
	cfg.FX.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.FX.BaseCurrency))
	quotes := cfg.FX.Quotes[:0]
	for _, q := range cfg.FX.Quotes {
		if q = strings.ToUpper(strings.TrimSpace(q)); q != "" {
			quotes = append(quotes, q)
		}
	}
	cfg.FX.Quotes = quotes
	cfg.FX.Provider.BaseURL = strings.TrimSuffix(cfg.FX.Provider.BaseURL, "/")
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
}
