package handler

import (
	"net/http"
	"strconv"
	"time"

	"fxengine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type QuoteHealthResponse struct {
	Quote      string `json:"quote" example:"HUF"`
	LatestDate string `json:"latest_date,omitempty" example:"2024-05-14"`
}

type IngestionStatsResponse struct {
	Inserted int64 `json:"inserted"`
	Updated  int64 `json:"updated"`
	Failures int64 `json:"failures"`
}

type HealthResponse struct {
	Mode        string                 `json:"mode" example:"cache-only"`
	Enabled     bool                   `json:"enabled"`
	Quotes      []QuoteHealthResponse  `json:"quotes"`
	Ingestion   IngestionStatsResponse `json:"ingestion"`
	LastRefresh *RefreshResponse       `json:"last_refresh,omitempty"`
}

type ModeResponse struct {
	Mode         string `json:"mode" example:"dynamic-fetch"`
	Enabled      bool   `json:"enabled"`
	DynamicFetch bool   `json:"dynamic_fetch"`
}

type SettingsResponse struct {
	BaseCurrency         string   `json:"base_currency" example:"EUR"`
	Quotes               []string `json:"quotes" example:"HUF,USD"`
	Provider             string   `json:"provider" example:"Frankfurter"`
	Enabled              bool     `json:"enabled"`
	DynamicFetch         bool     `json:"dynamic_fetch"`
	StalenessWarnDays    int      `json:"staleness_warn_days" example:"5"`
	DailyBackfillDays    int      `json:"daily_backfill_days" example:"30"`
	WideGapThresholdDays int      `json:"wide_gap_threshold_days" example:"7"`
	ForwardWarmDays      int      `json:"forward_warm_days" example:"90"`
	StartupBackfillDays  int      `json:"startup_backfill_days" example:"1100"`
	ChunkSizeDays        int      `json:"chunk_size_days" example:"120"`
	IngestCron           string   `json:"ingest_cron" example:"0 10 6 * * *"`
	BackfillCron         string   `json:"backfill_cron" example:"0 30 6 * * *"`
	WarmupCron           string   `json:"warmup_cron" example:"0 0 7 * * *"`
}

type RefreshResponse struct {
	RunID    string    `json:"run_id" example:"6f1c1c9e-3a7b-4e55-9d1e-0c7e0f8a4b21"`
	At       time.Time `json:"at"`
	Days     int       `json:"days" example:"30"`
	Ingested int       `json:"ingested" example:"3"`
	Error    string    `json:"error,omitempty"`
}

type VolatilityResponse struct {
	Quote      string           `json:"quote" example:"HUF"`
	Mean       *decimal.Decimal `json:"mean,omitempty" swaggertype:"string"`
	StdDev     *decimal.Decimal `json:"std_dev,omitempty" swaggertype:"string"`
	Min        *decimal.Decimal `json:"min,omitempty" swaggertype:"string"`
	Max        *decimal.Decimal `json:"max,omitempty" swaggertype:"string"`
	SampleSize int              `json:"sample_size"`
	Partial    bool             `json:"partial"`
}

// Health godoc
// @Summary FX subsystem health
// @Description Newest stored day per quote, operating mode, ingestion counters and the last manual refresh
// @Tags FX
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 500 {object} errorResponse
// @Router /fx/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.engine.Health(r.Context())
	if err != nil {
		logrus.WithError(err).WithField("handler", "Health").Error("fx health failed")
		writeError(w, http.StatusInternalServerError, "failed to read fx health")
		return
	}

	mode := h.engine.Mode()
	stats := h.engine.IngestionStats()
	resp := HealthResponse{
		Mode:      mode.Name(),
		Enabled:   mode.Enabled(),
		Quotes:    make([]QuoteHealthResponse, 0, len(quotes)),
		Ingestion: IngestionStatsResponse{Inserted: stats.Inserted, Updated: stats.Updated, Failures: stats.Failures},
	}
	for _, q := range quotes {
		qh := QuoteHealthResponse{Quote: q.Quote}
		if q.LatestDate != nil {
			qh.LatestDate = domain.FormatDate(*q.LatestDate)
		}
		resp.Quotes = append(resp.Quotes, qh)
	}
	if outcome, ok := h.engine.LastRefresh(); ok {
		refresh := toRefreshResponse(outcome)
		resp.LastRefresh = &refresh
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetMode godoc
// @Summary Current operating mode
// @Tags FX
// @Produce json
// @Success 200 {object} ModeResponse
// @Router /fx/mode [get]
func (h *Handler) GetMode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.modeResponse())
}

// ToggleMode godoc
// @Summary Toggle dynamic fetch
// @Description Switch between cache-only and dynamic-fetch operation; memoized lookups are dropped
// @Tags FX
// @Produce json
// @Success 200 {object} ModeResponse
// @Failure 429 {object} errorResponse
// @Router /fx/mode/toggle [post]
func (h *Handler) ToggleMode(w http.ResponseWriter, _ *http.Request) {
	h.engine.ToggleDynamicFetch()
	writeJSON(w, http.StatusOK, h.modeResponse())
}

func (h *Handler) modeResponse() ModeResponse {
	mode := h.engine.Mode()
	return ModeResponse{Mode: mode.Name(), Enabled: mode.Enabled(), DynamicFetch: mode.Dynamic()}
}

// Refresh godoc
// @Summary Refresh rates
// @Description Fetch missing days of the trailing window and reload the snapshot
// @Tags FX
// @Produce json
// @Param days query int false "Window length in days, defaults to the startup window"
// @Success 200 {object} RefreshResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /fx/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	if _, err := h.engine.Refresh(r.Context(), days); err != nil {
		status, known := statusFor(err)
		if status == http.StatusConflict {
			writeError(w, status, err.Error())
			return
		}
		if !known {
			status = http.StatusInternalServerError
		}
		logrus.WithError(err).WithField("handler", "Refresh").Error("fx refresh failed")
		if outcome, ok := h.engine.LastRefresh(); ok {
			writeJSON(w, status, toRefreshResponse(outcome))
			return
		}
		writeError(w, status, "fx refresh failed")
		return
	}

	outcome, _ := h.engine.LastRefresh()
	writeJSON(w, http.StatusOK, toRefreshResponse(outcome))
}

// ClearCache godoc
// @Summary Clear the lookup memo
// @Tags FX
// @Success 204
// @Router /fx/cache/clear [post]
func (h *Handler) ClearCache(w http.ResponseWriter, _ *http.Request) {
	h.engine.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// Volatility godoc
// @Summary Rate volatility
// @Description Mean, sample standard deviation, min and max per quote over the trailing window ending yesterday
// @Tags FX
// @Produce json
// @Param days query int false "Window length in days" default(30)
// @Success 200 {array} VolatilityResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /fx/volatility [get]
func (h *Handler) Volatility(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 3660 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 3660")
			return
		}
		days = n
	}

	stats, err := h.engine.Volatility(r.Context(), days)
	if err != nil {
		logrus.WithError(err).WithField("handler", "Volatility").Error("fx volatility failed")
		writeError(w, http.StatusInternalServerError, "failed to compute volatility")
		return
	}

	resp := make([]VolatilityResponse, 0, len(stats))
	for _, v := range stats {
		resp = append(resp, VolatilityResponse{
			Quote:      v.Quote,
			Mean:       v.Mean,
			StdDev:     v.StdDev,
			Min:        v.Min,
			Max:        v.Max,
			SampleSize: v.SampleSize,
			Partial:    v.Partial,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toRefreshResponse(o domain.RefreshOutcome) RefreshResponse {
	return RefreshResponse{RunID: o.RunID, At: o.At, Days: o.Days, Ingested: o.Ingested, Error: o.Err}
}

// GetSettings godoc
// @Summary Effective FX settings
// @Description Base and quote currencies, provider, mode flags, backfill windows and job schedules in force
// @Tags FX
// @Produce json
// @Success 200 {object} SettingsResponse
// @Router /fx/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s := h.engine.EffectiveSettings()
	writeJSON(w, http.StatusOK, SettingsResponse{
		BaseCurrency:         s.Base,
		Quotes:               s.Quotes,
		Provider:             s.Provider,
		Enabled:              s.Enabled,
		DynamicFetch:         s.DynamicFetch,
		StalenessWarnDays:    s.StalenessWarnDays,
		DailyBackfillDays:    s.DailyBackfillDays,
		WideGapThresholdDays: s.WideGapThresholdDays,
		ForwardWarmDays:      s.ForwardWarmDays,
		StartupBackfillDays:  s.StartupBackfillDays,
		ChunkSizeDays:        s.ChunkSizeDays,
		IngestCron:           s.IngestCron,
		BackfillCron:         s.BackfillCron,
		WarmupCron:           s.WarmupCron,
	})
}
