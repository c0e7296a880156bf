package rate

import (
	"slices"
	"sync/atomic"
	"time"
)

// Source names reported in LookupResult.Source for answers that did not come from a stored row.
const (
	SourceSnapshot = "CACHE"
	SourceIdentity = "IDENTITY"
)

const defaultVolatilityWindow = 30

// Settings are the resolved engine knobs.
type Settings struct {
	Base                 string
	Quotes               []string
	StalenessWarnDays    int
	DailyBackfillDays    int
	WideGapThresholdDays int
	ForwardWarmDays      int
	StartupBackfillDays  int
	StartupMinRows       int64
	ChunkSizeDays        int
	WarmupWorkers        int
	LookupTimeout        time.Duration
	Schedule             Schedule
}

// QuoteCodes returns the configured quotes without the base, in configuration order.
func (s Settings) QuoteCodes() []string {
	out := make([]string, 0, len(s.Quotes))
	for _, q := range s.Quotes {
		if q != s.Base && !slices.Contains(out, q) {
			out = append(out, q)
		}
	}
	return out
}

// Mode holds the runtime switches that admin operations may flip.
type Mode struct {
	enabled atomic.Bool
	dynamic atomic.Bool
}

func (m *Mode) Enabled() bool { return m.enabled.Load() }

func (m *Mode) Dynamic() bool { return m.dynamic.Load() }

// DynamicActive reports whether on-demand and scheduled fetching may run.
func (m *Mode) DynamicActive() bool { return m.Enabled() && m.Dynamic() }

func (m *Mode) SetDynamic(on bool) { m.dynamic.Store(on) }

// ToggleDynamic flips dynamic fetch and returns the new value.
func (m *Mode) ToggleDynamic() bool {
	for {
		cur := m.dynamic.Load()
		if m.dynamic.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

func (m *Mode) Name() string {
	if m.Dynamic() {
		return "dynamic-fetch"
	}
	return "cache-only"
}

func NewMode(enabled, dynamic bool) *Mode {
	m := &Mode{}
	m.enabled.Store(enabled)
	m.dynamic.Store(dynamic)
	return m
}
