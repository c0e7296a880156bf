package domain

import (
	"fmt"
	"strings"
	"time"
)

type WarningCode string

const (
	WarningFutureDateFallback         WarningCode = "FUTURE_DATE_FALLBACK"
	WarningProvisionalRate            WarningCode = "PROVISIONAL_RATE"
	WarningMissingRateFetched         WarningCode = "MISSING_RATE_FETCHED"
	WarningStaleRate                  WarningCode = "STALE_RATE"
	WarningHistoricalGapFallback      WarningCode = "HISTORICAL_GAP_FALLBACK"
	WarningHistoricalGapTodayFallback WarningCode = "HISTORICAL_GAP_TODAY_FALLBACK"
	WarningExternalServiceFailure     WarningCode = "EXTERNAL_SERVICE_FAILURE"
)

type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

func (c WarningCode) Severity() Severity {
	switch c {
	case WarningProvisionalRate, WarningMissingRateFetched:
		return SeverityInfo
	case WarningExternalServiceFailure:
		return SeverityError
	default:
		return SeverityWarn
	}
}

type Warning struct {
	Code     WarningCode `json:"code"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`
}

func newWarning(code WarningCode, msg string) Warning {
	return Warning{Code: code, Severity: code.Severity(), Message: msg}
}

func FutureDateWarning(requested time.Time) Warning {
	return newWarning(WarningFutureDateFallback,
		fmt.Sprintf("Future booking date %s -> using today's rate.", FormatDate(requested)))
}

func ProvisionalWarning() Warning {
	return newWarning(WarningProvisionalRate, "Rate provisional until actual historical quote becomes available.")
}

func MissingRateFetchedWarning(day time.Time) Warning {
	return newWarning(WarningMissingRateFetched,
		fmt.Sprintf("Rate for %s was missing and has been fetched on demand.", FormatDate(day)))
}

func StaleRateWarning(used time.Time, ageDays int) Warning {
	return newWarning(WarningStaleRate,
		fmt.Sprintf("Rate from %s is %d days older than requested.", FormatDate(used), ageDays))
}

func GapFallbackWarning(requested, used time.Time) Warning {
	return newWarning(WarningHistoricalGapFallback,
		fmt.Sprintf("Exact date %s unavailable; used %s.", FormatDate(requested), FormatDate(used)))
}

func GapTodayFallbackWarning(requested, used time.Time) Warning {
	return newWarning(WarningHistoricalGapTodayFallback,
		fmt.Sprintf("No historical rate near %s; using latest (%s).", FormatDate(requested), FormatDate(used)))
}

func ExternalServiceFailureWarning() Warning {
	return newWarning(WarningExternalServiceFailure, "External FX provider unreachable; fallback logic applied.")
}

// JoinCodes renders warning codes the way audit rows store them.
func JoinCodes(warnings []Warning) string {
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, string(w.Code))
	}
	return strings.Join(codes, ",")
}
