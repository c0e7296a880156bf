package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LookupResult is the resolved answer for one (base, quote, requested date) lookup.
// Published results are never mutated.
type LookupResult struct {
	RateDateUsed time.Time
	Base         string
	Quote        string
	Rate         decimal.Decimal
	Provisional  bool
	Source       string
	Warnings     []Warning
}

func (r LookupResult) HasWarning(code WarningCode) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func (r LookupResult) WarningCodes() []WarningCode {
	codes := make([]WarningCode, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

// AuditRecord is appended once per resolved (non-memoized) lookup.
type AuditRecord struct {
	Base          string
	Quote         string
	RequestedDate *time.Time
	ResolvedDate  time.Time
	Rate          decimal.Decimal
	Provisional   bool
	Warnings      string
	CreatedAt     time.Time
}

// Conversion is a converted amount with the warnings of every rate leg used.
type Conversion struct {
	Amount   decimal.Decimal
	From     string
	To       string
	Date     time.Time
	Result   decimal.Decimal
	Warnings []Warning
}
