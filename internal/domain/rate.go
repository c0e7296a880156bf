package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateScale is the number of fractional digits kept for stored mid-rates and converted amounts.
const RateScale = 8

const dateLayout = "2006-01-02"

type ExchangeRate struct {
	RateDate  time.Time
	Base      string
	Quote     string
	RateMid   decimal.Decimal
	Provider  string
	FetchedAt time.Time
}

type RatePair struct {
	Base  string
	Quote string
}

func (p RatePair) Reversed() RatePair {
	return RatePair{
		Base:  p.Quote,
		Quote: p.Base,
	}
}

func (p RatePair) String() string { return p.Base + "/" + p.Quote }

// DateOf truncates t to its civil day at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a civil day by n days.
func AddDays(day time.Time, n int) time.Time {
	return DateOf(day).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

func FormatDate(day time.Time) string {
	return day.Format(dateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
