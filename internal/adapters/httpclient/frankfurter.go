package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fxengine/internal/domain"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type FrankfurterClient struct {
	http         *http.Client
	baseURL      string
	name         string
	maxAttempts  int
	retryBackoff time.Duration
}

type dailyResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]json.RawMessage `json:"rates"`
}

type rangeResponse struct {
	Base  string                                `json:"base"`
	Rates map[string]map[string]json.RawMessage `json:"rates"`
}

// errNoData marks a response that legitimately carries no rates (404 for days the provider never published).
var errNoData = errors.New("provider has no data")

func (c *FrankfurterClient) Name() string { return c.name }

// GetDailyQuotes fetches mid-rates of the requested quotes against base for one day.
func (c *FrankfurterClient) GetDailyQuotes(ctx context.Context, date time.Time, base string, quotes []string) (map[string]decimal.Decimal, error) {
	if len(quotes) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	u, err := c.endpoint(domain.FormatDate(date), base, quotes)
	if err != nil {
		return nil, err
	}

	var body dailyResponse
	if err = c.getJSON(ctx, u, &body); err != nil {
		if errors.Is(err, errNoData) {
			return map[string]decimal.Decimal{}, nil
		}
		return nil, err
	}
	return pickRates(body.Rates, quotes), nil
}

// GetRangeQuotes fetches the whole [start, end] window in one call.
func (c *FrankfurterClient) GetRangeQuotes(ctx context.Context, start, end time.Time, base string, quotes []string) (map[time.Time]map[string]decimal.Decimal, error) {
	out := make(map[time.Time]map[string]decimal.Decimal)
	if len(quotes) == 0 || end.Before(start) {
		return out, nil
	}
	u, err := c.endpoint(domain.FormatDate(start)+".."+domain.FormatDate(end), base, quotes)
	if err != nil {
		return nil, err
	}

	var body rangeResponse
	if err = c.getJSON(ctx, u, &body); err != nil {
		if errors.Is(err, errNoData) {
			return out, nil
		}
		return nil, err
	}
	for rawDate, rates := range body.Rates {
		day, parseErr := domain.ParseDate(rawDate)
		if parseErr != nil {
			continue
		}
		if picked := pickRates(rates, quotes); len(picked) > 0 {
			out[day] = picked
		}
	}
	return out, nil
}

func (c *FrankfurterClient) endpoint(path, base string, quotes []string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + path
	q := u.Query()
	q.Set("from", base)
	q.Set("to", strings.Join(quotes, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// getJSON performs the GET with bounded retries. Transport errors, 429 and 5xx are retried;
// every failure left after the last attempt is reported as domain.ErrProviderUnavailable.
func (c *FrankfurterClient) getJSON(ctx context.Context, u string, dst any) error {
	attempt := 0
	operation := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(errNoData)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, resp.Status)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, resp.Status))
		}

		if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	var policy backoff.BackOff = backoff.NewConstantBackOff(c.retryBackoff)
	if c.maxAttempts > 1 {
		policy = backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1))
	} else {
		policy = &backoff.StopBackOff{}
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		logrus.WithError(err).WithFields(logrus.Fields{"provider": c.name, "attempt": attempt, "url": u}).
			Warnf("FX provider call failed, retrying in %s", wait)
	})
	if err == nil || errors.Is(err, errNoData) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("fx provider call canceled: %w", ctxErr)
	}
	return fmt.Errorf("%w: %s after %d attempt(s): %v", domain.ErrProviderUnavailable, c.name, attempt, err)
}

// pickRates keeps requested quotes with a positive JSON number; anything else, quoted numbers included, is ignored.
func pickRates(raw map[string]json.RawMessage, quotes []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(quotes))
	for _, q := range quotes {
		v, ok := raw[q]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) == 0 || v[0] == '"' {
			continue
		}
		var num json.Number
		if err := json.Unmarshal(v, &num); err != nil {
			continue
		}
		d, err := decimal.NewFromString(num.String())
		if err != nil || !d.IsPositive() {
			continue
		}
		out[q] = d
	}
	return out
}

// NewHTTPClient builds a client with separate connect and read budgets.
func NewHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = readTimeout
	return &http.Client{Transport: transport, Timeout: connectTimeout + readTimeout}
}

func NewFrankfurterClient(httpClient *http.Client, baseURL, name string, maxAttempts int, retryBackoff time.Duration) *FrankfurterClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FrankfurterClient{
		http:         httpClient,
		baseURL:      baseURL,
		name:         name,
		maxAttempts:  maxAttempts,
		retryBackoff: retryBackoff,
	}
}
