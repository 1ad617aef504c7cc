// Package quote fetches the external currency reference rate. It is a soft
// dependency: callers substitute zero on any failure and must treat zero as
// "rate unavailable".
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"finboard/internal/apperr"
)

// DefaultURL serves the USD-BRL quote in awesomeapi format:
// {"USDBRL": {"bid": "5.4321", ...}}
const (
	DefaultURL  = "https://economia.awesomeapi.com.br/json/last/USD-BRL"
	DefaultPair = "USDBRL"

	cacheKey = "reference-rate"
	cacheTTL = 15 * time.Minute
)

type RateProvider interface {
	ReferenceRate(ctx context.Context) (decimal.Decimal, error)
}

type Client struct {
	http    *http.Client
	url     string
	pair    string
	cache   *cache.Cache
	limiter *rate.Limiter
	log     *logrus.Logger
}

func NewClient(url, pair string, log *logrus.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if pair == "" {
		pair = DefaultPair
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		url:     url,
		pair:    pair,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     log,
	}
}

type pairQuote struct {
	Bid string `json:"bid"`
}

// ReferenceRate returns the cached rate when fresh, otherwise performs one
// best-effort HTTP lookup. Non-2xx responses, parse failures, and
// non-positive rates all surface as UpstreamUnavailable.
func (c *Client) ReferenceRate(ctx context.Context) (decimal.Decimal, error) {
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(decimal.Decimal), nil
	}

	if !c.limiter.Allow() {
		return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "quote.ReferenceRate",
			fmt.Errorf("rate source request limit exceeded"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "quote.ReferenceRate", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "quote.ReferenceRate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "quote.ReferenceRate",
			fmt.Errorf("rate source returned status %d", resp.StatusCode))
	}

	var payload map[string]pairQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "quote.ReferenceRate", err)
	}
	q, ok := payload[c.pair]
	if !ok {
		return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "quote.ReferenceRate",
			fmt.Errorf("pair %s missing from response", c.pair))
	}
	v, err := decimal.NewFromString(q.Bid)
	if err != nil {
		return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "quote.ReferenceRate",
			fmt.Errorf("invalid bid %q: %w", q.Bid, err))
	}
	if !v.IsPositive() {
		return decimal.Zero, apperr.E(apperr.UpstreamUnavailable, "quote.ReferenceRate",
			fmt.Errorf("non-positive bid %s", v))
	}

	c.cache.Set(cacheKey, v, cache.DefaultExpiration)
	return v, nil
}

// Fallback resolves p, substituting zero on any failure. Zero downstream
// means "rate unavailable" and suppresses rate-dependent rules.
func Fallback(ctx context.Context, p RateProvider, log *logrus.Logger) decimal.Decimal {
	v, err := p.ReferenceRate(ctx)
	if err != nil {
		log.Warnf("reference rate unavailable, falling back to 0: %v", err)
		return decimal.Zero
	}
	return v
}
