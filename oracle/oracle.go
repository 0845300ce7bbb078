// Package oracle is an in-memory price book. Each feed keeps the quotes pushed
// into it; the real-time price is the latest quote and the time-weighted price
// is averaged over a trailing window.
package oracle

import (
	"sort"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultWindow = time.Hour

	maxQuotesPerFeed = 1024
)

var (
	ErrFeedNotFound = errors.New("price feed not found")
	ErrStalePrice   = errors.New("price feed is stale")
	ErrInvalidPrice = errors.New("price must be positive")
)

type Quote struct {
	Price decimal.Decimal `json:"price"`
	Unix  int64           `json:"unix"`
}

type Option func(*PriceBook)

// WithWindow sets the time-weighted averaging window.
func WithWindow(window time.Duration) Option {
	return func(b *PriceBook) {
		b.window = window
	}
}

// WithMaxAge rejects feeds whose latest quote is older than maxAge. Zero
// disables the check.
func WithMaxAge(maxAge time.Duration) Option {
	return func(b *PriceBook) {
		b.maxAge = maxAge
	}
}

type PriceBook struct {
	clk    clock.Clock
	window time.Duration
	maxAge time.Duration

	mu    sync.RWMutex
	feeds map[string][]Quote
}

var _ core.PriceAdapterMgr = (*PriceBook)(nil)

func New(clk clock.Clock, opts ...Option) *PriceBook {
	b := &PriceBook{
		clk:    clk,
		window: DefaultWindow,
		feeds:  make(map[string][]Quote),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Set records price for feedKey at the current clock time.
func (b *PriceBook) Set(feedKey string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return errors.Wrapf(ErrInvalidPrice, "feed %q: %s", feedKey, price)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	quote := Quote{Price: price, Unix: b.clk.Now().Unix()}
	quotes := b.feeds[feedKey]
	if n := len(quotes); n > 0 && quotes[n-1].Unix == quote.Unix {
		quotes[n-1] = quote
	} else {
		quotes = append(quotes, quote)
	}
	if len(quotes) > maxQuotesPerFeed {
		quotes = quotes[len(quotes)-maxQuotesPerFeed:]
	}
	b.feeds[feedKey] = quotes
	return nil
}

// Quotes returns a copy of the history of feedKey, oldest first.
func (b *PriceBook) Quotes(feedKey string) []Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Quote(nil), b.feeds[feedKey]...)
}

func (b *PriceBook) FeedKeys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.feeds))
	for key := range b.feeds {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// GetPriceAdapter snapshots feedKey at the current clock time.
func (b *PriceBook) GetPriceAdapter(feedKey string) (core.PriceAdapter, error) {
	quotes := b.Quotes(feedKey)
	if len(quotes) == 0 {
		return nil, errors.Wrapf(ErrFeedNotFound, "feed %q", feedKey)
	}

	now := b.clk.Now().Unix()
	latest := quotes[len(quotes)-1]
	if b.maxAge > 0 && now-latest.Unix > int64(b.maxAge/time.Second) {
		return nil, errors.Wrapf(ErrStalePrice, "feed %q last quoted at %d", feedKey, latest.Unix)
	}

	return &PriceAdapter{
		realTime:     latest.Price,
		timeWeighted: timeWeightedPrice(quotes, now, int64(b.window/time.Second)),
	}, nil
}

type PriceAdapter struct {
	realTime     decimal.Decimal
	timeWeighted decimal.Decimal
}

func (a *PriceAdapter) GetPriceOfType(priceType core.OraclePriceType) (decimal.Decimal, error) {
	switch priceType {
	case core.RealTime:
		return a.realTime, nil
	case core.TimeWeighted:
		return a.timeWeighted, nil
	default:
		return decimal.Zero, errors.Errorf("unsupported price type %s", priceType)
	}
}

// timeWeightedPrice averages quotes over [now-window, now]; each quote holds
// until the next one. Quotes must be ordered by time.
func timeWeightedPrice(quotes []Quote, now, window int64) decimal.Decimal {
	latest := quotes[len(quotes)-1]
	start := now - window
	if window <= 0 {
		return latest.Price
	}

	weighted := decimal.Zero
	total := int64(0)
	for i, q := range quotes {
		end := now
		if i+1 < len(quotes) {
			end = quotes[i+1].Unix
		}
		from := q.Unix
		if from < start {
			from = start
		}
		if end <= from {
			continue
		}
		weighted = weighted.Add(q.Price.Mul(decimal.NewFromInt(end - from)))
		total += end - from
	}

	if total == 0 {
		return latest.Price
	}
	return weighted.DivRound(decimal.NewFromInt(total), core.SHARE_VALUE_PRECISION)
}
