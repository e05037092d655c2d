// Package currency resolves conversion factors with TTL caching and a tiered
// fallback chain: primary provider, secondary provider, last-known store,
// approximate heuristic. Resolution never fails; the supplying tier is
// reported so callers can surface degraded conversions.
package currency

import (
	"context"
	"sync"
	"time"

	"github.com/ldelia/ratewatch/internal/logger"
)

// DefaultTTL is how long a cached factor stays fresh.
const DefaultTTL = time.Hour

// Tier identifies which source supplied a conversion factor.
type Tier int

const (
	TierIdentity Tier = iota
	TierPrimary
	TierSecondary
	TierStatic
	TierHeuristic
)

func (t Tier) String() string {
	switch t {
	case TierIdentity:
		return "identity"
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierStatic:
		return "static"
	case TierHeuristic:
		return "heuristic"
	default:
		return "unknown"
	}
}

// Degraded reports whether the factor came from a non-live source.
func (t Tier) Degraded() bool {
	return t == TierStatic || t == TierHeuristic
}

// RateProvider fetches a live conversion factor.
type RateProvider interface {
	FetchRate(ctx context.Context, from, to string) (float64, error)
}

// LastKnownStore keeps the most recent successfully fetched factors across
// runs. It is the third fallback tier and is refreshed on every live fetch.
type LastKnownStore interface {
	Rate(from, to string) (float64, bool, error)
	SaveRate(from, to string, factor float64, acquiredAt time.Time) error
}

// Resolution is a resolved conversion factor plus its provenance.
type Resolution struct {
	From       string
	To         string
	Factor     float64
	Tier       Tier
	AcquiredAt time.Time
	// CacheHit is true when the factor was served from the in-process cache
	// without touching any provider. Tier still names the original source.
	CacheHit bool
}

// Conversion is a converted amount plus the resolution that produced it.
type Conversion struct {
	Amount float64
	Resolution
}

// Approximate last-resort factors, carried over from the original fallback
// table. Used only when every provider and the last-known store come up empty.
var approximateRates = map[string]float64{
	"USD_EUR": 0.92,
	"EUR_USD": 1.09,
	"GBP_EUR": 1.17,
	"EUR_GBP": 0.85,
}

type entry struct {
	factor     float64
	tier       Tier
	acquiredAt time.Time
}

// Cache is the process-wide conversion cache. Entries are replaced on
// refresh, never deleted; concurrent reads and idempotent overwrites are
// safe.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	primary   RateProvider
	secondary RateProvider
	store     LastKnownStore
	ttl       time.Duration
	now       func() time.Time
}

// New creates an empty cache. Any of primary, secondary, and store may be
// nil; resolution simply skips that tier. A non-positive ttl means
// DefaultTTL.
func New(primary, secondary RateProvider, store LastKnownStore, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:   make(map[string]entry),
		primary:   primary,
		secondary: secondary,
		store:     store,
		ttl:       ttl,
		now:       time.Now,
	}
}

func pairKey(from, to string) string {
	return from + "_" + to
}

// Rate resolves the conversion factor for a currency pair. Identity pairs
// resolve to 1 with no lookup and are never cached.
func (c *Cache) Rate(ctx context.Context, from, to string) Resolution {
	now := c.now()
	if from == to {
		return Resolution{From: from, To: to, Factor: 1.0, Tier: TierIdentity, AcquiredAt: now}
	}

	key := pairKey(from, to)
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && now.Sub(e.acquiredAt) < c.ttl {
		return Resolution{From: from, To: to, Factor: e.factor, Tier: e.tier, AcquiredAt: e.acquiredAt, CacheHit: true}
	}

	factor, tier := c.resolve(ctx, from, to)

	c.mu.Lock()
	c.entries[key] = entry{factor: factor, tier: tier, acquiredAt: now}
	c.mu.Unlock()

	if tier.Degraded() {
		logger.Warn("Currency pair %s/%s resolved from %s tier (factor %.4f)", from, to, tier, factor)
	}
	return Resolution{From: from, To: to, Factor: factor, Tier: tier, AcquiredAt: now}
}

func (c *Cache) resolve(ctx context.Context, from, to string) (float64, Tier) {
	if c.primary != nil {
		factor, err := c.primary.FetchRate(ctx, from, to)
		if err == nil {
			c.saveLastKnown(from, to, factor)
			return factor, TierPrimary
		}
		logger.Debug("Primary currency provider failed for %s/%s: %v", from, to, err)
	}
	if c.secondary != nil {
		factor, err := c.secondary.FetchRate(ctx, from, to)
		if err == nil {
			c.saveLastKnown(from, to, factor)
			return factor, TierSecondary
		}
		logger.Debug("Secondary currency provider failed for %s/%s: %v", from, to, err)
	}
	if c.store != nil {
		factor, ok, err := c.store.Rate(from, to)
		if err != nil {
			logger.Warn("Last-known rate lookup failed for %s/%s: %v", from, to, err)
		} else if ok {
			return factor, TierStatic
		}
	}
	if factor, ok := approximateRates[pairKey(from, to)]; ok {
		return factor, TierStatic
	}
	// Nothing knows this pair. Pass the amount through unchanged rather than
	// failing the whole comparison.
	return 1.0, TierHeuristic
}

func (c *Cache) saveLastKnown(from, to string, factor float64) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveRate(from, to, factor, c.now()); err != nil {
		logger.Warn("Failed to persist last-known rate %s/%s: %v", from, to, err)
	}
}

// Convert converts an amount between currencies. Identity conversions return
// the amount unchanged with no lookup.
func (c *Cache) Convert(ctx context.Context, amount float64, from, to string) Conversion {
	if from == to {
		return Conversion{
			Amount:     amount,
			Resolution: Resolution{From: from, To: to, Factor: 1.0, Tier: TierIdentity, AcquiredAt: c.now()},
		}
	}
	res := c.Rate(ctx, from, to)
	return Conversion{Amount: amount * res.Factor, Resolution: res}
}

// ConvertAmount satisfies the normalizer's Converter contract: the converted
// amount plus a degraded-source flag.
func (c *Cache) ConvertAmount(amount float64, from, to string) (float64, bool) {
	conv := c.Convert(context.Background(), amount, from, to)
	return conv.Amount, conv.Tier.Degraded()
}
