// Package compare computes per-property statistics, reference-relative
// competitive KPIs, and price-parity rows over a comparison dataset. Only
// available records enter any computation; sentinel records are reported as
// unavailable summaries, never priced.
package compare

import (
	"math"

	"github.com/ldelia/ratewatch/internal/models"
)

// PriceField selects which price enters a computation. A single computation
// never mixes fields.
type PriceField int

const (
	FieldPerNight PriceField = iota
	FieldTotal
)

func (f PriceField) String() string {
	if f == FieldTotal {
		return "price_total"
	}
	return "price_per_night"
}

// RankMode picks the tie-break semantics for equal minimum prices.
type RankMode int

const (
	// RankStrict counts only strictly cheaper competitors; ties share a rank
	// band.
	RankStrict RankMode = iota
	// RankWeak counts competitors at or below the reference minimum.
	RankWeak
)

// Config controls aggregation behavior.
type Config struct {
	Field    PriceField
	RankTies RankMode
}

// DefaultConfig returns the default aggregation configuration.
func DefaultConfig() Config {
	return Config{Field: FieldPerNight, RankTies: RankStrict}
}

func fieldValue(r models.RateRecord, f PriceField) float64 {
	if f == FieldTotal {
		return r.PriceTotal
	}
	return r.PricePerNight
}

type propertyStats struct {
	min, max, mean   float64
	bestDistributor  string
	distributorCount int
	available        bool
}

// stats walks a property's available records in input order; the best
// distributor tie-break is therefore first-seen and stable.
func stats(records []models.RateRecord, field PriceField) propertyStats {
	var s propertyStats
	var sum float64
	var n int
	seen := make(map[string]bool)

	for _, r := range records {
		if !r.Available {
			continue
		}
		v := fieldValue(r, field)
		if !s.available || v < s.min {
			s.min = v
			s.bestDistributor = r.Distributor
		}
		if !s.available || v > s.max {
			s.max = v
		}
		s.available = true
		sum += v
		n++
		if !seen[r.Distributor] {
			seen[r.Distributor] = true
			s.distributorCount++
		}
	}
	if n > 0 {
		s.mean = sum / float64(n)
	}
	return s
}

// Aggregate computes one summary per property, preserving input order. The
// reference property's summary additionally carries the derived KPIs, unless
// the reference has no available records, in which case the KPIs are omitted.
func Aggregate(ds models.ComparisonDataset, reference string, cfg Config) []models.CompetitiveSummary {
	summaries := make([]models.CompetitiveSummary, 0, len(ds.Properties))
	all := make(map[string]propertyStats, len(ds.Properties))
	order := make([]string, 0, len(ds.Properties))

	for _, p := range ds.Properties {
		s := stats(p.Records, cfg.Field)
		all[p.PropertyID] = s
		order = append(order, p.PropertyID)
		summaries = append(summaries, models.CompetitiveSummary{
			PropertyID:       p.PropertyID,
			PropertyName:     p.PropertyName,
			Min:              s.min,
			Max:              s.max,
			Mean:             s.mean,
			BestDistributor:  s.bestDistributor,
			DistributorCount: s.distributorCount,
			Available:        s.available,
		})
	}

	ref, ok := all[reference]
	if !ok || !ref.available {
		return summaries
	}

	kpis := referenceKPIs(ref.min, reference, order, all, cfg.RankTies)
	for i := range summaries {
		if summaries[i].PropertyID == reference {
			summaries[i].Reference = kpis
			break
		}
	}
	return summaries
}

func referenceKPIs(refMin float64, reference string, order []string, all map[string]propertyStats, mode RankMode) *models.ReferenceKPIs {
	kpis := &models.ReferenceKPIs{Rank: 1}
	var competitorSum float64
	var competitors int
	var nearestSet bool
	var nearestMin, nearestDist float64

	for _, id := range order {
		if id == reference {
			continue
		}
		s := all[id]
		if !s.available {
			continue
		}
		competitors++
		competitorSum += s.min
		if s.min < refMin || (mode == RankWeak && s.min == refMin) {
			kpis.Rank++
		}
		d := math.Abs(s.min - refMin)
		if !nearestSet || d < nearestDist {
			nearestSet = true
			nearestDist = d
			nearestMin = s.min
		}
	}

	if nearestSet {
		kpis.GapVsNearest = refMin - nearestMin
	}
	if competitors > 0 {
		kpis.MarketAverage = competitorSum / float64(competitors)
	}
	if kpis.MarketAverage != 0 {
		kpis.DeviationVsMarket = (refMin - kpis.MarketAverage) / kpis.MarketAverage * 100
	}
	return kpis
}
