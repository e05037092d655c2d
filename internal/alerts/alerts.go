// Package alerts evaluates competitive-position rules over aggregation and
// parity output. All applicable rules fire independently; output is
// structured, rendering is the caller's concern.
package alerts

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ldelia/ratewatch/internal/models"
)

// Thresholds configures the rule engine. All percentages are in percent
// points, not fractions.
type Thresholds struct {
	// OverpricedDeviationPct fires "overpriced" when the reference deviates
	// above market by strictly more than this.
	OverpricedDeviationPct float64
	// ParityTolerancePct fires "parity_reached" when any competitor's
	// absolute price difference stays strictly under this share of the
	// reference minimum.
	ParityTolerancePct float64
	// DistributionFloor fires "low_distribution" strictly below it.
	DistributionFloor int
	// DistributionCeiling fires "high_distribution" at or above it.
	DistributionCeiling int
	// SpreadPct fires "wide_spread" when the reference min/max spread
	// strictly exceeds it and more than one distributor quotes.
	SpreadPct float64
}

// DefaultThresholds returns the default rule configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OverpricedDeviationPct: 10,
		ParityTolerancePct:     2,
		DistributionFloor:      5,
		DistributionCeiling:    8,
		SpreadPct:              15,
	}
}

// Evaluate runs every rule over the reference summary and parity rows. The
// reference summary is the one carrying KPIs; rules needing KPIs or prices
// are skipped for an unavailable reference.
func Evaluate(summaries []models.CompetitiveSummary, parity []models.ParityRow, thresholds Thresholds) []models.Alert {
	ref := referenceSummary(summaries)
	if ref == nil {
		return nil
	}

	now := time.Now()
	var out []models.Alert
	emit := func(severity models.Severity, code string, values map[string]float64) {
		out = append(out, models.Alert{
			ID:         uuid.New().String(),
			Severity:   severity,
			Code:       code,
			Values:     values,
			DetectedAt: now,
		})
	}

	if ref.Reference != nil && ref.Reference.DeviationVsMarket > thresholds.OverpricedDeviationPct {
		emit(models.SeverityWarning, models.AlertOverpriced, map[string]float64{
			"deviation_vs_market": ref.Reference.DeviationVsMarket,
			"market_average":      ref.Reference.MarketAverage,
			"min_price":           ref.Min,
		})
	}

	if mins := competitorMins(summaries, ref.PropertyID); len(mins) > 0 {
		p25 := percentile(mins, 0.25)
		if ref.Min <= p25 {
			emit(models.SeveritySuccess, models.AlertWellPositioned, map[string]float64{
				"min_price":       ref.Min,
				"percentile_25th": p25,
			})
		}
	}

	if ref.Min > 0 {
		bestDiff := math.Inf(1)
		for _, row := range parity {
			if d := math.Abs(row.PriceDiff); d < bestDiff {
				bestDiff = d
			}
		}
		if len(parity) > 0 && bestDiff/ref.Min*100 < thresholds.ParityTolerancePct {
			emit(models.SeverityInfo, models.AlertParityReached, map[string]float64{
				"price_diff": bestDiff,
				"min_price":  ref.Min,
			})
		}
	}

	count := float64(ref.DistributorCount)
	if ref.DistributorCount < thresholds.DistributionFloor {
		emit(models.SeverityWarning, models.AlertLowDistribution, map[string]float64{
			"distributor_count": count,
			"floor":             float64(thresholds.DistributionFloor),
		})
	}
	if ref.DistributorCount >= thresholds.DistributionCeiling {
		emit(models.SeveritySuccess, models.AlertHighDistribution, map[string]float64{
			"distributor_count": count,
			"ceiling":           float64(thresholds.DistributionCeiling),
		})
	}

	if ref.DistributorCount > 1 && ref.Min > 0 {
		spread := (ref.Max - ref.Min) / ref.Min * 100
		if spread > thresholds.SpreadPct {
			emit(models.SeverityWarning, models.AlertWideSpread, map[string]float64{
				"spread_pct": spread,
				"min_price":  ref.Min,
				"max_price":  ref.Max,
			})
		}
	}

	return out
}

// referenceSummary finds the summary carrying KPIs. A reference with no
// available records has no KPI summary and fires no rules at all, not even
// low_distribution: a zero distributor count there means the fetch failed,
// not that the property is thinly distributed.
func referenceSummary(summaries []models.CompetitiveSummary) *models.CompetitiveSummary {
	for i := range summaries {
		if summaries[i].Reference != nil {
			return &summaries[i]
		}
	}
	return nil
}

func competitorMins(summaries []models.CompetitiveSummary, referenceID string) []float64 {
	var mins []float64
	for _, s := range summaries {
		if s.PropertyID == referenceID || !s.Available {
			continue
		}
		mins = append(mins, s.Min)
	}
	return mins
}

// percentile computes the q-quantile by linear interpolation between closest
// ranks, the method under which the 25th percentile of {90, 120} is 97.5.
func percentile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
