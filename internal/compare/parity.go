package compare

import (
	"github.com/ldelia/ratewatch/internal/models"
)

// Parity computes price differentials against the reference property: one row
// per non-reference property holding at least one available record, in input
// order. Sorting is a presentation concern. A reference with no available
// records yields no rows; there is nothing to compare against.
func Parity(ds models.ComparisonDataset, reference string, cfg Config) []models.ParityRow {
	refDataset := ds.ByID(reference)
	if refDataset == nil {
		return nil
	}
	refStats := stats(refDataset.Records, cfg.Field)
	if !refStats.available {
		return nil
	}

	var rows []models.ParityRow
	for _, p := range ds.Properties {
		if p.PropertyID == reference {
			continue
		}
		s := stats(p.Records, cfg.Field)
		if !s.available {
			continue
		}
		diff := refStats.min - s.min
		var perc float64
		if s.min != 0 {
			// Explicit zero-guard: a free competitor yields 0%, not a panic.
			perc = diff / s.min * 100
		}
		rows = append(rows, models.ParityRow{
			PropertyID:   p.PropertyID,
			PropertyName: p.PropertyName,
			MinPrice:     s.min,
			PriceDiff:    diff,
			PercDiff:     perc,
		})
	}
	return rows
}
