// Package normalize turns raw rate-provider payloads into canonical rate
// records. It is a pure transform: upstream failure modes degrade to sentinel
// records, never to errors.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/ldelia/ratewatch/internal/models"
)

const isoDate = "2006-01-02"

// Config controls normalization policy.
type Config struct {
	// TaxInclusive folds a quote's tax into price_per_night. Default is net
	// rate only.
	TaxInclusive bool
	// Denylist drops quotes by distributor name or code (case-insensitive)
	// before any aggregate sees them.
	Denylist []string
}

// Converter resolves currency conversion for post-hoc re-conversion of
// normalized records. The second result reports whether a degraded source
// (static table or heuristic) supplied the factor.
type Converter interface {
	ConvertAmount(amount float64, from, to string) (float64, bool)
}

// Normalize converts one provider payload into the records of a single
// property. Error payloads, nil results, and empty rate lists all yield
// exactly one sentinel record preserving the query context.
func Normalize(payload models.RawRatePayload, ctx models.ComparisonContext, cfg Config) []models.RateRecord {
	nights := ctx.Nights
	if nights < 1 {
		nights = 1
	}

	checkIn, checkOut := ctx.CheckIn, ctx.CheckOut
	if payload.Result != nil {
		// Echo the stay window the provider actually priced, when parseable.
		if t, err := time.Parse(isoDate, payload.Result.ChkIn); err == nil {
			checkIn = t
		}
		if t, err := time.Parse(isoDate, payload.Result.ChkOut); err == nil {
			checkOut = t
		}
	}

	ts := time.Unix(payload.Timestamp, 0).UTC()

	if payload.Error != nil {
		return []models.RateRecord{sentinel(ctx, checkIn, checkOut, nights, ts, fmt.Sprintf("upstream error: %s", *payload.Error))}
	}
	if payload.Result == nil {
		return []models.RateRecord{sentinel(ctx, checkIn, checkOut, nights, ts, "upstream returned no result")}
	}
	if len(payload.Result.Rates) == 0 {
		return []models.RateRecord{sentinel(ctx, checkIn, checkOut, nights, ts, "no rates available for the requested stay")}
	}

	var records []models.RateRecord
	for _, entry := range payload.Result.Rates {
		if denied(entry, cfg.Denylist) {
			continue
		}

		perNight, priced := resolvePrice(entry, nights)
		if priced && cfg.TaxInclusive && entry.Tax != nil {
			perNight += *entry.Tax
		}

		currency := entry.Currency
		if currency == "" {
			currency = ctx.Currency
		}

		rec := models.RateRecord{
			PropertyID:      ctx.PropertyID,
			PropertyName:    ctx.PropertyName,
			Distributor:     entry.Name,
			DistributorCode: entry.Code,
			PricePerNight:   perNight,
			PriceTotal:      perNight * float64(nights),
			Currency:        currency,
			CheckIn:         checkIn,
			CheckOut:        checkOut,
			Nights:          nights,
			Occupancy:       ctx.Occupancy,
			Available:       priced,
			Timestamp:       ts,
		}
		if !priced {
			rec.Message = "quote carried no price"
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		// Every quote was denylisted.
		return []models.RateRecord{sentinel(ctx, checkIn, checkOut, nights, ts, "no rates available for the requested stay")}
	}
	return records
}

// resolvePrice applies the ordered field-alias fallback: rate, then
// rate_night, then rate_total derived per night. No price means an
// unavailable quote, not a failure.
func resolvePrice(entry models.RawRateEntry, nights int) (float64, bool) {
	switch {
	case entry.Rate != nil:
		return *entry.Rate, true
	case entry.RateNight != nil:
		return *entry.RateNight, true
	case entry.RateTotal != nil:
		return *entry.RateTotal / float64(nights), true
	default:
		return 0, false
	}
}

func denied(entry models.RawRateEntry, denylist []string) bool {
	for _, d := range denylist {
		if strings.EqualFold(entry.Name, d) || (entry.Code != "" && strings.EqualFold(entry.Code, d)) {
			return true
		}
	}
	return false
}

func sentinel(ctx models.ComparisonContext, checkIn, checkOut time.Time, nights int, ts time.Time, message string) models.RateRecord {
	return models.RateRecord{
		PropertyID:   ctx.PropertyID,
		PropertyName: ctx.PropertyName,
		Currency:     ctx.Currency,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Nights:       nights,
		Occupancy:    ctx.Occupancy,
		Available:    false,
		Message:      message,
		Timestamp:    ts,
	}
}

// ConvertRecords rebuilds the price fields of every record in the target
// currency. Each record is replaced atomically; the input slice is left
// untouched. The second result reports whether any conversion fell back to a
// degraded source.
func ConvertRecords(records []models.RateRecord, conv Converter, to string) ([]models.RateRecord, bool) {
	out := make([]models.RateRecord, len(records))
	var degraded bool
	for i, rec := range records {
		if rec.Currency == to {
			out[i] = rec
			continue
		}
		perNight, d := conv.ConvertAmount(rec.PricePerNight, rec.Currency, to)
		degraded = degraded || d
		rec.PricePerNight = perNight
		rec.PriceTotal = perNight * float64(rec.Nights)
		rec.Currency = to
		out[i] = rec
	}
	return out, degraded
}
