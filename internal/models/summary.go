package models

import (
	"time"
)

// Severity grades an alert for the caller's presentation layer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// Alert codes emitted by the rule engine.
const (
	AlertOverpriced       = "overpriced"
	AlertWellPositioned   = "well_positioned"
	AlertParityReached    = "parity_reached"
	AlertLowDistribution  = "low_distribution"
	AlertHighDistribution = "high_distribution"
	AlertWideSpread       = "wide_spread"
)

// Alert is a structured rule-engine finding. Values carries the substituted
// numbers; rendering them into text is the caller's concern.
type Alert struct {
	ID         string             `json:"id"`
	Severity   Severity           `json:"severity"`
	Code       string             `json:"code"`
	Values     map[string]float64 `json:"values"`
	DetectedAt time.Time          `json:"detected_at"`
}

// ReferenceKPIs are the competitive-position metrics derived for the
// reference property only. They are omitted entirely (nil on the summary)
// when the reference has no available records, never zeroed.
type ReferenceKPIs struct {
	Rank              int     `json:"rank"`
	GapVsNearest      float64 `json:"gap_vs_nearest"`
	MarketAverage     float64 `json:"market_average"`
	DeviationVsMarket float64 `json:"deviation_vs_market"`
}

// CompetitiveSummary holds one property's statistics over the chosen price
// field. Reference is non-nil only on the reference property's summary.
type CompetitiveSummary struct {
	PropertyID       string         `json:"property_id"`
	PropertyName     string         `json:"property_name"`
	Min              float64        `json:"min"`
	Max              float64        `json:"max"`
	Mean             float64        `json:"mean"`
	BestDistributor  string         `json:"best_distributor"`
	DistributorCount int            `json:"distributor_count"`
	Available        bool           `json:"available"`
	Reference        *ReferenceKPIs `json:"reference,omitempty"`
}

// ParityRow compares one competitor's best price against the reference.
// PriceDiff is signed: positive means the reference is costlier.
type ParityRow struct {
	PropertyID   string  `json:"property_id"`
	PropertyName string  `json:"property_name"`
	MinPrice     float64 `json:"min_price"`
	PriceDiff    float64 `json:"price_diff"`
	PercDiff     float64 `json:"perc_diff"`
}

// Property is a directory-provider listing used for competitor discovery.
type Property struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	PriceMin    float64  `json:"price_min"`
	PriceMax    float64  `json:"price_max"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Amenities   []string `json:"amenities,omitempty"`
}
