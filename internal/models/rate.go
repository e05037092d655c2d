// Package models defines the core domain entities: rate records, comparison
// datasets, competitive summaries, parity rows, and alerts.
package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// PriceTolerance bounds the drift allowed between PriceTotal and
// PricePerNight*Nights.
const PriceTolerance = 1e-9

// ErrValidation marks caller input problems: impossible stay windows or
// datasets mixing currency, occupancy, or stay window. Computation still
// proceeds; the caller decides what to surface.
var ErrValidation = errors.New("validation error")

// RawRatePayload is the upstream rate-provider response. A set Error or a nil
// Result both mean "no usable quotes" and degrade to a sentinel record.
type RawRatePayload struct {
	Error     *string        `json:"error"`
	Timestamp int64          `json:"timestamp"`
	Result    *RawRateResult `json:"result"`
}

// RawRateResult carries the per-distributor quotes plus the stay window the
// provider actually priced.
type RawRateResult struct {
	Rates  []RawRateEntry `json:"rates"`
	ChkIn  string         `json:"chk_in"`
	ChkOut string         `json:"chk_out"`
}

// RawRateEntry is one distributor quote. Upstream schemas drift: the price
// may arrive under rate, rate_night, or rate_total, so all three are kept as
// pointers to distinguish absent from zero.
type RawRateEntry struct {
	Name      string   `json:"name"`
	Code      string   `json:"code"`
	Rate      *float64 `json:"rate,omitempty"`
	RateNight *float64 `json:"rate_night,omitempty"`
	RateTotal *float64 `json:"rate_total,omitempty"`
	Tax       *float64 `json:"tax,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}

// Occupancy describes who the stay is priced for.
type Occupancy struct {
	Adults       int   `json:"adults"`
	ChildrenAges []int `json:"children_ages,omitempty"`
	Rooms        int   `json:"rooms"`
}

// Equal reports whether two occupancies describe the same party.
func (o Occupancy) Equal(other Occupancy) bool {
	if o.Adults != other.Adults || o.Rooms != other.Rooms {
		return false
	}
	if len(o.ChildrenAges) != len(other.ChildrenAges) {
		return false
	}
	for i, age := range o.ChildrenAges {
		if age != other.ChildrenAges[i] {
			return false
		}
	}
	return true
}

// ComparisonContext is the immutable query context threaded through every
// engine call: one property, one stay window, one occupancy, one currency.
// There is no ambient session state; a currency or date change means a new
// context and a full recompute.
type ComparisonContext struct {
	PropertyID   string
	PropertyName string
	CheckIn      time.Time
	CheckOut     time.Time
	Nights       int
	Occupancy    Occupancy
	Currency     string
	Reference    string
}

// Validate checks the stay window. The normalizer clamps nights to 1 to stay
// total; rejecting an inverted window is the caller's job, done here.
func (c ComparisonContext) Validate() error {
	if c.PropertyID == "" {
		return fmt.Errorf("%w: property id must not be empty", ErrValidation)
	}
	if !c.CheckOut.After(c.CheckIn) {
		return fmt.Errorf("%w: check_out must be after check_in", ErrValidation)
	}
	if c.Nights < 1 {
		return fmt.Errorf("%w: nights must be at least 1", ErrValidation)
	}
	if c.Currency == "" {
		return fmt.Errorf("%w: currency must not be empty", ErrValidation)
	}
	return nil
}

// RateRecord is the canonical per-distributor quote. Records are rebuilt
// wholesale per search action; a currency or night-count change replaces the
// price fields atomically, never patches them.
type RateRecord struct {
	PropertyID      string    `json:"property_id"`
	PropertyName    string    `json:"property_name"`
	Distributor     string    `json:"distributor"`
	DistributorCode string    `json:"distributor_code,omitempty"`
	PricePerNight   float64   `json:"price_per_night"`
	PriceTotal      float64   `json:"price_total"`
	Currency        string    `json:"currency"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Nights          int       `json:"nights"`
	Occupancy       Occupancy `json:"occupancy"`
	Available       bool      `json:"available"`
	Message         string    `json:"message,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Validate checks record field constraints.
func (r *RateRecord) Validate() error {
	if r.PropertyID == "" {
		return errors.New("property ID must not be empty")
	}
	if r.Nights < 1 {
		return errors.New("nights must be at least 1")
	}
	if r.Currency == "" {
		return errors.New("currency must not be empty")
	}
	if r.PricePerNight < 0 || r.PriceTotal < 0 {
		return errors.New("prices must not be negative")
	}
	if math.Abs(r.PriceTotal-r.PricePerNight*float64(r.Nights)) > PriceTolerance {
		return errors.New("price_total must equal price_per_night times nights")
	}
	if r.Available && r.Distributor == "" {
		return errors.New("available record must name its distributor")
	}
	return nil
}

// PropertyDataset groups the records of one property for one stay, occupancy,
// and currency. A property with no usable quotes holds exactly one sentinel
// record with Available=false.
type PropertyDataset struct {
	PropertyID   string       `json:"property_id"`
	PropertyName string       `json:"property_name"`
	Records      []RateRecord `json:"records"`
}

// Available returns the available records in input order.
func (d *PropertyDataset) Available() []RateRecord {
	var out []RateRecord
	for _, r := range d.Records {
		if r.Available {
			out = append(out, r)
		}
	}
	return out
}

// IsAvailable reports whether the dataset holds at least one available quote.
func (d *PropertyDataset) IsAvailable() bool {
	for _, r := range d.Records {
		if r.Available {
			return true
		}
	}
	return false
}

// ComparisonDataset is the union of the competitor set's property datasets.
type ComparisonDataset struct {
	Properties []PropertyDataset `json:"properties"`
}

// ByID returns the dataset of the given property, or nil.
func (d *ComparisonDataset) ByID(propertyID string) *PropertyDataset {
	for i := range d.Properties {
		if d.Properties[i].PropertyID == propertyID {
			return &d.Properties[i]
		}
	}
	return nil
}

// Validate flags a dataset whose members mix stay window, occupancy, or
// currency. Aggregation over such a dataset is meaningless, but the error is
// a flag for the caller, not a refusal: every downstream computation still
// runs per its own contract.
func (d *ComparisonDataset) Validate() error {
	var base *RateRecord
	for pi := range d.Properties {
		for ri := range d.Properties[pi].Records {
			r := &d.Properties[pi].Records[ri]
			if base == nil {
				base = r
				continue
			}
			if r.Currency != base.Currency {
				return fmt.Errorf("%w: dataset mixes currencies %s and %s", ErrValidation, base.Currency, r.Currency)
			}
			if !r.CheckIn.Equal(base.CheckIn) || !r.CheckOut.Equal(base.CheckOut) {
				return fmt.Errorf("%w: dataset mixes stay windows", ErrValidation)
			}
			if !r.Occupancy.Equal(base.Occupancy) {
				return fmt.Errorf("%w: dataset mixes occupancies", ErrValidation)
			}
		}
	}
	return nil
}
