package models

import "time"

// PriceLevel buckets a calendar day for the rendering grid.
type PriceLevel string

const (
	LevelCheap       PriceLevel = "cheap"
	LevelAverage     PriceLevel = "average"
	LevelHigh        PriceLevel = "high"
	LevelUnavailable PriceLevel = "unavailable"
)

// DaySets are the calendar provider's tagged date sets for one property.
// Dates are ISO yyyy-mm-dd strings, exactly as the provider sends them.
type DaySets struct {
	PropertyID string   `json:"property_id"`
	Cheap      []string `json:"cheap_price_days"`
	Average    []string `json:"average_price_days"`
	High       []string `json:"high_price_days"`
}

// DayKey addresses one classified day of one property.
type DayKey struct {
	PropertyID string
	Date       string // ISO yyyy-mm-dd
}

// DayCell is one grid cell. Empty cells pad the first and last week rows so
// a renderer needs no layout logic of its own.
type DayCell struct {
	Day   int        `json:"day"`
	Date  time.Time  `json:"date"`
	Level PriceLevel `json:"level"`
	Empty bool       `json:"empty"`
}

// MonthGrid is a Monday-first, week-major month layout: one row of seven
// cells per calendar week.
type MonthGrid struct {
	Month time.Time    `json:"month"`
	Weeks [][7]DayCell `json:"weeks"`
}
