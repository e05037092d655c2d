// Package calendar buckets provider-tagged dates into price levels and lays
// them out as renderer-ready month grids.
package calendar

import (
	"time"

	"github.com/ldelia/ratewatch/internal/models"
)

const isoDate = "2006-01-02"

// Classify builds the (property, date) → level lookup from tagged date sets.
// When a date appears in more than one set the levels are applied in the
// fixed order cheap, average, high, so high dominates. Overlap is assumed not
// to occur upstream and is not validated.
func Classify(sets []models.DaySets) map[models.DayKey]models.PriceLevel {
	levels := make(map[models.DayKey]models.PriceLevel)
	for _, s := range sets {
		apply(levels, s.PropertyID, s.Cheap, models.LevelCheap)
		apply(levels, s.PropertyID, s.Average, models.LevelAverage)
		apply(levels, s.PropertyID, s.High, models.LevelHigh)
	}
	return levels
}

func apply(levels map[models.DayKey]models.PriceLevel, propertyID string, dates []string, level models.PriceLevel) {
	for _, d := range dates {
		levels[models.DayKey{PropertyID: propertyID, Date: d}] = level
	}
}

// ClassifyWindow classifies every day of [from, to] for one property. Days
// absent from the lookup classify as unavailable, never omitted.
func ClassifyWindow(levels map[models.DayKey]models.PriceLevel, propertyID string, from, to time.Time) map[string]models.PriceLevel {
	out := make(map[string]models.PriceLevel)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(isoDate)
		level, ok := levels[models.DayKey{PropertyID: propertyID, Date: date}]
		if !ok {
			level = models.LevelUnavailable
		}
		out[date] = level
	}
	return out
}

// mondayIndex maps time.Weekday onto a Monday-first 0..6 column.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// MonthGrid lays one property's month out as week-major rows of seven cells,
// Monday first. Cells before day 1 and after the month's last day are empty
// padding; every real day carries its classification, defaulting to
// unavailable.
func MonthGrid(firstOfMonth time.Time, levels map[models.DayKey]models.PriceLevel, propertyID string) models.MonthGrid {
	first := time.Date(firstOfMonth.Year(), firstOfMonth.Month(), 1, 0, 0, 0, 0, firstOfMonth.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()

	grid := models.MonthGrid{Month: first}
	var week [7]models.DayCell
	col := mondayIndex(first.Weekday())
	for i := 0; i < col; i++ {
		week[i] = models.DayCell{Empty: true}
	}

	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, first.Location())
		level, ok := levels[models.DayKey{PropertyID: propertyID, Date: date.Format(isoDate)}]
		if !ok {
			level = models.LevelUnavailable
		}
		week[col] = models.DayCell{Day: day, Date: date, Level: level}
		col++
		if col == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = [7]models.DayCell{}
			col = 0
		}
	}

	if col > 0 {
		for i := col; i < 7; i++ {
			week[i] = models.DayCell{Empty: true}
		}
		grid.Weeks = append(grid.Weeks, week)
	}
	return grid
}
