package calendar

import (
	"testing"
	"time"

	"github.com/ldelia/ratewatch/internal/models"
)

func TestClassify_MergeOrder(t *testing.T) {
	// 2025-07-10 tagged both cheap and high for the same property: the fixed
	// application order makes high win.
	sets := []models.DaySets{{
		PropertyID: "A",
		Cheap:      []string{"2025-07-09", "2025-07-10"},
		High:       []string{"2025-07-10"},
	}}

	levels := Classify(sets)

	if got := levels[models.DayKey{PropertyID: "A", Date: "2025-07-10"}]; got != models.LevelHigh {
		t.Errorf("overlapping date = %s, want high", got)
	}
	if got := levels[models.DayKey{PropertyID: "A", Date: "2025-07-09"}]; got != models.LevelCheap {
		t.Errorf("cheap date = %s, want cheap", got)
	}
}

func TestClassify_AverageOverridesCheapOnly(t *testing.T) {
	sets := []models.DaySets{{
		PropertyID: "A",
		Cheap:      []string{"2025-07-01"},
		Average:    []string{"2025-07-01"},
	}}
	levels := Classify(sets)
	if got := levels[models.DayKey{PropertyID: "A", Date: "2025-07-01"}]; got != models.LevelAverage {
		t.Errorf("level = %s, want average (last applied wins)", got)
	}
}

func TestClassify_PropertiesIndependent(t *testing.T) {
	sets := []models.DaySets{
		{PropertyID: "A", Cheap: []string{"2025-07-01"}},
		{PropertyID: "B", High: []string{"2025-07-01"}},
	}
	levels := Classify(sets)
	if levels[models.DayKey{PropertyID: "A", Date: "2025-07-01"}] != models.LevelCheap {
		t.Error("property A level bled from B")
	}
	if levels[models.DayKey{PropertyID: "B", Date: "2025-07-01"}] != models.LevelHigh {
		t.Error("property B level bled from A")
	}
}

func TestClassifyWindow_Completeness(t *testing.T) {
	sets := []models.DaySets{{
		PropertyID: "A",
		Cheap:      []string{"2025-07-02"},
		High:       []string{"2025-07-04"},
	}}
	levels := Classify(sets)

	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)
	window := ClassifyWindow(levels, "A", from, to)

	if len(window) != 31 {
		t.Fatalf("got %d days, want exactly one entry per calendar day (31)", len(window))
	}
	valid := map[models.PriceLevel]bool{
		models.LevelCheap:       true,
		models.LevelAverage:     true,
		models.LevelHigh:        true,
		models.LevelUnavailable: true,
	}
	for date, level := range window {
		if !valid[level] {
			t.Errorf("day %s has invalid level %s", date, level)
		}
	}
	if window["2025-07-02"] != models.LevelCheap {
		t.Errorf("2025-07-02 = %s, want cheap", window["2025-07-02"])
	}
	if window["2025-07-03"] != models.LevelUnavailable {
		t.Errorf("untagged day = %s, want unavailable", window["2025-07-03"])
	}
}

func TestMonthGrid_Layout(t *testing.T) {
	// July 2025 starts on a Tuesday and has 31 days: the Monday-first grid
	// needs 1 leading and 3 trailing padding cells over 5 week rows.
	levels := Classify([]models.DaySets{{
		PropertyID: "A",
		Cheap:      []string{"2025-07-01"},
		High:       []string{"2025-07-31"},
	}})

	grid := MonthGrid(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), levels, "A")

	if len(grid.Weeks) != 5 {
		t.Fatalf("got %d week rows, want 5", len(grid.Weeks))
	}
	if !grid.Weeks[0][0].Empty {
		t.Error("Monday of the first week should be padding")
	}
	first := grid.Weeks[0][1]
	if first.Empty || first.Day != 1 || first.Level != models.LevelCheap {
		t.Errorf("Tuesday cell = %+v, want day 1 cheap", first)
	}

	last := grid.Weeks[4][3]
	if last.Empty || last.Day != 31 || last.Level != models.LevelHigh {
		t.Errorf("last day cell = %+v, want day 31 high", last)
	}
	for col := 4; col < 7; col++ {
		if !grid.Weeks[4][col].Empty {
			t.Errorf("trailing cell %d not padding", col)
		}
	}

	// Every real day appears exactly once with a defined level.
	days := make(map[int]models.PriceLevel)
	for _, week := range grid.Weeks {
		for _, cell := range week {
			if cell.Empty {
				continue
			}
			if _, dup := days[cell.Day]; dup {
				t.Errorf("day %d appears twice", cell.Day)
			}
			days[cell.Day] = cell.Level
		}
	}
	if len(days) != 31 {
		t.Errorf("grid holds %d days, want 31", len(days))
	}
	if days[15] != models.LevelUnavailable {
		t.Errorf("untagged day 15 = %s, want unavailable", days[15])
	}
}

func TestMonthGrid_MonthStartingOnMonday(t *testing.T) {
	// September 2025 starts on a Monday: no leading padding.
	grid := MonthGrid(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), nil, "A")
	if grid.Weeks[0][0].Day != 1 {
		t.Errorf("first cell day = %d, want 1", grid.Weeks[0][0].Day)
	}
	if len(grid.Weeks) != 5 {
		t.Errorf("got %d weeks, want 5", len(grid.Weeks))
	}
	lastWeek := grid.Weeks[len(grid.Weeks)-1]
	if lastWeek[1].Day != 30 {
		t.Errorf("want day 30 on the last Tuesday, got %+v", lastWeek[1])
	}
}
