package routine_test

import (
	"testing"
	"time"

	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
)

func TestBuildWeeklyReport(t *testing.T) {
	t.Parallel()
	full := completeRequired(time.Date(2026, 10, 6, 6, 0, 0, 0, time.UTC))
	full["walk_skipped"] = true
	full["weight"] = 78.4

	monday := newLog("2026-10-05", database.Patch{
		"wake_up_time":            time.Date(2026, 10, 5, 6, 0, 0, 0, time.UTC),
		"weight":                  78.9,
		database.ColCompleted:     false,
		database.ColTotalDuration: 30,
	})
	tuesday := newLog("2026-10-06", full)
	tuesday.Apply(database.Patch{database.ColCompleted: true, database.ColTotalDuration: 45, database.ColTotalGapTime: 0})
	sunday := newLog("2026-10-11", database.Patch{"weight": 78.2, database.ColCompleted: true})
	outside := newLog("2026-10-12", database.Patch{"weight": 70.0, database.ColCompleted: true})

	// Any day of the week normalizes to its Monday.
	r := routine.BuildWeeklyReport(catalog, date("2026-10-08"), []database.DailyLog{*sunday, *outside, *tuesday, *monday}, settings)

	if r.WeekStart.Format("2006-01-02") != "2026-10-05" || r.WeekEnd.Format("2006-01-02") != "2026-10-11" {
		t.Fatalf("unexpected bounds %s..%s", r.WeekStart, r.WeekEnd)
	}
	if r.DaysCompleted != 2 || r.DaysTotal != 7 || r.CompletionRate != 29 {
		t.Fatalf("unexpected completion %d/%d %d%%", r.DaysCompleted, r.DaysTotal, r.CompletionRate)
	}
	if r.AvgWakeUpTime == nil || *r.AvgWakeUpTime != "06:00" {
		t.Fatalf("avg wake-up = %v", r.AvgWakeUpTime)
	}
	if r.AvgDuration == nil || *r.AvgDuration != 38 || r.AvgGapTime == nil || *r.AvgGapTime != 0 {
		t.Fatalf("avg duration/gap = %v/%v", r.AvgDuration, r.AvgGapTime)
	}
	if *r.WeightStart != 78.9 || *r.WeightEnd != 78.2 || *r.WeightDelta != -0.7 {
		t.Fatalf("weights = %v %v %v", *r.WeightStart, *r.WeightEnd, *r.WeightDelta)
	}
	if r.MostSkipped == nil || *r.MostSkipped != "water_coffee" {
		t.Fatalf("most skipped = %v", r.MostSkipped)
	}

	if len(r.DailyDetails) != 3 {
		t.Fatalf("expected 3 day details, got %d", len(r.DailyDetails))
	}
	tue := r.DailyDetails[1]
	if tue.Date != "2026-10-06" || !tue.Completed || tue.CompletedActivities != 13 || tue.TotalActivities != 13 {
		t.Fatalf("unexpected tuesday %+v", tue)
	}
	if tue.RoutineEndTime == nil || *tue.RoutineEndTime != "06:45" {
		t.Fatalf("tuesday end = %v", tue.RoutineEndTime)
	}
	if mon := r.DailyDetails[0]; mon.CompletedActivities != 2 || mon.RoutineEndTime != nil {
		t.Fatalf("unexpected monday %+v", mon)
	}
}

func TestBuildWeeklyReportEmptyWeek(t *testing.T) {
	t.Parallel()
	r := routine.BuildWeeklyReport(catalog, date("2026-10-05"), nil, settings)
	if r.DaysCompleted != 0 || r.CompletionRate != 0 || r.DaysTotal != 7 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.WeightDelta != nil || r.MostSkipped != nil || r.AvgWakeUpTime != nil || len(r.DailyDetails) != 0 {
		t.Fatalf("empty week carries no averages: %+v", r)
	}
}
