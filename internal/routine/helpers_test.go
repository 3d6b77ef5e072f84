package routine_test

import (
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
	"mr-tracker/internal/utils"
)

var (
	catalog  = activities.Default()
	settings = routine.Settings{Location: time.UTC, TargetEnd: utils.Clock{Hour: 7}}
)

func date(s string) time.Time {
	d, err := utils.ParseDay(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

// at is a time of day on 2026-10-12.
func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 12, hour, minute, 0, 0, time.UTC)
}

func newLog(day string, patch database.Patch) *database.DailyLog {
	l := database.NewDailyLog("log-"+day, date(day))
	l.Apply(patch)
	return l
}

// completeRequired fills every required activity of the default catalog,
// back to back from 06:00, one minute each for time-only slots.
func completeRequired(start time.Time) database.Patch {
	p := database.Patch{}
	t := start
	for _, def := range catalog.Required() {
		switch def.Shape {
		case activities.TimeOnly:
			p[def.Fields.Value] = t
		case activities.NumericValue:
			p[def.Fields.Value] = 78.0
		default:
			p[def.Fields.Start] = t
			t = t.Add(5 * time.Minute)
			p[def.Fields.End] = t
		}
	}
	return p
}

func intp(n int) *int { return &n }
