package routine

import (
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
	"mr-tracker/internal/utils"
)

// Settings are the user-level knobs the derivations depend on.
type Settings struct {
	Location  *time.Location
	TargetEnd utils.Clock
}

func (s Settings) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// Deadline is the target end of the routine on the record's day.
func (s Settings) Deadline(day time.Time) time.Time {
	return s.TargetEnd.On(day.In(s.loc()))
}

// DailyLogData is the read model of one day.
type DailyLogData struct {
	ID         string                 `json:"id"`
	Date       string                 `json:"date"`
	Activities map[string]Observation `json:"activities"`
	Summary    Summary                `json:"summary"`
}

// BuildDay derives all activities of the record and its summary, with the
// gap time taken from ComputeGap.
func BuildDay(cat *activities.Catalog, l *database.DailyLog, settings Settings) DailyLogData {
	obs := DeriveAll(cat, l)
	return DailyLogData{
		ID:         l.ID,
		Date:       l.Date.Format(database.DateLayout),
		Activities: obs,
		Summary:    summarizeDay(cat, l, obs, settings),
	}
}

func summarizeDay(cat *activities.Catalog, l *database.DailyLog, obs map[string]Observation, settings Settings) Summary {
	s := Summarize(cat, obs, settings.Deadline(l.Date))
	if g, ok := gap(cat, l); ok {
		s.TotalGapTime = &g
	}
	return s
}

// Refresh recomputes the cached columns of a record. The returned patch is
// meant to be written together with the mutation that produced l.
func Refresh(cat *activities.Catalog, l *database.DailyLog, settings Settings) database.Patch {
	s := summarizeDay(cat, l, DeriveAll(cat, l), settings)

	p := database.Patch{
		database.ColCompleted:      s.TotalCount > 0 && s.CompletedCount == s.TotalCount,
		database.ColTotalDuration:  nil,
		database.ColTotalGapTime:   nil,
		database.ColRoutineEndTime: nil,
	}
	if s.TotalDuration != nil {
		p[database.ColTotalDuration] = *s.TotalDuration
	}
	if s.TotalGapTime != nil {
		p[database.ColTotalGapTime] = *s.TotalGapTime
	}
	if s.RoutineEndTime != nil {
		p[database.ColRoutineEndTime] = *s.RoutineEndTime
	}
	return p
}
