// Package routine derives per-activity state from a daily record and
// aggregates it into daily, period and weekly summaries. Everything here is
// pure: no I/O, and inputs are never mutated.
package routine

import (
	"fmt"
	"math"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
)

type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateSkipped   State = "skipped"
)

// Observation is the derived state of one activity on one day.
type Observation struct {
	ID           string     `json:"id"`
	State        State      `json:"state"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Duration     *int       `json:"duration,omitempty"`
	Value        *float64   `json:"value,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	SleepQuality *int       `json:"sleepQuality,omitempty"`
}

// Derive maps one record and one activity definition to an observation.
func Derive(l *database.DailyLog, def activities.Definition) Observation {
	obs := Observation{ID: def.ID, State: StatePending}

	switch def.Shape {
	case activities.TimeOnly:
		t, ok := l.Time(def.Fields.Value)
		if !ok {
			return obs
		}
		ms := float64(t.UnixMilli())
		obs.State = StateCompleted
		obs.StartTime = &t
		obs.Value = &ms
		if q, ok := l.Number(def.Fields.Quality); ok {
			quality := int(math.Round(q))
			obs.SleepQuality = &quality
		}

	case activities.NumericValue:
		v, ok := l.Number(def.Fields.Value)
		if !ok {
			return obs
		}
		obs.State = StateCompleted
		obs.Value = &v
		if d, ok := l.Number(def.Fields.Delta); ok {
			note := FormatDelta(d)
			obs.Notes = &note
		}

	case activities.DurationRequired, activities.DurationOptional:
		if def.SupportsSkip() && l.Flag(def.Fields.Skip) {
			obs.State = StateSkipped
			return obs
		}
		start, hasStart := l.Time(def.Fields.Start)
		end, hasEnd := l.Time(def.Fields.End)
		switch {
		case hasStart && hasEnd:
			minutes := DurationMinutes(start, end)
			obs.State = StateCompleted
			obs.StartTime = &start
			obs.EndTime = &end
			obs.Duration = &minutes
			if def.HasNotes {
				if note, ok := l.Text(def.Fields.Note); ok && note != "" {
					obs.Notes = &note
				}
			}
		case hasStart:
			obs.State = StateActive
			obs.StartTime = &start
		}
	}

	return obs
}

// DeriveAll derives every catalog activity for the record.
func DeriveAll(cat *activities.Catalog, l *database.DailyLog) map[string]Observation {
	out := make(map[string]Observation, len(cat.All()))
	for _, def := range cat.All() {
		out[def.ID] = Derive(l, def)
	}
	return out
}

// DurationMinutes is round((end-start)/1min).
func DurationMinutes(start, end time.Time) int {
	return int(math.Round(float64(end.Sub(start)) / float64(time.Minute)))
}

// FormatDelta renders a weight delta with one decimal and an explicit sign
// for gains, e.g. "+0.3" or "-1.2".
func FormatDelta(d float64) string {
	if d > 0 {
		return fmt.Sprintf("+%.1f", d)
	}
	return fmt.Sprintf("%.1f", d)
}

// RoundTenth rounds to one decimal.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
