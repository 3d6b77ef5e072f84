package routine

import (
	"math"
	"time"

	"mr-tracker/internal/activities"
)

type Summary struct {
	CompletedCount int        `json:"completedCount"`
	TotalCount     int        `json:"totalCount"`
	Percentage     int        `json:"percentage"`
	TotalDuration  *int       `json:"totalDuration"`
	TotalGapTime   *int       `json:"totalGapTime"`
	RoutineEndTime *time.Time `json:"routineEndTime"`
	OnTrack        bool       `json:"onTrack"`
}

// Summarize reduces the observations of one day. Every required activity is
// one slot. Every optional activity is one more slot that counts when it is
// completed or skipped. The routine is on track when the last required
// activity ended no later than deadline.
//
// TotalGapTime is left nil; BuildDay fills it from ComputeGap.
func Summarize(cat *activities.Catalog, obs map[string]Observation, deadline time.Time) Summary {
	var (
		completed int
		duration  int
		lastEnd   *time.Time
	)

	required := cat.Required()
	for _, def := range required {
		o, ok := obs[def.ID]
		if !ok || o.State != StateCompleted {
			continue
		}
		completed++
		if o.Duration != nil {
			duration += *o.Duration
		}
		if o.EndTime != nil && (lastEnd == nil || o.EndTime.After(*lastEnd)) {
			end := *o.EndTime
			lastEnd = &end
		}
	}

	optional := cat.Optional()
	for _, def := range optional {
		o, ok := obs[def.ID]
		if !ok {
			continue
		}
		switch o.State {
		case StateCompleted:
			completed++
			if o.Duration != nil {
				duration += *o.Duration
			}
		case StateSkipped:
			completed++
		}
	}

	s := Summary{
		CompletedCount: completed,
		TotalCount:     len(required) + len(optional),
		RoutineEndTime: lastEnd,
		OnTrack:        lastEnd == nil || !lastEnd.After(deadline),
	}
	if s.TotalCount > 0 {
		s.Percentage = int(math.Round(100 * float64(completed) / float64(s.TotalCount)))
	}
	if duration != 0 {
		s.TotalDuration = &duration
	}
	return s
}
