package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/apperrors"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
	"mr-tracker/internal/utils"

	"github.com/rs/zerolog/log"
)

type Action string

const (
	ActionStart    Action = "start"
	ActionStop     Action = "stop"
	ActionSetValue Action = "set_value"
	ActionSetTime  Action = "set_time"
	ActionSkip     Action = "skip"
	ActionReset    Action = "reset"
)

// ActivityAction is one user command on one activity. Time is RFC3339 or
// HH:MM and defaults to now; Date (YYYY-MM-DD) defaults to today.
type ActivityAction struct {
	ActivityID   string   `json:"activityId"`
	Action       Action   `json:"action"`
	Value        *float64 `json:"value,omitempty"`
	SleepQuality *int     `json:"sleepQuality,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
	Time         string   `json:"time,omitempty"`
	Date         string   `json:"date,omitempty"`
}

type ActionResult struct {
	Success    bool   `json:"success"`
	ActivityID string `json:"activityId"`
	Action     Action `json:"action"`
}

type ActivityService struct {
	*env
}

// Apply mutates the day's record for one action. The slot changes and the
// refreshed cached columns are written in a single update.
func (as *ActivityService) Apply(ctx context.Context, a ActivityAction) (ActionResult, error) {
	def, ok := as.catalog.Get(a.ActivityID)
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: activity %q", apperrors.ErrNotFound, a.ActivityID)
	}
	day, err := as.day(a.Date)
	if err != nil {
		return ActionResult{}, err
	}
	at := as.clock()
	if a.Time != "" {
		if at, err = utils.ParseMoment(a.Time, day); err != nil {
			return ActionResult{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}

	l, err := as.store.GetOrCreate(ctx, day)
	if err != nil {
		return ActionResult{}, upstream("load day", err)
	}

	patch, err := as.patchFor(ctx, def, a, l, at)
	if err != nil {
		return ActionResult{}, err
	}

	next := l.Clone()
	next.Apply(patch)
	for col, v := range routine.Refresh(as.catalog, next, as.settings) {
		patch[col] = v
	}

	if err := as.store.Update(ctx, l.ID, patch); err != nil {
		return ActionResult{}, upstream("update day", err)
	}
	if def.TracksDelta() && (a.Action == ActionSetValue || a.Action == ActionReset) {
		if err := as.refreshNextDelta(ctx, def, day); err != nil {
			return ActionResult{}, err
		}
	}

	log.Info().
		Str("activity", def.ID).
		Str("action", string(a.Action)).
		Str("date", day.Format(database.DateLayout)).
		Msg("✅ activity updated")

	return ActionResult{Success: true, ActivityID: def.ID, Action: a.Action}, nil
}

func (as *ActivityService) patchFor(ctx context.Context, def activities.Definition, a ActivityAction, l *database.DailyLog, at time.Time) (database.Patch, error) {
	p := database.Patch{}

	switch a.Action {
	case ActionStart:
		if !def.IsDuration() {
			return nil, invalid(def, a.Action)
		}
		p[def.Fields.Start] = at
		p[def.Fields.End] = nil
		if def.SupportsSkip() {
			p[def.Fields.Skip] = false
		}

	case ActionStop:
		if !def.IsDuration() {
			return nil, invalid(def, a.Action)
		}
		start, ok := l.Time(def.Fields.Start)
		if !ok {
			return nil, fmt.Errorf("%w: %s was never started", apperrors.ErrValidation, def.ID)
		}
		if at.Before(start) {
			return nil, fmt.Errorf("%w: %s cannot end before it started", apperrors.ErrValidation, def.ID)
		}
		p[def.Fields.End] = at
		if def.HasNotes && a.Notes != nil {
			if note := strings.TrimSpace(*a.Notes); note != "" {
				p[def.Fields.Note] = note
			}
		}

	case ActionSetValue:
		if def.Shape != activities.NumericValue {
			return nil, invalid(def, a.Action)
		}
		if a.Value == nil || math.IsNaN(*a.Value) || math.IsInf(*a.Value, 0) || *a.Value <= 0 {
			return nil, fmt.Errorf("%w: %s needs a positive value", apperrors.ErrValidation, def.ID)
		}
		v := *a.Value
		p[def.Fields.Value] = v
		if def.TracksDelta() {
			delta, err := as.deltaFromPrevious(ctx, def, l.Date, v)
			if err != nil {
				return nil, err
			}
			p[def.Fields.Delta] = delta
		}

	case ActionSetTime:
		if def.Shape != activities.TimeOnly {
			return nil, invalid(def, a.Action)
		}
		p[def.Fields.Value] = at
		if a.SleepQuality != nil && def.TracksSleepQuality() {
			q := *a.SleepQuality
			if q < 0 || q > 100 {
				return nil, fmt.Errorf("%w: sleep quality must be between 0 and 100", apperrors.ErrValidation)
			}
			p[def.Fields.Quality] = q
		}

	case ActionSkip:
		if !def.SupportsSkip() {
			return nil, invalid(def, a.Action)
		}
		p[def.Fields.Skip] = true
		p[def.Fields.Start] = nil
		p[def.Fields.End] = nil

	case ActionReset:
		for _, col := range def.Columns() {
			if col.Kind == activities.KindFlag {
				p[col.Name] = false
			} else {
				p[col.Name] = nil
			}
		}

	default:
		return nil, fmt.Errorf("%w: unknown action %q", apperrors.ErrValidation, a.Action)
	}

	return p, nil
}

// deltaFromPrevious is v minus the latest earlier value, or nil when no
// earlier record has one.
func (as *ActivityService) deltaFromPrevious(ctx context.Context, def activities.Definition, date time.Time, v float64) (any, error) {
	prev, err := as.store.FindMostRecentBefore(ctx, date, def.Fields.Value)
	if err != nil {
		return nil, upstream("find previous value", err)
	}
	if prev == nil {
		return nil, nil
	}
	pv, ok := prev.Number(def.Fields.Value)
	if !ok {
		return nil, nil
	}
	return routine.RoundTenth(v - pv), nil
}

// refreshNextDelta recomputes the delta of the first later record with a
// value, since its predecessor may have just changed.
func (as *ActivityService) refreshNextDelta(ctx context.Context, def activities.Definition, day time.Time) error {
	next, err := as.store.FindNextAfter(ctx, day, def.Fields.Value)
	if err != nil {
		return upstream("find next value", err)
	}
	if next == nil {
		return nil
	}
	v, _ := next.Number(def.Fields.Value)
	delta, err := as.deltaFromPrevious(ctx, def, next.Date, v)
	if err != nil {
		return err
	}
	if err := as.store.Update(ctx, next.ID, database.Patch{def.Fields.Delta: delta}); err != nil {
		return upstream("update next delta", err)
	}
	log.Debug().Str("date", next.Date.Format(database.DateLayout)).Msg("🔁 weight delta recomputed")
	return nil
}

func invalid(def activities.Definition, action Action) error {
	return fmt.Errorf("%w: %s does not support %s", apperrors.ErrValidation, def.ID, action)
}
