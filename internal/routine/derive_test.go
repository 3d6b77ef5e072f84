package routine_test

import (
	"testing"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
)

func TestDeriveDurationStates(t *testing.T) {
	t.Parallel()
	workout, _ := catalog.Get("workout")
	start := at(6, 0)
	end := start.Add(12*time.Minute + 31*time.Second)

	cases := []struct {
		name     string
		patch    database.Patch
		state    routine.State
		duration *int
	}{
		{name: "pending", patch: database.Patch{}, state: routine.StatePending},
		{name: "active", patch: database.Patch{"workout_start": start}, state: routine.StateActive},
		{name: "completed", patch: database.Patch{"workout_start": start, "workout_end": end}, state: routine.StateCompleted, duration: intp(13)},
		{name: "end without start", patch: database.Patch{"workout_end": end}, state: routine.StatePending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := routine.Derive(newLog("2026-10-12", tc.patch), workout)
			if obs.State != tc.state {
				t.Fatalf("state = %s, want %s", obs.State, tc.state)
			}
			if (obs.Duration == nil) != (tc.duration == nil) {
				t.Fatalf("duration = %v, want %v", obs.Duration, tc.duration)
			}
			if tc.duration != nil && *obs.Duration != *tc.duration {
				t.Fatalf("duration = %d, want %d", *obs.Duration, *tc.duration)
			}
			if tc.state == routine.StateActive && (obs.StartTime == nil || obs.EndTime != nil) {
				t.Fatalf("active observation should carry only a start: %+v", obs)
			}
		})
	}
}

func TestDeriveNotesOnlyForNoteActivities(t *testing.T) {
	t.Parallel()
	workout, _ := catalog.Get("workout")
	shower, _ := catalog.Get("shower")
	l := newLog("2026-10-12", database.Patch{
		"workout_start": at(6, 0), "workout_end": at(6, 25), "workout_notes": "intervals",
		"shower_start": at(6, 30), "shower_end": at(6, 40),
	})

	if obs := routine.Derive(l, workout); obs.Notes == nil || *obs.Notes != "intervals" {
		t.Fatalf("workout note missing: %+v", obs)
	}
	if obs := routine.Derive(l, shower); obs.Notes != nil {
		t.Fatalf("shower has no notes: %+v", obs)
	}
}

func TestDeriveSkippedWalk(t *testing.T) {
	t.Parallel()
	walk, _ := catalog.Get("walk")
	l := newLog("2026-10-12", database.Patch{"walk_skipped": true, "walk_start": at(7, 0)})

	obs := routine.Derive(l, walk)
	if obs.State != routine.StateSkipped || obs.StartTime != nil || obs.Duration != nil {
		t.Fatalf("skipped walk should carry no times: %+v", obs)
	}
}

func TestDeriveTimeOnly(t *testing.T) {
	t.Parallel()
	wake, _ := catalog.Get("wake_up")

	pending := routine.Derive(newLog("2026-10-12", nil), wake)
	if pending.State != routine.StatePending || pending.Value != nil {
		t.Fatalf("unexpected pending observation %+v", pending)
	}

	woke := at(5, 45)
	obs := routine.Derive(newLog("2026-10-12", database.Patch{"wake_up_time": woke, "sleep_quality": 80.0}), wake)
	if obs.State != routine.StateCompleted {
		t.Fatalf("state = %s", obs.State)
	}
	if obs.StartTime == nil || !obs.StartTime.Equal(woke) {
		t.Fatalf("start = %v", obs.StartTime)
	}
	if obs.Value == nil || *obs.Value != float64(woke.UnixMilli()) {
		t.Fatalf("value = %v", obs.Value)
	}
	if obs.SleepQuality == nil || *obs.SleepQuality != 80 {
		t.Fatalf("sleep quality = %v", obs.SleepQuality)
	}
}

func TestDeriveWeightDeltaNote(t *testing.T) {
	t.Parallel()
	weight, _ := catalog.Get("weight")
	cases := []struct {
		patch database.Patch
		note  *string
	}{
		{patch: database.Patch{"weight": 79.0, "weight_delta": 0.3}, note: strp("+0.3")},
		{patch: database.Patch{"weight": 77.8, "weight_delta": -1.2}, note: strp("-1.2")},
		{patch: database.Patch{"weight": 77.8, "weight_delta": 0.0}, note: strp("0.0")},
		{patch: database.Patch{"weight": 77.8}, note: nil},
	}
	for _, tc := range cases {
		obs := routine.Derive(newLog("2026-10-12", tc.patch), weight)
		if obs.State != routine.StateCompleted || obs.Value == nil {
			t.Fatalf("weight should be completed: %+v", obs)
		}
		if (obs.Notes == nil) != (tc.note == nil) || (tc.note != nil && *obs.Notes != *tc.note) {
			t.Fatalf("note = %v, want %v", obs.Notes, tc.note)
		}
	}
}

func TestDeriveUnknownShapeIsPending(t *testing.T) {
	t.Parallel()
	def := activities.Definition{ID: "mystery", Shape: "mystery", Fields: activities.Fields{Value: "weight"}}
	obs := routine.Derive(newLog("2026-10-12", database.Patch{"weight": 1.0}), def)
	if obs.State != routine.StatePending || obs.Value != nil {
		t.Fatalf("unknown shape should derive to a bare pending state: %+v", obs)
	}
}

func TestDeriveDoesNotMutateRecord(t *testing.T) {
	t.Parallel()
	l := newLog("2026-10-12", database.Patch{"workout_start": at(6, 0)})
	before := len(l.Times)
	_ = routine.DeriveAll(catalog, l)
	if len(l.Times) != before || len(l.Numbers) != 0 {
		t.Fatalf("derive mutated the record: %+v", l)
	}
}

func strp(s string) *string { return &s }
