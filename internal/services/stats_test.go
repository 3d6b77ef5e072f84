package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mr-tracker/internal/apperrors"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
)

func seededStatsStore() *fakeStore {
	store := newFakeStore()
	store.seed("2026-09-01", database.Patch{"weight": 81.0, database.ColCompleted: true})
	store.seed("2026-10-08", database.Patch{"weight": 79.5, database.ColCompleted: true})
	store.seed("2026-10-10", database.Patch{database.ColCompleted: true})
	store.seed("2026-10-12", database.Patch{"weight": 79.0})
	store.seed("2026-10-16", database.Patch{"weight": 78.6})
	return store
}

func TestStatsPeriods(t *testing.T) {
	t.Parallel()
	sm := newTestManager(seededStatsStore())
	ctx := context.Background()

	cases := []struct {
		period string
		want   string
		rate   int
	}{
		{period: "", want: PeriodWeek, rate: 33},
		{period: PeriodWeek, want: PeriodWeek, rate: 33},
		{period: PeriodMonth, want: PeriodMonth, rate: 50},
		{period: PeriodAll, want: PeriodAll, rate: 60},
	}
	for _, tc := range cases {
		s, err := sm.Stats.Stats(ctx, tc.period)
		if err != nil {
			t.Fatalf("period %q: %v", tc.period, err)
		}
		if s.Period != tc.want || s.CompletionRate != tc.rate {
			t.Fatalf("period %q: got %s %d%%, want %s %d%%", tc.period, s.Period, s.CompletionRate, tc.want, tc.rate)
		}
	}

	if _, err := sm.Stats.Stats(ctx, "year"); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestStatsWeightBlock(t *testing.T) {
	t.Parallel()
	s, err := newTestManager(seededStatsStore()).Stats.Stats(context.Background(), PeriodAll)
	if err != nil {
		t.Fatal(err)
	}
	if *s.Weight.Current != 78.6 || *s.Weight.WeekAgo != 79.5 || *s.Weight.MonthAgo != 81.0 {
		t.Fatalf("unexpected weight block %+v", s.Weight)
	}
	if s.Weight.Trend != routine.TrendDown {
		t.Fatalf("trend = %s", s.Weight.Trend)
	}
}

func TestWeightHistory(t *testing.T) {
	t.Parallel()
	sm := newTestManager(seededStatsStore())

	h, err := sm.Stats.WeightHistory(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Data) != 2 || h.Data[0].Date != "2026-10-12" || h.Data[1].Weight != 78.6 {
		t.Fatalf("unexpected series %+v", h.Data)
	}

	if _, err := sm.Stats.WeightHistory(context.Background(), 0); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestStatsStorageFailure(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.err = errors.New("locked")
	if _, err := newTestManager(store).Stats.Stats(context.Background(), PeriodWeek); !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected an upstream error, got %v", err)
	}
}

func TestInsights(t *testing.T) {
	t.Parallel()
	walk := "walk"
	s := routine.Stats{
		CompletionRate: 30,
		CurrentStreak:  2,
		BestStreak:     2,
		Weight:         routine.WeightBlock{Trend: routine.TrendDown},
		ActivitiesCompletion: map[string]routine.ActivityCompletion{
			"walk": {CompletionRate: 20},
		},
		MostSkipped: &walk,
	}
	got := strings.Join(Insights(s, strings.ToUpper), "\n")
	for _, want := range []string{"💪", "2 giorni", "WALK richiede attenzione: 20%", "📉"} {
		if !strings.Contains(got, want) {
			t.Fatalf("insights %q miss %q", got, want)
		}
	}
}
