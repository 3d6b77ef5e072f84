package services

import (
	"context"
	"fmt"
	"time"

	"mr-tracker/internal/apperrors"
	"mr-tracker/internal/routine"
)

const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

type StatsService struct {
	*env
}

// Stats aggregates the records of the period ending today. An empty period
// means a week.
func (ss *StatsService) Stats(ctx context.Context, period string) (routine.Stats, error) {
	if period == "" {
		period = PeriodWeek
	}
	today := ss.today()

	var start time.Time
	switch period {
	case PeriodWeek:
		start = today.AddDate(0, 0, -7)
	case PeriodMonth:
		start = today.AddDate(0, -1, 0)
	case PeriodAll:
	default:
		return routine.Stats{}, fmt.Errorf("%w: unknown period %q", apperrors.ErrValidation, period)
	}

	logs, err := ss.store.FindSince(ctx, start)
	if err != nil {
		return routine.Stats{}, upstream("load period", err)
	}

	stats := routine.Aggregate(ss.catalog, logs, today, ss.settings)
	stats.Period = period
	return stats, nil
}

// WeightHistory returns the weight series of the last days days.
func (ss *StatsService) WeightHistory(ctx context.Context, days int) (routine.WeightHistoryData, error) {
	if days <= 0 {
		return routine.WeightHistoryData{}, fmt.Errorf("%w: days must be positive", apperrors.ErrValidation)
	}
	def, ok := ss.catalog.Weight()
	if !ok {
		return routine.WeightHistoryData{}, fmt.Errorf("%w: no weight activity in the catalog", apperrors.ErrNotFound)
	}

	logs, err := ss.store.FindWithValueSince(ctx, ss.today().AddDate(0, 0, -days), def.Fields.Value)
	if err != nil {
		return routine.WeightHistoryData{}, upstream("load weights", err)
	}
	return routine.WeightHistory(ss.catalog, logs), nil
}

// Insights turns a period's numbers into short remarks for the chat.
func Insights(s routine.Stats, name func(id string) string) []string {
	var insights []string

	switch {
	case s.CompletionRate < 50:
		insights = append(insights, "💪 Serve più costanza: meno di metà dei giorni completati")
	case s.CompletionRate > 80:
		insights = append(insights, "🎯 Ottimo periodo! Continua così")
	default:
		insights = append(insights, "📈 Buoni progressi, c'è margine per crescere")
	}

	if s.CurrentStreak > 0 && s.CurrentStreak == s.BestStreak {
		insights = append(insights, fmt.Sprintf("🔥 Serie record: %d giorni", s.CurrentStreak))
	}

	if s.MostSkipped != nil {
		if c := s.ActivitiesCompletion[*s.MostSkipped]; c.CompletionRate < 40 {
			insights = append(insights, fmt.Sprintf("⚠️ %s richiede attenzione: %d%% completato", name(*s.MostSkipped), c.CompletionRate))
		}
	}

	switch s.Weight.Trend {
	case routine.TrendDown:
		insights = append(insights, "📉 Peso in calo rispetto a una settimana fa")
	case routine.TrendUp:
		insights = append(insights, "📈 Peso in aumento rispetto a una settimana fa")
	}

	return insights
}
