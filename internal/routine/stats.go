package routine

import (
	"math"
	"sort"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
	"mr-tracker/internal/utils"
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// WeightTrendThreshold is the week-over-week change, in kg, below which the
// weight is considered stable.
const WeightTrendThreshold = 0.3

type WeightBlock struct {
	Current  *float64 `json:"current"`
	WeekAgo  *float64 `json:"weekAgo"`
	MonthAgo *float64 `json:"monthAgo"`
	Trend    Trend    `json:"trend"`
}

type ActivityCompletion struct {
	CompletionRate int  `json:"completionRate"`
	AvgDuration    *int `json:"avgDuration"`
}

type Stats struct {
	Period               string                        `json:"period"`
	CompletionRate       int                           `json:"completionRate"`
	AvgWakeUpTime        *string                       `json:"avgWakeUpTime"`
	AvgRoutineDuration   *int                          `json:"avgRoutineDuration"`
	AvgGapTime           *int                          `json:"avgGapTime"`
	CurrentStreak        int                           `json:"currentStreak"`
	BestStreak           int                           `json:"bestStreak"`
	Weight               WeightBlock                   `json:"weight"`
	ActivitiesCompletion map[string]ActivityCompletion `json:"activitiesCompletion"`
	MostSkipped          *string                       `json:"mostSkipped"`
}

// Aggregate computes the statistics of a set of records. today anchors the
// week-ago and month-ago weight lookups.
func Aggregate(cat *activities.Catalog, logs []database.DailyLog, today time.Time, settings Settings) Stats {
	completion := completionByActivity(cat, logs)
	streaks := ComputeStreaks(dayFlags(logs))

	return Stats{
		CompletionRate:       rate(countCompleted(logs), len(logs)),
		AvgWakeUpTime:        averageWakeUp(cat, logs, settings.loc()),
		AvgRoutineDuration:   averageInts(logs, func(l database.DailyLog) *int { return l.TotalDuration }),
		AvgGapTime:           averageInts(logs, func(l database.DailyLog) *int { return l.TotalGapTime }),
		CurrentStreak:        streaks.Current,
		BestStreak:           streaks.Best,
		Weight:               weightBlock(cat, logs, utils.StartOfDay(today.In(settings.loc()))),
		ActivitiesCompletion: completion,
		MostSkipped:          mostSkipped(cat, completion, len(logs)),
	}
}

// trendEpsilon absorbs float noise in differences of one-decimal weights,
// so a change of exactly 0.3 stays stable.
const trendEpsilon = 1e-9

// ClassifyTrend compares a weight against the reference from a week before.
func ClassifyTrend(diff float64) Trend {
	switch {
	case diff > WeightTrendThreshold+trendEpsilon:
		return TrendUp
	case diff < -WeightTrendThreshold-trendEpsilon:
		return TrendDown
	default:
		return TrendStable
	}
}

func rate(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}

func countCompleted(logs []database.DailyLog) int {
	n := 0
	for _, l := range logs {
		if l.Completed {
			n++
		}
	}
	return n
}

func dayFlags(logs []database.DailyLog) []DayFlag {
	flags := make([]DayFlag, 0, len(logs))
	for _, l := range logs {
		flags = append(flags, DayFlag{Date: l.Date, Completed: l.Completed})
	}
	return flags
}

// averageWakeUp is the plain mean of the wake-up times of day, as HH:MM.
func averageWakeUp(cat *activities.Catalog, logs []database.DailyLog, loc *time.Location) *string {
	wake, ok := cat.WakeUp()
	if !ok {
		return nil
	}
	total, n := 0, 0
	for i := range logs {
		t, ok := logs[i].Time(wake.Fields.Value)
		if !ok {
			continue
		}
		total += utils.MinutesOfDay(t.In(loc))
		n++
	}
	if n == 0 {
		return nil
	}
	avg := utils.FormatMinutesOfDay(int(math.Round(float64(total) / float64(n))))
	return &avg
}

func averageInts(logs []database.DailyLog, field func(database.DailyLog) *int) *int {
	total, n := 0, 0
	for _, l := range logs {
		if v := field(l); v != nil {
			total += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := int(math.Round(float64(total) / float64(n)))
	return &avg
}

func weightBlock(cat *activities.Catalog, logs []database.DailyLog, today time.Time) WeightBlock {
	block := WeightBlock{Trend: TrendStable}
	def, ok := cat.Weight()
	if !ok {
		return block
	}

	desc := make([]database.DailyLog, len(logs))
	copy(desc, logs)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].Date.After(desc[j].Date) })

	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)
	for i := range desc {
		w, ok := desc[i].Number(def.Fields.Value)
		if !ok {
			continue
		}
		if block.Current == nil {
			block.Current = &w
		}
		if block.WeekAgo == nil && !desc[i].Date.After(weekAgo) {
			block.WeekAgo = &w
		}
		if block.MonthAgo == nil && !desc[i].Date.After(monthAgo) {
			block.MonthAgo = &w
		}
	}

	if block.Current != nil && block.WeekAgo != nil {
		block.Trend = ClassifyTrend(*block.Current - *block.WeekAgo)
	}
	return block
}

// completionByActivity applies the derivation rules to every record: a
// completed or skipped observation counts as done.
func completionByActivity(cat *activities.Catalog, logs []database.DailyLog) map[string]ActivityCompletion {
	out := make(map[string]ActivityCompletion)
	for _, def := range cat.All() {
		done := 0
		var durations []int
		for i := range logs {
			obs := Derive(&logs[i], def)
			switch obs.State {
			case StateCompleted:
				done++
				if obs.Duration != nil {
					durations = append(durations, *obs.Duration)
				}
			case StateSkipped:
				done++
			}
		}

		c := ActivityCompletion{CompletionRate: rate(done, len(logs))}
		if len(durations) > 0 {
			sum := 0
			for _, d := range durations {
				sum += d
			}
			avg := int(math.Round(float64(sum) / float64(len(durations))))
			c.AvgDuration = &avg
		}
		out[def.ID] = c
	}
	return out
}

// mostSkipped is the required activity with the lowest completion rate,
// the first in catalog order on ties. Nil when every rate is 100.
func mostSkipped(cat *activities.Catalog, completion map[string]ActivityCompletion, records int) *string {
	if records == 0 {
		return nil
	}
	var (
		id     *string
		lowest = 100
	)
	for _, def := range cat.Required() {
		c, ok := completion[def.ID]
		if !ok || c.CompletionRate >= lowest {
			continue
		}
		lowest = c.CompletionRate
		activityID := def.ID
		id = &activityID
	}
	return id
}
