package routine

import (
	"sort"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
	"mr-tracker/internal/utils"
)

const DaysPerWeek = 7

type DayDetail struct {
	Date                string  `json:"date"`
	Completed           bool    `json:"completed"`
	CompletedActivities int     `json:"completedActivities"`
	TotalActivities     int     `json:"totalActivities"`
	RoutineEndTime      *string `json:"routineEndTime"`
}

type WeeklyReport struct {
	WeekStart      time.Time   `json:"weekStart"`
	WeekEnd        time.Time   `json:"weekEnd"`
	DaysCompleted  int         `json:"daysCompleted"`
	DaysTotal      int         `json:"daysTotal"`
	CompletionRate int         `json:"completionRate"`
	AvgWakeUpTime  *string     `json:"avgWakeUpTime"`
	AvgDuration    *int        `json:"avgDuration"`
	AvgGapTime     *int        `json:"avgGapTime"`
	WeightStart    *float64    `json:"weightStart"`
	WeightEnd      *float64    `json:"weightEnd"`
	WeightDelta    *float64    `json:"weightDelta"`
	MostSkipped    *string     `json:"mostSkipped"`
	DailyDetails   []DayDetail `json:"dailyDetails"`
	SentAt         *time.Time  `json:"sentAt,omitempty"`
}

// WeekBounds normalizes any day to its ISO week, Monday to Sunday.
func WeekBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := utils.WeekStart(day.In(loc))
	return start, start.AddDate(0, 0, DaysPerWeek-1)
}

// BuildWeeklyReport summarizes the records of the ISO week containing
// weekStart. Records outside that week are ignored.
func BuildWeeklyReport(cat *activities.Catalog, weekStart time.Time, logs []database.DailyLog, settings Settings) WeeklyReport {
	start, end := WeekBounds(weekStart, settings.loc())

	week := make([]database.DailyLog, 0, len(logs))
	for _, l := range logs {
		d := l.Date.In(settings.loc())
		if d.Before(start) || utils.StartOfDay(d).After(end) {
			continue
		}
		week = append(week, l)
	}
	sort.SliceStable(week, func(i, j int) bool { return week[i].Date.Before(week[j].Date) })

	completed := countCompleted(week)
	r := WeeklyReport{
		WeekStart:      start,
		WeekEnd:        end,
		DaysCompleted:  completed,
		DaysTotal:      DaysPerWeek,
		CompletionRate: rate(completed, DaysPerWeek),
		AvgWakeUpTime:  averageWakeUp(cat, week, settings.loc()),
		AvgDuration:    averageInts(week, func(l database.DailyLog) *int { return l.TotalDuration }),
		AvgGapTime:     averageInts(week, func(l database.DailyLog) *int { return l.TotalGapTime }),
		MostSkipped:    mostSkipped(cat, completionByActivity(cat, week), len(week)),
		DailyDetails:   make([]DayDetail, 0, len(week)),
	}

	if def, ok := cat.Weight(); ok {
		for i := range week {
			w, ok := week[i].Number(def.Fields.Value)
			if !ok {
				continue
			}
			if r.WeightStart == nil {
				r.WeightStart = &w
			}
			r.WeightEnd = &w
		}
		if r.WeightStart != nil && r.WeightEnd != nil {
			delta := RoundTenth(*r.WeightEnd - *r.WeightStart)
			r.WeightDelta = &delta
		}
	}

	for i := range week {
		r.DailyDetails = append(r.DailyDetails, dayDetail(cat, &week[i], settings))
	}
	return r
}

func dayDetail(cat *activities.Catalog, l *database.DailyLog, settings Settings) DayDetail {
	s := Summarize(cat, DeriveAll(cat, l), settings.Deadline(l.Date))
	d := DayDetail{
		Date:                l.Date.Format(database.DateLayout),
		Completed:           l.Completed,
		CompletedActivities: s.CompletedCount,
		TotalActivities:     s.TotalCount,
	}
	if s.RoutineEndTime != nil {
		hm := s.RoutineEndTime.In(settings.loc()).Format("15:04")
		d.RoutineEndTime = &hm
	}
	return d
}
