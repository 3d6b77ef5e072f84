package routine

import (
	"sort"
	"time"
)

type DayFlag struct {
	Date      time.Time
	Completed bool
}

type Streaks struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// ComputeStreaks counts runs of completed days, most recent first. Only an
// explicit incomplete day breaks a run: dates missing from the input are not
// gaps.
func ComputeStreaks(days []DayFlag) Streaks {
	sorted := make([]DayFlag, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	var (
		s       Streaks
		run     int
		leading = true
	)
	for _, d := range sorted {
		if !d.Completed {
			run = 0
			leading = false
			continue
		}
		run++
		if leading {
			s.Current = run
		}
		if run > s.Best {
			s.Best = run
		}
	}
	return s
}
