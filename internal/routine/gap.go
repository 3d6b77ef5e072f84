package routine

import (
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
	"mr-tracker/internal/utils"
)

// ComputeGap sums the idle minutes between consecutive duration activities
// in catalog order. An activity without an end keeps the previous end as the
// reference. Negative gaps count as zero.
func ComputeGap(cat *activities.Catalog, l *database.DailyLog) int {
	total, _ := gap(cat, l)
	return total
}

// gap also reports whether any duration activity has ended, i.e. whether a
// gap could be measured at all.
func gap(cat *activities.Catalog, l *database.DailyLog) (int, bool) {
	var (
		total   int
		prevEnd *time.Time
	)
	for _, def := range cat.WithDuration() {
		if start, ok := l.Time(def.Fields.Start); ok && prevEnd != nil {
			if g := utils.MinutesBetween(*prevEnd, start); g > 0 {
				total += g
			}
		}
		if end, ok := l.Time(def.Fields.End); ok {
			prevEnd = &end
		}
	}
	return total, prevEnd != nil
}
