package routine

import (
	"math"
	"sort"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
)

type WeightPoint struct {
	Date   string   `json:"date"`
	Weight float64  `json:"weight"`
	Delta  *float64 `json:"delta"`
}

type WeightStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Trend float64 `json:"trend"`
}

type WeightHistoryData struct {
	Data  []WeightPoint `json:"data"`
	Stats WeightStats   `json:"stats"`
}

// WeightHistory builds the weight series of the records, oldest first.
// Trend is the projected change per week over the series.
func WeightHistory(cat *activities.Catalog, logs []database.DailyLog) WeightHistoryData {
	out := WeightHistoryData{Data: []WeightPoint{}}
	def, ok := cat.Weight()
	if !ok {
		return out
	}

	asc := make([]database.DailyLog, len(logs))
	copy(asc, logs)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Date.Before(asc[j].Date) })

	sum := 0.0
	for i := range asc {
		w, ok := asc[i].Number(def.Fields.Value)
		if !ok {
			continue
		}
		p := WeightPoint{Date: asc[i].Date.Format(database.DateLayout), Weight: w}
		if d, ok := asc[i].Number(def.Fields.Delta); ok {
			p.Delta = &d
		}
		if len(out.Data) == 0 {
			out.Stats.Min, out.Stats.Max = w, w
		}
		out.Stats.Min = math.Min(out.Stats.Min, w)
		out.Stats.Max = math.Max(out.Stats.Max, w)
		sum += w
		out.Data = append(out.Data, p)
	}

	n := len(out.Data)
	if n > 0 {
		out.Stats.Avg = RoundTenth(sum / float64(n))
	}
	if n >= 2 {
		first, last := out.Data[0].Weight, out.Data[n-1].Weight
		out.Stats.Trend = RoundTenth((last - first) / float64(n) * 7)
	}
	return out
}
