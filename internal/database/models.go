package database

import "time"

// DailyLog is the sparse per-day record. Activity slots live in maps keyed by
// the catalog column name; a missing key means the column is NULL.
type DailyLog struct {
	ID      string
	Date    time.Time
	Times   map[string]time.Time
	Numbers map[string]float64
	Texts   map[string]string
	Flags   map[string]bool

	Completed      bool
	TotalDuration  *int
	TotalGapTime   *int
	RoutineEndTime *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewDailyLog(id string, date time.Time) *DailyLog {
	return &DailyLog{
		ID:      id,
		Date:    date,
		Times:   make(map[string]time.Time),
		Numbers: make(map[string]float64),
		Texts:   make(map[string]string),
		Flags:   make(map[string]bool),
	}
}

func (l *DailyLog) Time(column string) (time.Time, bool) {
	if column == "" {
		return time.Time{}, false
	}
	t, ok := l.Times[column]
	return t, ok
}

func (l *DailyLog) Number(column string) (float64, bool) {
	if column == "" {
		return 0, false
	}
	v, ok := l.Numbers[column]
	return v, ok
}

func (l *DailyLog) Text(column string) (string, bool) {
	if column == "" {
		return "", false
	}
	s, ok := l.Texts[column]
	return s, ok
}

func (l *DailyLog) Flag(column string) bool {
	return column != "" && l.Flags[column]
}

// Clone returns a deep copy so callers can preview a patch without touching
// the fetched snapshot.
func (l *DailyLog) Clone() *DailyLog {
	c := *l
	c.Times = make(map[string]time.Time, len(l.Times))
	for k, v := range l.Times {
		c.Times[k] = v
	}
	c.Numbers = make(map[string]float64, len(l.Numbers))
	for k, v := range l.Numbers {
		c.Numbers[k] = v
	}
	c.Texts = make(map[string]string, len(l.Texts))
	for k, v := range l.Texts {
		c.Texts[k] = v
	}
	c.Flags = make(map[string]bool, len(l.Flags))
	for k, v := range l.Flags {
		c.Flags[k] = v
	}
	return &c
}

// Patch is a partial update keyed by column name. A nil value clears the
// column. Accepted value types: time.Time, float64, int, string, bool.
type Patch map[string]any

// Cached columns derived from the activity slots after every mutation.
const (
	ColCompleted      = "completed"
	ColTotalDuration  = "total_duration"
	ColTotalGapTime   = "total_gap_time"
	ColRoutineEndTime = "routine_end_time"
)

// Apply writes the patch into the in-memory record.
func (l *DailyLog) Apply(p Patch) {
	for col, v := range p {
		switch col {
		case ColCompleted:
			b, _ := v.(bool)
			l.Completed = b
			continue
		case ColTotalDuration:
			l.TotalDuration = intPtr(v)
			continue
		case ColTotalGapTime:
			l.TotalGapTime = intPtr(v)
			continue
		case ColRoutineEndTime:
			l.RoutineEndTime = nil
			if t, ok := v.(time.Time); ok {
				l.RoutineEndTime = &t
			}
			continue
		}
		delete(l.Times, col)
		delete(l.Numbers, col)
		delete(l.Texts, col)
		delete(l.Flags, col)
		switch val := v.(type) {
		case time.Time:
			l.Times[col] = val
		case float64:
			l.Numbers[col] = val
		case int:
			l.Numbers[col] = float64(val)
		case string:
			l.Texts[col] = val
		case bool:
			l.Flags[col] = val
		}
	}
}

func intPtr(v any) *int {
	if n, ok := v.(int); ok {
		return &n
	}
	return nil
}

// WeeklyReportAudit is the persisted trace of one weekly report run.
type WeeklyReportAudit struct {
	ID            string     `json:"id"`
	WeekStart     string     `json:"weekStart"`
	WeekEnd       string     `json:"weekEnd"`
	DaysCompleted int        `json:"daysCompleted"`
	DaysTotal     int        `json:"daysTotal"`
	AvgWakeUpTime *string    `json:"avgWakeUpTime"`
	AvgDuration   *int       `json:"avgDuration"`
	AvgGapTime    *int       `json:"avgGapTime"`
	WeightStart   *float64   `json:"weightStart"`
	WeightEnd     *float64   `json:"weightEnd"`
	WeightDelta   *float64   `json:"weightDelta"`
	MostSkipped   *string    `json:"mostSkipped"`
	SentTo        string     `json:"sentTo"`
	EmailSent     bool       `json:"emailSent"`
	SentAt        *time.Time `json:"sentAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}
