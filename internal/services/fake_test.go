package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
	"mr-tracker/internal/utils"
)

// fakeStore keeps records in memory, keyed by YYYY-MM-DD.
type fakeStore struct {
	mu      sync.Mutex
	logs    map[string]*database.DailyLog
	audits  []database.WeeklyReportAudit
	updates []database.Patch
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{logs: make(map[string]*database.DailyLog)}
}

func (f *fakeStore) seed(day string, patch database.Patch) {
	d, _ := utils.ParseDay(day, time.UTC)
	l := database.NewDailyLog("log-"+day, d)
	l.Apply(patch)
	f.logs[day] = l
}

func (f *fakeStore) get(day string) *database.DailyLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs[day]
}

func (f *fakeStore) GetOrCreate(_ context.Context, date time.Time) (*database.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := date.Format(database.DateLayout)
	l, ok := f.logs[key]
	if !ok {
		l = database.NewDailyLog("log-"+key, date)
		f.logs[key] = l
	}
	return l.Clone(), nil
}

func (f *fakeStore) Update(_ context.Context, id string, patch database.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, l := range f.logs {
		if l.ID == id {
			l.Apply(patch)
			f.updates = append(f.updates, patch)
			return nil
		}
	}
	return errors.New("no such record")
}

func (f *fakeStore) sorted(keep func(*database.DailyLog) bool) []database.DailyLog {
	var out []database.DailyLog
	for _, l := range f.logs {
		if keep(l) {
			out = append(out, *l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f *fakeStore) FindInRange(_ context.Context, start, end time.Time) ([]database.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(l *database.DailyLog) bool {
		return !l.Date.Before(start) && !l.Date.After(end)
	}), nil
}

func (f *fakeStore) FindSince(_ context.Context, start time.Time) ([]database.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(l *database.DailyLog) bool { return !l.Date.Before(start) }), nil
}

func (f *fakeStore) FindWithValueSince(_ context.Context, start time.Time, column string) ([]database.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(l *database.DailyLog) bool {
		_, ok := l.Number(column)
		return ok && !l.Date.Before(start)
	}), nil
}

func (f *fakeStore) FindMostRecentBefore(_ context.Context, date time.Time, column string) (*database.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	matches := f.sorted(func(l *database.DailyLog) bool {
		_, ok := l.Number(column)
		return ok && l.Date.Before(date)
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[len(matches)-1], nil
}

func (f *fakeStore) FindNextAfter(_ context.Context, date time.Time, column string) (*database.DailyLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	matches := f.sorted(func(l *database.DailyLog) bool {
		_, ok := l.Number(column)
		return ok && l.Date.After(date)
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (f *fakeStore) SaveWeeklyReport(_ context.Context, audit database.WeeklyReportAudit) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	audit.ID = "report-" + audit.WeekStart
	f.audits = append(f.audits, audit)
	return audit.ID, nil
}

type fakeSender struct {
	err  error
	sent []routine.WeeklyReport
	to   []string
}

func (s *fakeSender) SendWeeklyReport(_ context.Context, r routine.WeeklyReport, to string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, r)
	s.to = append(s.to, to)
	return nil
}

// now is Friday 2026-10-16, 06:30 UTC.
var now = time.Date(2026, 10, 16, 6, 30, 0, 0, time.UTC)

func newTestManager(store *fakeStore) *ServiceManager {
	sm := NewServiceManager(store, activities.Default(), routine.Settings{
		Location:  time.UTC,
		TargetEnd: utils.Clock{Hour: 7},
	})
	sm.SetClock(func() time.Time { return now })
	return sm
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 10, 16, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
