package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"mr-tracker/internal/activities"

	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

var ErrUnknownColumn = errors.New("unknown column")

type Repository struct {
	Db      *Database
	loc     *time.Location
	columns []activities.Column
	known   map[string]activities.ColumnKind
}

func NewRepository(db *Database, cat *activities.Catalog, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.UTC
	}
	r := &Repository{
		Db:      db,
		loc:     loc,
		columns: cat.Columns(),
		known:   make(map[string]activities.ColumnKind),
	}
	for _, c := range r.columns {
		r.known[c.Name] = c.Kind
	}
	return r
}

const baseColumns = "id, date, completed, total_duration, total_gap_time, routine_end_time, created_at, updated_at"

func (r *Repository) selectList() string {
	names := make([]string, 0, len(r.columns))
	for _, c := range r.columns {
		names = append(names, c.Name)
	}
	if len(names) == 0 {
		return baseColumns
	}
	return baseColumns + ", " + strings.Join(names, ", ")
}

// FindByDate returns the record for the day, or nil when none exists.
func (r *Repository) FindByDate(ctx context.Context, date time.Time) (*DailyLog, error) {
	row := r.Db.db.QueryRowContext(ctx,
		"SELECT "+r.selectList()+" FROM daily_logs WHERE date = ?",
		date.Format(DateLayout),
	)
	l, err := r.scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find daily log %s: %w", date.Format(DateLayout), err)
	}
	return l, nil
}

// Create materializes an empty record for the day. Creating a day that
// already exists returns the stored record.
func (r *Repository) Create(ctx context.Context, date time.Time) (*DailyLog, error) {
	now := time.Now().UTC().Format(timeLayout)
	_, err := r.Db.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO daily_logs (id, date, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), date.Format(DateLayout), now, now)
	if err != nil {
		return nil, fmt.Errorf("create daily log %s: %w", date.Format(DateLayout), err)
	}

	l, err := r.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("create daily log %s: record missing after insert", date.Format(DateLayout))
	}
	return l, nil
}

func (r *Repository) GetOrCreate(ctx context.Context, date time.Time) (*DailyLog, error) {
	l, err := r.FindByDate(ctx, date)
	if err != nil || l != nil {
		return l, err
	}
	return r.Create(ctx, date)
}

// Update writes every column of the patch in a single statement.
func (r *Repository) Update(ctx context.Context, id string, patch Patch) error {
	if len(patch) == 0 {
		return nil
	}

	cols := make([]string, 0, len(patch))
	for col := range patch {
		if !r.writable(col) {
			return fmt.Errorf("update daily log: %w %q", ErrUnknownColumn, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+2)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, toSQL(patch[col]))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(timeLayout), id)

	res, err := r.Db.db.ExecContext(ctx,
		"UPDATE daily_logs SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("update daily log %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update daily log %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// FindInRange returns the records with start <= date <= end, oldest first.
func (r *Repository) FindInRange(ctx context.Context, start, end time.Time) ([]DailyLog, error) {
	return r.queryLogs(ctx,
		"SELECT "+r.selectList()+" FROM daily_logs WHERE date BETWEEN ? AND ? ORDER BY date",
		start.Format(DateLayout), end.Format(DateLayout),
	)
}

// FindSince returns the records from start onwards, oldest first.
func (r *Repository) FindSince(ctx context.Context, start time.Time) ([]DailyLog, error) {
	return r.queryLogs(ctx,
		"SELECT "+r.selectList()+" FROM daily_logs WHERE date >= ? ORDER BY date",
		start.Format(DateLayout),
	)
}

// FindWithValueSince returns the records from start onwards whose column is
// not NULL, oldest first.
func (r *Repository) FindWithValueSince(ctx context.Context, start time.Time, column string) ([]DailyLog, error) {
	if _, ok := r.known[column]; !ok {
		return nil, fmt.Errorf("find daily logs: %w %q", ErrUnknownColumn, column)
	}
	return r.queryLogs(ctx,
		"SELECT "+r.selectList()+" FROM daily_logs WHERE date >= ? AND "+column+" IS NOT NULL ORDER BY date",
		start.Format(DateLayout),
	)
}

// FindMostRecentBefore returns the latest record strictly before date whose
// column is not NULL, or nil when there is none.
func (r *Repository) FindMostRecentBefore(ctx context.Context, date time.Time, column string) (*DailyLog, error) {
	return r.findNeighbour(ctx, "find previous daily log", "date < ?", "DESC", date, column)
}

// FindNextAfter returns the earliest record strictly after date whose column
// is not NULL, or nil when there is none.
func (r *Repository) FindNextAfter(ctx context.Context, date time.Time, column string) (*DailyLog, error) {
	return r.findNeighbour(ctx, "find next daily log", "date > ?", "ASC", date, column)
}

func (r *Repository) findNeighbour(ctx context.Context, op, cond, order string, date time.Time, column string) (*DailyLog, error) {
	if _, ok := r.known[column]; !ok {
		return nil, fmt.Errorf("%s: %w %q", op, ErrUnknownColumn, column)
	}
	row := r.Db.db.QueryRowContext(ctx,
		"SELECT "+r.selectList()+" FROM daily_logs WHERE "+cond+" AND "+column+" IS NOT NULL ORDER BY date "+order+" LIMIT 1",
		date.Format(DateLayout),
	)
	l, err := r.scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func (r *Repository) SaveWeeklyReport(ctx context.Context, audit WeeklyReportAudit) (string, error) {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	var sentAt any
	if audit.SentAt != nil {
		sentAt = audit.SentAt.UTC().Format(timeLayout)
	}
	_, err := r.Db.db.ExecContext(ctx, `
		INSERT INTO weekly_reports
		(id, week_start, week_end, days_completed, days_total, avg_wake_up_time, avg_duration, avg_gap_time,
		 weight_start, weight_end, weight_delta, most_skipped, sent_to, email_sent, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		audit.ID, audit.WeekStart, audit.WeekEnd, audit.DaysCompleted, audit.DaysTotal,
		audit.AvgWakeUpTime, audit.AvgDuration, audit.AvgGapTime,
		audit.WeightStart, audit.WeightEnd, audit.WeightDelta, audit.MostSkipped,
		audit.SentTo, audit.EmailSent, sentAt, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("save weekly report: %w", err)
	}
	return audit.ID, nil
}

// ListWeeklyReports returns the most recent audits first.
func (r *Repository) ListWeeklyReports(ctx context.Context, limit int) ([]WeeklyReportAudit, error) {
	rows, err := r.Db.db.QueryContext(ctx, `
		SELECT id, week_start, week_end, days_completed, days_total, avg_wake_up_time, avg_duration, avg_gap_time,
		       weight_start, weight_end, weight_delta, most_skipped, sent_to, email_sent, sent_at, created_at
		FROM weekly_reports
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list weekly reports: %w", err)
	}
	defer rows.Close()

	var audits []WeeklyReportAudit
	for rows.Next() {
		var (
			a                    WeeklyReportAudit
			avgWake, mostSkipped sql.NullString
			avgDuration, avgGap  sql.NullInt64
			wStart, wEnd, wDelta sql.NullFloat64
			sentAt               sql.NullString
			createdAt            string
		)
		err := rows.Scan(
			&a.ID, &a.WeekStart, &a.WeekEnd, &a.DaysCompleted, &a.DaysTotal,
			&avgWake, &avgDuration, &avgGap,
			&wStart, &wEnd, &wDelta, &mostSkipped,
			&a.SentTo, &a.EmailSent, &sentAt, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan weekly report: %w", err)
		}
		a.AvgWakeUpTime = nullString(avgWake)
		a.MostSkipped = nullString(mostSkipped)
		a.AvgDuration = nullInt(avgDuration)
		a.AvgGapTime = nullInt(avgGap)
		a.WeightStart = nullFloat(wStart)
		a.WeightEnd = nullFloat(wEnd)
		a.WeightDelta = nullFloat(wDelta)
		if sentAt.Valid {
			if t, err := time.Parse(timeLayout, sentAt.String); err == nil {
				a.SentAt = &t
			}
		}
		a.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

func (r *Repository) writable(col string) bool {
	switch col {
	case ColCompleted, ColTotalDuration, ColTotalGapTime, ColRoutineEndTime:
		return true
	}
	_, ok := r.known[col]
	return ok
}

func (r *Repository) queryLogs(ctx context.Context, query string, args ...any) ([]DailyLog, error) {
	rows, err := r.Db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily logs: %w", err)
	}
	defer rows.Close()

	var logs []DailyLog
	for rows.Next() {
		l, err := r.scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanLog(s scanner) (*DailyLog, error) {
	var (
		id, date             string
		completed            bool
		totalDuration, gap   sql.NullInt64
		routineEnd           sql.NullString
		createdAt, updatedAt string
	)
	dest := []any{&id, &date, &completed, &totalDuration, &gap, &routineEnd, &createdAt, &updatedAt}

	slots := make([]any, len(r.columns))
	for i, c := range r.columns {
		switch c.Kind {
		case activities.KindNumber:
			slots[i] = new(sql.NullFloat64)
		case activities.KindFlag:
			slots[i] = new(sql.NullBool)
		default:
			slots[i] = new(sql.NullString)
		}
	}
	dest = append(dest, slots...)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(DateLayout, date, r.loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	l := NewDailyLog(id, day)
	l.Completed = completed
	l.TotalDuration = nullInt(totalDuration)
	l.TotalGapTime = nullInt(gap)
	if routineEnd.Valid {
		t, err := time.Parse(timeLayout, routineEnd.String)
		if err != nil {
			return nil, fmt.Errorf("parse routine_end_time: %w", err)
		}
		t = t.In(r.loc)
		l.RoutineEndTime = &t
	}
	l.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	l.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)

	for i, c := range r.columns {
		switch v := slots[i].(type) {
		case *sql.NullFloat64:
			if v.Valid {
				l.Numbers[c.Name] = v.Float64
			}
		case *sql.NullBool:
			if v.Valid && v.Bool {
				l.Flags[c.Name] = true
			}
		case *sql.NullString:
			if !v.Valid {
				continue
			}
			if c.Kind == activities.KindTime {
				t, err := time.Parse(timeLayout, v.String)
				if err != nil {
					return nil, fmt.Errorf("parse %s: %w", c.Name, err)
				}
				l.Times[c.Name] = t.In(r.loc)
			} else {
				l.Texts[c.Name] = v.String
			}
		}
	}
	return l, nil
}

func toSQL(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(timeLayout)
	default:
		return val
	}
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
