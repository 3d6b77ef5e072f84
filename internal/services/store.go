package services

import (
	"context"
	"fmt"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/apperrors"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
	"mr-tracker/internal/utils"
)

// Store is the persistence the services need. *database.Repository
// implements it.
type Store interface {
	GetOrCreate(ctx context.Context, date time.Time) (*database.DailyLog, error)
	Update(ctx context.Context, id string, patch database.Patch) error
	FindInRange(ctx context.Context, start, end time.Time) ([]database.DailyLog, error)
	FindSince(ctx context.Context, start time.Time) ([]database.DailyLog, error)
	FindWithValueSince(ctx context.Context, start time.Time, column string) ([]database.DailyLog, error)
	FindMostRecentBefore(ctx context.Context, date time.Time, column string) (*database.DailyLog, error)
	FindNextAfter(ctx context.Context, date time.Time, column string) (*database.DailyLog, error)
	SaveWeeklyReport(ctx context.Context, audit database.WeeklyReportAudit) (string, error)
}

var _ Store = (*database.Repository)(nil)

// env is shared by every service of a manager so the clock can be swapped
// in one place.
type env struct {
	store    Store
	catalog  *activities.Catalog
	settings routine.Settings
	now      func() time.Time
}

func (e *env) loc() *time.Location {
	if e.settings.Location == nil {
		return time.UTC
	}
	return e.settings.Location
}

func (e *env) clock() time.Time {
	return e.now().In(e.loc())
}

func (e *env) today() time.Time {
	return utils.StartOfDay(e.clock())
}

// day resolves an optional YYYY-MM-DD string, today when empty. Days after
// today are rejected.
func (e *env) day(s string) (time.Time, error) {
	today := e.today()
	if s == "" {
		return today, nil
	}
	d, err := utils.ParseDay(s, e.loc())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if d.After(today) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", apperrors.ErrValidation, s)
	}
	return d, nil
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrUpstream, op, err)
}
