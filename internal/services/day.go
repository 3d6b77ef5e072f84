package services

import (
	"context"

	"mr-tracker/internal/routine"
)

type DayService struct {
	*env
}

func (ds *DayService) Today(ctx context.Context) (routine.DailyLogData, error) {
	return ds.Day(ctx, "")
}

// Day returns the read model of a date (YYYY-MM-DD, today when empty),
// creating the empty record on first access.
func (ds *DayService) Day(ctx context.Context, date string) (routine.DailyLogData, error) {
	d, err := ds.day(date)
	if err != nil {
		return routine.DailyLogData{}, err
	}
	l, err := ds.store.GetOrCreate(ctx, d)
	if err != nil {
		return routine.DailyLogData{}, upstream("load day", err)
	}
	return routine.BuildDay(ds.catalog, l, ds.settings), nil
}
