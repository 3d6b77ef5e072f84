package services

import (
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/routine"
)

type ServiceManager struct {
	Day      *DayService
	Activity *ActivityService
	Stats    *StatsService
	Report   *ReportService
	env      *env
}

func NewServiceManager(store Store, catalog *activities.Catalog, settings routine.Settings) *ServiceManager {
	e := &env{
		store:    store,
		catalog:  catalog,
		settings: settings,
		now:      time.Now,
	}

	return &ServiceManager{
		Day:      &DayService{env: e},
		Activity: &ActivityService{env: e},
		Stats:    &StatsService{env: e},
		Report:   &ReportService{env: e},
		env:      e,
	}
}

// SetReportSender wires the weekly report delivery. Until it is called
// Deliver only records the audit row.
func (sm *ServiceManager) SetReportSender(sender ReportSender, recipient, secret string) {
	sm.Report.sender = sender
	sm.Report.recipient = recipient
	sm.Report.secret = secret
}

// SetClock replaces the wall clock of every service.
func (sm *ServiceManager) SetClock(now func() time.Time) {
	sm.env.now = now
}

func (sm *ServiceManager) Catalog() *activities.Catalog {
	return sm.env.catalog
}

func (sm *ServiceManager) Location() *time.Location {
	return sm.env.loc()
}

// Now is the current time in the configured timezone.
func (sm *ServiceManager) Now() time.Time {
	return sm.env.clock()
}
