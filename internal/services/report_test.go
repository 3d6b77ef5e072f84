package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"mr-tracker/internal/apperrors"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
)

func seededWeekStore() *fakeStore {
	store := newFakeStore()
	store.seed("2026-10-05", database.Patch{"weight": 79.0, database.ColCompleted: true})
	store.seed("2026-10-07", database.Patch{"weight": 78.7})
	store.seed("2026-10-12", database.Patch{database.ColCompleted: true})
	return store
}

func TestGenerateNormalizesToMonday(t *testing.T) {
	t.Parallel()
	sm := newTestManager(seededWeekStore())

	r, err := sm.Report.Generate(context.Background(), time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if r.WeekStart.Format(database.DateLayout) != "2026-10-05" || r.WeekEnd.Format(database.DateLayout) != "2026-10-11" {
		t.Fatalf("unexpected bounds %s..%s", r.WeekStart, r.WeekEnd)
	}
	if r.DaysCompleted != 1 || len(r.DailyDetails) != 2 || *r.WeightDelta != -0.3 {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestTriggerDeliversLastWeek(t *testing.T) {
	t.Parallel()
	store := seededWeekStore()
	sender := &fakeSender{}
	sm := newTestManager(store)
	sm.SetReportSender(sender, "me@example.com", "s3cret")

	res, err := sm.Report.Trigger(context.Background(), "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || !res.EmailSent || res.SentTo != "me@example.com" || res.ReportID != "report-2026-10-05" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(sender.sent) != 1 || sender.to[0] != "me@example.com" {
		t.Fatalf("expected one send, got %d", len(sender.sent))
	}
	if len(store.audits) != 1 {
		t.Fatalf("expected one audit, got %d", len(store.audits))
	}
	a := store.audits[0]
	if a.WeekStart != "2026-10-05" || a.WeekEnd != "2026-10-11" || !a.EmailSent || a.SentAt == nil || !a.SentAt.Equal(now) {
		t.Fatalf("unexpected audit %+v", a)
	}
}

func TestTriggerRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name, secret, credential string
	}{
		{name: "wrong", secret: "s3cret", credential: "guess"},
		{name: "empty credential", secret: "s3cret", credential: ""},
		{name: "no secret configured", secret: "", credential: ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := seededWeekStore()
			sender := &fakeSender{}
			sm := newTestManager(store)
			sm.SetReportSender(sender, "me@example.com", tc.secret)

			if _, err := sm.Report.Trigger(context.Background(), tc.credential); !errors.Is(err, apperrors.ErrUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if len(sender.sent) != 0 || len(store.audits) != 0 {
				t.Fatalf("a rejected trigger must have no side effects")
			}
		})
	}
}

func TestDeliverRecordsFailedSends(t *testing.T) {
	t.Parallel()
	store := seededWeekStore()
	sm := newTestManager(store)
	sm.SetReportSender(&fakeSender{err: errors.New("smtp down")}, "me@example.com", "s3cret")

	res, err := sm.Report.Deliver(context.Background(), time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if res.EmailSent || len(store.audits) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if a := store.audits[0]; a.EmailSent || a.SentAt != nil || a.DaysCompleted != 1 {
		t.Fatalf("unexpected audit %+v", a)
	}
}

func TestDeliverWithoutSender(t *testing.T) {
	t.Parallel()
	store := seededWeekStore()
	res, err := newTestManager(store).Report.LastWeek(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.EmailSent || len(store.audits) != 1 {
		t.Fatalf("the audit is saved even with no sender: %+v", res)
	}
}

func TestDeliverStorageFailure(t *testing.T) {
	t.Parallel()
	store := seededWeekStore()
	store.err = errors.New("read only")
	if _, err := newTestManager(store).Report.LastWeek(context.Background()); !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected an upstream error, got %v", err)
	}
}

func TestFallbackSender(t *testing.T) {
	t.Parallel()
	failing := &fakeSender{err: errors.New("smtp down")}
	backup := &fakeSender{}

	err := FallbackSender{failing, backup}.SendWeeklyReport(context.Background(), routine.WeeklyReport{}, "me")
	if err != nil || len(backup.sent) != 1 {
		t.Fatalf("backup should have sent: %v", err)
	}

	if err := (FallbackSender{failing}).SendWeeklyReport(context.Background(), routine.WeeklyReport{}, "me"); err == nil {
		t.Fatalf("expected the joined error")
	}
	if err := (FallbackSender{}).SendWeeklyReport(context.Background(), routine.WeeklyReport{}, "me"); err == nil {
		t.Fatalf("expected an error with no senders")
	}
}
