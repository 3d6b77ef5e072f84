package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"mr-tracker/internal/apperrors"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"

	"github.com/rs/zerolog/log"
)

// ReportSender ships a weekly report to a recipient.
type ReportSender interface {
	SendWeeklyReport(ctx context.Context, report routine.WeeklyReport, to string) error
}

// FallbackSender tries each sender in order and stops at the first success.
type FallbackSender []ReportSender

func (fs FallbackSender) SendWeeklyReport(ctx context.Context, report routine.WeeklyReport, to string) error {
	if len(fs) == 0 {
		return errors.New("no report sender configured")
	}
	var errs []error
	for _, s := range fs {
		err := s.SendWeeklyReport(ctx, report, to)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type DeliveryResult struct {
	Success   bool   `json:"success"`
	ReportID  string `json:"reportId"`
	SentTo    string `json:"sentTo"`
	EmailSent bool   `json:"emailSent"`
}

type ReportService struct {
	*env
	sender    ReportSender
	recipient string
	secret    string
}

// Generate builds the report of the ISO week containing weekStart.
func (rs *ReportService) Generate(ctx context.Context, weekStart time.Time) (routine.WeeklyReport, error) {
	start, end := routine.WeekBounds(weekStart, rs.loc())
	logs, err := rs.store.FindInRange(ctx, start, end)
	if err != nil {
		return routine.WeeklyReport{}, upstream("load week", err)
	}
	return routine.BuildWeeklyReport(rs.catalog, start, logs, rs.settings), nil
}

// Deliver generates and sends the report, then records the attempt. The
// audit row is written whether or not the send succeeded.
func (rs *ReportService) Deliver(ctx context.Context, weekStart time.Time) (DeliveryResult, error) {
	report, err := rs.Generate(ctx, weekStart)
	if err != nil {
		return DeliveryResult{}, err
	}

	sent := false
	if rs.sender != nil {
		if err := rs.sender.SendWeeklyReport(ctx, report, rs.recipient); err != nil {
			log.Error().Err(err).Str("to", rs.recipient).Msg("❌ weekly report not sent")
		} else {
			sent = true
			sentAt := rs.now().UTC()
			report.SentAt = &sentAt
		}
	} else {
		log.Warn().Msg("⚠️ no report sender configured, saving the report only")
	}

	id, err := rs.store.SaveWeeklyReport(ctx, auditOf(report, rs.recipient, sent))
	if err != nil {
		return DeliveryResult{}, upstream("save weekly report", err)
	}

	log.Info().
		Str("week", report.WeekStart.Format(database.DateLayout)).
		Bool("sent", sent).
		Str("report_id", id).
		Msg("📨 weekly report delivered")

	return DeliveryResult{Success: true, ReportID: id, SentTo: rs.recipient, EmailSent: sent}, nil
}

// Trigger is the scheduled entry point: it delivers last week's report when
// credential matches the configured secret.
func (rs *ReportService) Trigger(ctx context.Context, credential string) (DeliveryResult, error) {
	if rs.secret == "" || subtle.ConstantTimeCompare([]byte(credential), []byte(rs.secret)) != 1 {
		return DeliveryResult{}, fmt.Errorf("%w: invalid report credential", apperrors.ErrUnauthorized)
	}
	return rs.LastWeek(ctx)
}

// LastWeek delivers the report of the previous ISO week. It backs the
// in-process schedule, which needs no credential.
func (rs *ReportService) LastWeek(ctx context.Context) (DeliveryResult, error) {
	return rs.Deliver(ctx, rs.today().AddDate(0, 0, -routine.DaysPerWeek))
}

func auditOf(r routine.WeeklyReport, to string, sent bool) database.WeeklyReportAudit {
	return database.WeeklyReportAudit{
		WeekStart:     r.WeekStart.Format(database.DateLayout),
		WeekEnd:       r.WeekEnd.Format(database.DateLayout),
		DaysCompleted: r.DaysCompleted,
		DaysTotal:     r.DaysTotal,
		AvgWakeUpTime: r.AvgWakeUpTime,
		AvgDuration:   r.AvgDuration,
		AvgGapTime:    r.AvgGapTime,
		WeightStart:   r.WeightStart,
		WeightEnd:     r.WeightEnd,
		WeightDelta:   r.WeightDelta,
		MostSkipped:   r.MostSkipped,
		SentTo:        to,
		EmailSent:     sent,
		SentAt:        r.SentAt,
	}
}
