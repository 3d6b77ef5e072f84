package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/routine"
)

var (
	months   = [...]string{"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"}
	weekdays = [...]string{"dom", "lun", "mar", "mer", "gio", "ven", "sab"}
)

func shortDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), months[t.Month()-1])
}

// Subject is "Report Settimanale MR - 5 ott".
func Subject(r routine.WeeklyReport, loc *time.Location) string {
	return "Report Settimanale MR - " + shortDate(r.WeekStart.In(loc))
}

type view struct {
	Range       string
	Report      routine.WeeklyReport
	WeightClass string
	WeightDelta string
	Days        []dayView
	MostSkipped string
}

type dayView struct {
	Label  string
	Status string
	Done   bool
	End    string
}

// Render produces the HTML body of the weekly report email.
func Render(r routine.WeeklyReport, cat *activities.Catalog, loc *time.Location) (string, error) {
	start, end := r.WeekStart.In(loc), r.WeekEnd.In(loc)
	v := view{
		Range:       fmt.Sprintf("%s - %s %d", shortDate(start), shortDate(end), end.Year()),
		Report:      r,
		WeightClass: "delta-stable",
		WeightDelta: "=",
	}

	if d := r.WeightDelta; d != nil {
		v.WeightDelta = routine.FormatDelta(*d) + " kg"
		switch {
		case *d < 0:
			v.WeightClass = "delta-down"
		case *d > 0:
			v.WeightClass = "delta-up"
		}
	}

	for _, d := range r.DailyDetails {
		day, err := time.ParseInLocation("2006-01-02", d.Date, loc)
		if err != nil {
			return "", fmt.Errorf("render weekly report: %w", err)
		}
		dv := dayView{
			Label:  fmt.Sprintf("%s %d", weekdays[day.Weekday()], day.Day()),
			Status: fmt.Sprintf("%d/%d", d.CompletedActivities, d.TotalActivities),
			Done:   d.Completed,
			End:    "-",
		}
		if d.Completed {
			dv.Status = "Completato"
		}
		if d.RoutineEndTime != nil {
			dv.End = *d.RoutineEndTime
		}
		v.Days = append(v.Days, dv)
	}

	if r.MostSkipped != nil {
		v.MostSkipped = *r.MostSkipped
		if def, ok := cat.Get(*r.MostSkipped); ok {
			v.MostSkipped = def.Name
		}
	}

	var b bytes.Buffer
	if err := reportTemplate.Execute(&b, v); err != nil {
		return "", fmt.Errorf("render weekly report: %w", err)
	}
	return b.String(), nil
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"orDash": func(s *string) string {
		if s == nil {
			return "-"
		}
		return *s
	},
	"minutes": func(n *int) string {
		if n == nil {
			return "-"
		}
		return fmt.Sprintf("%dm", *n)
	},
	"kg": func(w *float64) string {
		if w == nil {
			return "-"
		}
		return fmt.Sprintf("%.1f kg", *w)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #333; background: #f5f5f5; margin: 0; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #1a1a2e; color: white; padding: 24px; border-radius: 12px 12px 0 0; text-align: center; }
.content { background: white; padding: 24px; border-radius: 0 0 12px 12px; }
.stat { display: inline-block; width: 45%; text-align: center; padding: 12px 0; }
.stat-value { font-size: 28px; font-weight: bold; color: #1a1a2e; }
.stat-label { font-size: 12px; color: #666; text-transform: uppercase; }
.section-title { font-size: 16px; font-weight: 600; margin: 24px 0 12px; border-bottom: 2px solid #e9ecef; }
.delta-down { color: #155724; } .delta-up { color: #721c24; } .delta-stable { color: #495057; }
.day-row { padding: 8px 0; border-bottom: 1px solid #e9ecef; }
.status-completed { color: #28a745; } .status-incomplete { color: #dc3545; }
.alert { background: #fff3cd; color: #856404; padding: 12px 16px; border-radius: 8px; margin-top: 16px; }
.footer { text-align: center; padding: 16px; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Report Settimanale MR</h1>
    <p>{{.Range}}</p>
  </div>
  <div class="content">
    <div class="stat"><div class="stat-value">{{.Report.CompletionRate}}%</div><div class="stat-label">Completamento</div></div>
    <div class="stat"><div class="stat-value">{{.Report.DaysCompleted}}/{{.Report.DaysTotal}}</div><div class="stat-label">Giorni Completi</div></div>
    <div class="stat"><div class="stat-value">{{orDash .Report.AvgWakeUpTime}}</div><div class="stat-label">Sveglia Media</div></div>
    <div class="stat"><div class="stat-value">{{minutes .Report.AvgDuration}}</div><div class="stat-label">Durata Media</div></div>

    <div class="section-title">Peso</div>
    <p>Inizio: <strong>{{kg .Report.WeightStart}}</strong> · Fine: <strong>{{kg .Report.WeightEnd}}</strong> ·
      <span class="{{.WeightClass}}">{{.WeightDelta}}</span></p>

    <div class="section-title">Dettaglio Giornaliero</div>
    {{range .Days}}<div class="day-row">
      <strong>{{.Label}}</strong>
      <span class="{{if .Done}}status-completed{{else}}status-incomplete{{end}}">{{.Status}}</span>
      <span>{{.End}}</span>
    </div>
    {{end}}
    {{with .MostSkipped}}<div class="alert">Attività più saltata: <strong>{{.}}</strong></div>{{end}}
  </div>
  <div class="footer">MR Tracker - Morning Routine</div>
</div>
</body>
</html>
`))
