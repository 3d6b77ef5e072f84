package telegram

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/apperrors"
	"mr-tracker/internal/routine"
	"mr-tracker/internal/services"
	"mr-tracker/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

func (b *Bot) SendMessageOrLogError(message string) {
	if err := b.SendMessage(message); err != nil {
		log.Error().Err(err).Msg("❌ telegram send failed")
	}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return "❓ Non trovato: " + strings.TrimPrefix(err.Error(), apperrors.ErrNotFound.Error()+": ") + ". Usa /help"
	case errors.Is(err, apperrors.ErrValidation):
		return "⚠️ " + strings.TrimPrefix(err.Error(), apperrors.ErrValidation.Error()+": ")
	default:
		log.Error().Err(err).Msg("❌ bot command failed")
		return "❌ Errore interno, riprova più tardi"
	}
}

func activityName(cat *activities.Catalog, id string) string {
	if def, ok := cat.Get(id); ok {
		return def.Name
	}
	return id
}

func confirmText(cat *activities.Catalog, a services.ActivityAction) string {
	name := activityName(cat, a.ActivityID)
	switch a.Action {
	case services.ActionStart:
		return "▶️ " + name + " avviata"
	case services.ActionStop:
		return "✅ " + name + " completata"
	case services.ActionSetValue:
		return fmt.Sprintf("⚖️ %s: %.1f", name, *a.Value)
	case services.ActionSetTime:
		return "🕐 " + name + " registrata"
	case services.ActionSkip:
		return "⏭ " + name + " saltata"
	case services.ActionReset:
		return "🔄 " + name + " azzerata"
	}
	return "✅ " + name
}

func activityList(cat *activities.Catalog) string {
	var sb strings.Builder
	sb.WriteString("<b>Attività:</b>\n")
	for _, def := range cat.All() {
		fmt.Fprintf(&sb, "<code>%s</code> - %s\n", def.ID, html.EscapeString(def.Name))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func clock(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04")
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func minutes(n *int) string {
	if n == nil {
		return "-"
	}
	return utils.FormatDuration(*n)
}

func kg(w *float64) string {
	if w == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f kg", *w)
}

func formatDay(day routine.DailyLogData, cat *activities.Catalog, loc *time.Location) string {
	s := day.Summary

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>Routine del %s</b>\n\n", day.Date)
	fmt.Fprintf(&sb, "✅ %d/%d (%d%%)\n", s.CompletedCount, s.TotalCount, s.Percentage)
	fmt.Fprintf(&sb, "⏱ Durata: %s · ⏸ Pause: %s\n", minutes(s.TotalDuration), minutes(s.TotalGapTime))
	if s.OnTrack {
		fmt.Fprintf(&sb, "🏁 Fine: %s · 🎯 In orario\n\n", clock(s.RoutineEndTime, loc))
	} else {
		fmt.Fprintf(&sb, "🏁 Fine: %s · ⚠️ In ritardo\n\n", clock(s.RoutineEndTime, loc))
	}

	for _, def := range cat.All() {
		obs := day.Activities[def.ID]
		fmt.Fprintf(&sb, "%s %s", utils.StateEmoji(string(obs.State)), html.EscapeString(def.Name))
		if detail := observationDetail(def, obs, loc); detail != "" {
			sb.WriteString(" · " + detail)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func observationDetail(def activities.Definition, obs routine.Observation, loc *time.Location) string {
	switch obs.State {
	case routine.StateActive:
		return "dalle " + clock(obs.StartTime, loc)
	case routine.StateSkipped:
		return "saltata"
	case routine.StateCompleted:
	default:
		return ""
	}

	var parts []string
	switch def.Shape {
	case activities.TimeOnly:
		parts = append(parts, clock(obs.StartTime, loc))
		if obs.SleepQuality != nil {
			parts = append(parts, fmt.Sprintf("😴 %d", *obs.SleepQuality))
		}
	case activities.NumericValue:
		parts = append(parts, kg(obs.Value))
		if obs.Notes != nil {
			parts = append(parts, "("+*obs.Notes+")")
		}
	default:
		parts = append(parts, fmt.Sprintf("%s-%s %s", clock(obs.StartTime, loc), clock(obs.EndTime, loc), minutes(obs.Duration)))
		if def.TargetMinutes != nil && obs.Duration != nil && *obs.Duration > *def.TargetMinutes {
			parts = append(parts, fmt.Sprintf("⚠️ oltre %dm", *def.TargetMinutes))
		}
		if obs.Notes != nil {
			parts = append(parts, "<i>"+html.EscapeString(*obs.Notes)+"</i>")
		}
	}
	return strings.Join(parts, " ")
}

// dayKeyboard offers one button per action that needs no input.
func dayKeyboard(day routine.DailyLogData, cat *activities.Catalog) (tgbotapi.InlineKeyboardMarkup, bool) {
	var buttons []tgbotapi.InlineKeyboardButton
	add := func(label string, action services.Action, id string) {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("act:%s:%s", action, id)))
	}

	for _, def := range cat.All() {
		obs := day.Activities[def.ID]
		switch {
		case def.IsDuration() && obs.State == routine.StatePending:
			add("▶️ "+def.Name, services.ActionStart, def.ID)
			if def.SupportsSkip() {
				add("⏭ "+def.Name, services.ActionSkip, def.ID)
			}
		case def.IsDuration() && obs.State == routine.StateActive:
			add("⏹ "+def.Name, services.ActionStop, def.ID)
		case def.Shape == activities.TimeOnly && obs.State == routine.StatePending:
			add("🕐 "+def.Name, services.ActionSetTime, def.ID)
		}
	}
	if len(buttons) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += 2 {
		end := min(i+2, len(buttons))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[i:end]...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func formatStats(s routine.Stats, cat *activities.Catalog) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Statistiche (%s)</b>\n\n", s.Period)
	fmt.Fprintf(&sb, "✅ Completamento: %d%%\n", s.CompletionRate)
	fmt.Fprintf(&sb, "⏰ Sveglia media: %s\n", orDash(s.AvgWakeUpTime))
	fmt.Fprintf(&sb, "⏱ Durata media: %s · ⏸ Pause medie: %s\n", minutes(s.AvgRoutineDuration), minutes(s.AvgGapTime))
	fmt.Fprintf(&sb, "🔥 Serie: %d (record %d)\n", s.CurrentStreak, s.BestStreak)
	fmt.Fprintf(&sb, "⚖️ Peso: %s %s (sett. fa %s, mese fa %s)\n\n",
		kg(s.Weight.Current), utils.TrendEmoji(string(s.Weight.Trend)), kg(s.Weight.WeekAgo), kg(s.Weight.MonthAgo))

	sb.WriteString("<b>Per attività:</b>\n")
	for _, def := range cat.All() {
		c, ok := s.ActivitiesCompletion[def.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s: %d%%", html.EscapeString(def.Name), c.CompletionRate)
		if c.AvgDuration != nil {
			sb.WriteString(" · " + minutes(c.AvgDuration))
		}
		sb.WriteString("\n")
	}

	if s.MostSkipped != nil {
		fmt.Fprintf(&sb, "\n⚠️ Più saltata: %s\n", html.EscapeString(activityName(cat, *s.MostSkipped)))
	}

	if insights := services.Insights(s, func(id string) string { return activityName(cat, id) }); len(insights) > 0 {
		sb.WriteString("\n<b>💡 Spunti:</b>\n" + strings.Join(insights, "\n"))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatWeights(h routine.WeightHistoryData, days int) string {
	if len(h.Data) == 0 {
		return fmt.Sprintf("📭 Nessun peso registrato negli ultimi %d giorni", days)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚖️ <b>Peso ultimi %d giorni</b>\n\n", days)
	for _, p := range h.Data {
		fmt.Fprintf(&sb, "%s: %.1f kg", p.Date, p.Weight)
		if p.Delta != nil {
			fmt.Fprintf(&sb, " (%s)", routine.FormatDelta(*p.Delta))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nMin %.1f · Max %.1f · Media %.1f\n", h.Stats.Min, h.Stats.Max, h.Stats.Avg)
	fmt.Fprintf(&sb, "Andamento: %s kg/settimana", routine.FormatDelta(h.Stats.Trend))
	return sb.String()
}

func formatReport(r routine.WeeklyReport, cat *activities.Catalog, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("📈 <b>Report settimanale</b>\n")
	fmt.Fprintf(&sb, "📅 %s → %s\n\n", r.WeekStart.In(loc).Format("2006-01-02"), r.WeekEnd.In(loc).Format("2006-01-02"))
	fmt.Fprintf(&sb, "✅ Giorni completi: %d/%d (%d%%)\n", r.DaysCompleted, r.DaysTotal, r.CompletionRate)
	fmt.Fprintf(&sb, "⏰ Sveglia media: %s\n", orDash(r.AvgWakeUpTime))
	fmt.Fprintf(&sb, "⏱ Durata media: %s · ⏸ Pause medie: %s\n", minutes(r.AvgDuration), minutes(r.AvgGapTime))
	fmt.Fprintf(&sb, "⚖️ Peso: %s → %s", kg(r.WeightStart), kg(r.WeightEnd))
	if r.WeightDelta != nil {
		fmt.Fprintf(&sb, " (%s)", routine.FormatDelta(*r.WeightDelta))
	}
	sb.WriteString("\n")

	if len(r.DailyDetails) > 0 {
		sb.WriteString("\n<b>Giorni:</b>\n")
		for _, d := range r.DailyDetails {
			mark := "⬜"
			if d.Completed {
				mark = "✅"
			}
			fmt.Fprintf(&sb, "%s %s %d/%d", mark, d.Date, d.CompletedActivities, d.TotalActivities)
			if d.RoutineEndTime != nil {
				sb.WriteString(" · " + *d.RoutineEndTime)
			}
			sb.WriteString("\n")
		}
	}

	if r.MostSkipped != nil {
		fmt.Fprintf(&sb, "\n⚠️ Più saltata: %s\n", html.EscapeString(activityName(cat, *r.MostSkipped)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
