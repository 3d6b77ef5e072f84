package telegram

import (
	"context"
	"strconv"
	"strings"

	"mr-tracker/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const helpText = `🌅 <b>MR Tracker</b>

<b>Oggi:</b>
/today - Stato della routine con i pulsanti
/go [attività] - Avvia un'attività
/done [attività] [nota] - Termina un'attività
/weight [kg] - Registra il peso
/wake [HH:MM] [qualità 0-100] - Registra la sveglia
/skip [attività] - Salta un'attività opzionale
/reset [attività] - Azzera un'attività

<b>Andamento:</b>
/stats [week|month|all] - Statistiche del periodo
/weights [giorni] - Storico del peso
/week - Report della settimana in corso

Esempi:
/go workout
/done reading Clean Code cap. 3
/wake 05:45 80`

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	b.SendMessageOrLogError(helpText + "\n\n" + activityList(b.services.Catalog()))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) {
	b.sendToday(ctx)
}

func (b *Bot) sendToday(ctx context.Context) {
	day, err := b.services.Day.Today(ctx)
	if err != nil {
		b.SendMessageOrLogError(errorText(err))
		return
	}

	out := tgbotapi.NewMessage(b.chatID, formatDay(day, b.services.Catalog(), b.services.Location()))
	out.ParseMode = tgbotapi.ModeHTML
	if keyboard, ok := dayKeyboard(day, b.services.Catalog()); ok {
		out.ReplyMarkup = keyboard
	}
	if _, err := b.bot.Send(out); err != nil {
		log.Error().Err(err).Msg("❌ telegram send failed")
	}
}

func (b *Bot) handleGo(ctx context.Context, msg *tgbotapi.Message) {
	id, _ := splitFirst(msg.CommandArguments())
	if id == "" {
		b.SendMessageOrLogError("❌ Formato: /go [attività]")
		return
	}
	b.apply(ctx, services.ActivityAction{ActivityID: id, Action: services.ActionStart})
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) {
	id, note := splitFirst(msg.CommandArguments())
	if id == "" {
		b.SendMessageOrLogError("❌ Formato: /done [attività] [nota]")
		return
	}
	action := services.ActivityAction{ActivityID: id, Action: services.ActionStop}
	if note != "" {
		action.Notes = &note
	}
	b.apply(ctx, action)
}

func (b *Bot) handleWeight(ctx context.Context, msg *tgbotapi.Message) {
	def, ok := b.services.Catalog().Weight()
	if !ok {
		b.SendMessageOrLogError("❌ Nessuna attività di peso configurata")
		return
	}
	raw, _ := splitFirst(msg.CommandArguments())
	kg, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		b.SendMessageOrLogError("❌ Formato: /weight [kg], es. /weight 78.4")
		return
	}
	b.apply(ctx, services.ActivityAction{ActivityID: def.ID, Action: services.ActionSetValue, Value: &kg})
}

func (b *Bot) handleWake(ctx context.Context, msg *tgbotapi.Message) {
	def, ok := b.services.Catalog().WakeUp()
	if !ok {
		b.SendMessageOrLogError("❌ Nessuna attività di sveglia configurata")
		return
	}
	action := services.ActivityAction{ActivityID: def.ID, Action: services.ActionSetTime}

	for _, arg := range strings.Fields(msg.CommandArguments()) {
		if strings.Contains(arg, ":") {
			action.Time = arg
			continue
		}
		q, err := strconv.Atoi(arg)
		if err != nil {
			b.SendMessageOrLogError("❌ Formato: /wake [HH:MM] [qualità 0-100]")
			return
		}
		action.SleepQuality = &q
	}
	b.apply(ctx, action)
}

func (b *Bot) handleSkip(ctx context.Context, msg *tgbotapi.Message) {
	id, _ := splitFirst(msg.CommandArguments())
	if id == "" {
		b.SendMessageOrLogError("❌ Formato: /skip [attività]")
		return
	}
	b.apply(ctx, services.ActivityAction{ActivityID: id, Action: services.ActionSkip})
}

func (b *Bot) handleReset(ctx context.Context, msg *tgbotapi.Message) {
	id, _ := splitFirst(msg.CommandArguments())
	if id == "" {
		b.SendMessageOrLogError("❌ Formato: /reset [attività]")
		return
	}
	b.apply(ctx, services.ActivityAction{ActivityID: id, Action: services.ActionReset})
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	period, _ := splitFirst(msg.CommandArguments())
	stats, err := b.services.Stats.Stats(ctx, period)
	if err != nil {
		b.SendMessageOrLogError(errorText(err))
		return
	}
	b.SendMessageOrLogError(formatStats(stats, b.services.Catalog()))
}

func (b *Bot) handleWeights(ctx context.Context, msg *tgbotapi.Message) {
	days := 30
	if raw, _ := splitFirst(msg.CommandArguments()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			b.SendMessageOrLogError("❌ Formato: /weights [giorni]")
			return
		}
		days = n
	}
	history, err := b.services.Stats.WeightHistory(ctx, days)
	if err != nil {
		b.SendMessageOrLogError(errorText(err))
		return
	}
	b.SendMessageOrLogError(formatWeights(history, days))
}

func (b *Bot) handleWeek(ctx context.Context, msg *tgbotapi.Message) {
	report, err := b.services.Report.Generate(ctx, b.services.Now())
	if err != nil {
		b.SendMessageOrLogError(errorText(err))
		return
	}
	b.SendMessageOrLogError(formatReport(report, b.services.Catalog(), b.services.Location()))
}

// splitFirst splits "id rest of text" into the first word and the rest.
func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	first, rest, _ := strings.Cut(s, " ")
	return strings.ToLower(first), strings.TrimSpace(rest)
}
