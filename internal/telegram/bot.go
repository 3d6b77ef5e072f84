package telegram

import (
	"context"
	"fmt"
	"strings"

	"mr-tracker/internal/routine"
	"mr-tracker/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// api is the part of tgbotapi.BotAPI the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	bot      api
	username string
	chatID   int64
	services *services.ServiceManager
	handlers map[string]func(context.Context, *tgbotapi.Message)
}

func NewBot(token string, chatID int64, serviceManager *services.ServiceManager) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	bot := newBot(botAPI, chatID, serviceManager)
	bot.username = botAPI.Self.UserName
	log.Info().Str("username", bot.username).Msg("🤖 bot initialized")
	return bot, nil
}

func newBot(a api, chatID int64, serviceManager *services.ServiceManager) *Bot {
	bot := &Bot{
		bot:      a,
		chatID:   chatID,
		services: serviceManager,
		handlers: make(map[string]func(context.Context, *tgbotapi.Message)),
	}
	bot.registerHandlers()
	return bot
}

func (b *Bot) registerHandlers() {
	b.handlers["/start"] = b.handleHelp
	b.handlers["/help"] = b.handleHelp
	b.handlers["/today"] = b.handleToday
	b.handlers["/go"] = b.handleGo
	b.handlers["/done"] = b.handleDone
	b.handlers["/weight"] = b.handleWeight
	b.handlers["/wake"] = b.handleWake
	b.handlers["/skip"] = b.handleSkip
	b.handlers["/reset"] = b.handleReset
	b.handlers["/stats"] = b.handleStats
	b.handlers["/weights"] = b.handleWeights
	b.handlers["/week"] = b.handleWeek
}

func (b *Bot) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.bot.Send(msg)
	return err
}

// SendWeeklyReport posts the report to the configured chat. The recipient
// address is for email and is ignored here.
func (b *Bot) SendWeeklyReport(_ context.Context, report routine.WeeklyReport, _ string) error {
	return b.SendMessage(formatReport(report, b.services.Catalog(), b.services.Location()))
}

func (b *Bot) GetUsername() string {
	return b.username
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	if update.Message.Chat.ID != b.chatID {
		log.Warn().Int64("chat", update.Message.Chat.ID).Msg("⛔ message from an unknown chat")
		denied := tgbotapi.NewMessage(update.Message.Chat.ID, "⛔ Accesso negato")
		if _, err := b.bot.Send(denied); err != nil {
			log.Error().Err(err).Msg("❌ telegram send failed")
		}
		return
	}

	b.handleMessage(ctx, update.Message)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}

	if handler, exists := b.handlers["/"+msg.Command()]; exists {
		handler(ctx, msg)
		return
	}
	b.SendMessageOrLogError("❌ Comando sconosciuto. Usa /help")
}

// Callback data is "act:<action>:<activity id>".
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.bot.Request(tgbotapi.NewCallback(callback.ID, "✅")); err != nil {
			log.Error().Err(err).Msg("❌ telegram callback answer failed")
		}
	}()

	if callback.Message == nil || callback.Message.Chat.ID != b.chatID {
		return
	}

	parts := strings.SplitN(callback.Data, ":", 3)
	if len(parts) != 3 || parts[0] != "act" {
		log.Warn().Str("data", callback.Data).Msg("⚠️ unknown callback")
		return
	}

	b.apply(ctx, services.ActivityAction{ActivityID: parts[2], Action: services.Action(parts[1])})
	b.sendToday(ctx)
}

// apply runs an action and reports the outcome in the chat.
func (b *Bot) apply(ctx context.Context, action services.ActivityAction) bool {
	if _, err := b.services.Activity.Apply(ctx, action); err != nil {
		b.SendMessageOrLogError(errorText(err))
		return false
	}
	b.SendMessageOrLogError(confirmText(b.services.Catalog(), action))
	return true
}
