package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"mr-tracker/internal/activities"
	"mr-tracker/internal/api"
	"mr-tracker/internal/config"
	"mr-tracker/internal/database"
	"mr-tracker/internal/mailer"
	"mr-tracker/internal/routine"
	"mr-tracker/internal/services"
	"mr-tracker/internal/telegram"

	"github.com/gofiber/fiber/v2"
	"github.com/mattn/go-isatty"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	reportTimeout   = 2 * time.Minute
	shutdownTimeout = 5 * time.Second
)

type Application struct {
	config     *config.Config
	db         *database.Database
	repo       *database.Repository
	bot        *telegram.Bot
	mailer     *mailer.Mailer
	services   *services.ServiceManager
	server     *fiber.App
	cron       *cron.Cron
	cancelFunc context.CancelFunc
	ctx        context.Context
}

// SetupLogging points the global logger at stderr, pretty-printed on a terminal.
func SetupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// Open wires storage and services without touching the network.
func Open(cfg *config.Config) (*Application, error) {
	catalog := activities.Default()
	if cfg.Routine.CatalogPath != "" {
		var err error
		if catalog, err = activities.Load(cfg.Routine.CatalogPath); err != nil {
			return nil, err
		}
	}

	db, err := database.New(cfg.Database.Path, catalog)
	if err != nil {
		return nil, err
	}

	repo := database.NewRepository(db, catalog, cfg.Location())
	serviceManager := services.NewServiceManager(repo, catalog, routine.Settings{
		Location:  cfg.Location(),
		TargetEnd: cfg.TargetEnd(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	a := &Application{
		config:     cfg,
		db:         db,
		repo:       repo,
		services:   serviceManager,
		cancelFunc: cancel,
		ctx:        ctx,
	}

	if cfg.SMTPEnabled() {
		a.mailer = mailer.New(mailer.Config{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			From: cfg.SMTP.From,
		}, catalog, cfg.Location())
	}
	a.wireSender()

	return a, nil
}

func (a *Application) Services() *services.ServiceManager {
	return a.services
}

func (a *Application) Reports(ctx context.Context, limit int) ([]database.WeeklyReportAudit, error) {
	return a.repo.ListWeeklyReports(ctx, limit)
}

// ConnectBot logs in to Telegram. It is a no-op when no token is configured.
func (a *Application) ConnectBot() error {
	if !a.config.BotEnabled() || a.bot != nil {
		return nil
	}
	bot, err := telegram.NewBot(a.config.Telegram.Token, a.config.Telegram.ChatID, a.services)
	if err != nil {
		return err
	}
	a.bot = bot
	a.wireSender()
	return nil
}

// wireSender prefers email and falls back to the Telegram chat.
func (a *Application) wireSender() {
	var senders services.FallbackSender
	if a.mailer != nil {
		senders = append(senders, a.mailer)
	}
	if a.bot != nil {
		senders = append(senders, a.bot)
	}
	if len(senders) == 0 {
		a.services.SetReportSender(nil, a.config.Report.Email, a.config.Report.CronSecret)
		return
	}
	a.services.SetReportSender(senders, a.config.Report.Email, a.config.Report.CronSecret)
}

func (a *Application) Start() error {
	log.Info().Msg("🚀 starting mr-tracker")

	if err := a.ConnectBot(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", ":"+a.config.Server.Port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", a.config.Server.Port, err)
	}
	a.server = api.NewApp(api.NewHandler(a.services))
	go func() {
		if err := a.server.Listener(ln); err != nil {
			log.Error().Err(err).Msg("❌ http server stopped")
		}
	}()

	a.cron = cron.New(cron.WithLocation(a.config.Location()))
	if _, err := a.cron.AddFunc(a.config.Report.Schedule, a.sendLastWeek); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", a.config.Report.Schedule, err)
	}
	a.cron.Start()

	if a.bot != nil {
		go a.bot.Start(a.ctx)
		a.sendWelcomeMessage()
		log.Info().Str("bot", a.bot.GetUsername()).Msg("🤖 telegram bot running")
	} else {
		log.Warn().Msg("⚠️ telegram token not set, bot disabled")
	}

	log.Info().Str("port", a.config.Server.Port).Str("schedule", a.config.Report.Schedule).Msg("✅ mr-tracker started")
	return nil
}

func (a *Application) Stop() error {
	log.Info().Msg("🛑 stopping mr-tracker")

	a.cancelFunc()
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.server != nil {
		if err := a.server.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("⚠️ http shutdown")
		}
	}

	if err := a.db.Close(); err != nil {
		log.Warn().Err(err).Msg("⚠️ closing database")
		return err
	}

	log.Info().Msg("✅ mr-tracker stopped")
	return nil
}

func (a *Application) sendLastWeek() {
	ctx, cancel := context.WithTimeout(a.ctx, reportTimeout)
	defer cancel()

	result, err := a.services.Report.LastWeek(ctx)
	if err != nil {
		log.Error().Err(err).Msg("❌ scheduled weekly report failed")
		return
	}
	log.Info().Str("report", result.ReportID).Bool("sent", result.EmailSent).Msg("📈 scheduled weekly report done")
}

func (a *Application) sendWelcomeMessage() {
	message := `☀️ <b>Morning Routine Tracker</b>

Il tracker è attivo.

Oggi: ` + a.services.Now().In(a.config.Location()).Format("2006-01-02") + `

Comandi principali:
/today - la routine di oggi
/go - avvia un'attività
/done - completa un'attività
/stats - statistiche
/week - report della settimana
/help - tutti i comandi`

	a.bot.SendMessageOrLogError(message)
}
