package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mr-tracker/internal/app"
	"mr-tracker/internal/config"
	"mr-tracker/internal/database"
	"mr-tracker/internal/routine"
	"mr-tracker/internal/services"
	"mr-tracker/internal/utils"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := newServeCmd(&configPath)
	root := &cobra.Command{
		Use:           "mr-tracker",
		Short:         "Morning routine tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $CONFIG_PATH)")

	root.AddCommand(serve)
	root.AddCommand(newDayCmd(&configPath))
	root.AddCommand(newStatsCmd(&configPath))
	root.AddCommand(newWeightCmd(&configPath))
	root.AddCommand(newReportCmd(&configPath))
	root.AddCommand(newReportsCmd(&configPath))
	return root
}

func loadApp(configPath string) (*app.Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	app.SetupLogging(cfg.Log.Level)
	return app.Open(cfg)
}

// withApp runs fn against an opened application and closes it afterwards.
func withApp(configPath string, fn func(context.Context, *app.Application) error) error {
	application, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = application.Stop() }()
	return fn(context.Background(), application)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the weekly report schedule",
		RunE: func(_ *cobra.Command, _ []string) error {
			application, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			if err := application.Start(); err != nil {
				_ = application.Stop()
				return err
			}
			defer application.Stop()

			waitForShutdown()
			log.Info().Msg("👋 shutting down")
			return nil
		},
	}
}

func newDayCmd(configPath *string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the derived log of today or of --date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.Application) error {
				day, err := a.Services().Day.Day(ctx, date)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), day)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show (YYYY-MM-DD)")
	return cmd
}

func newStatsCmd(configPath *string) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print aggregated statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.Application) error {
				stats, err := a.Services().Stats.Stats(ctx, period)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", services.PeriodWeek, "week|month|all")
	return cmd
}

func newWeightCmd(configPath *string) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "weight",
		Short: "Print the weight history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.Application) error {
				history, err := a.Services().Stats.WeightHistory(ctx, days)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), history)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "number of days to look back")
	return cmd
}

func newReportCmd(configPath *string) *cobra.Command {
	var week string
	var send bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the weekly report of --week (default last week)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.Application) error {
				sm := a.Services()
				start := sm.Now().In(sm.Location()).AddDate(0, 0, -routine.DaysPerWeek)
				if week != "" {
					var err error
					if start, err = parseWeek(week, sm.Location()); err != nil {
						return err
					}
				}

				if !send {
					report, err := sm.Report.Generate(ctx, start)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), report)
				}

				if err := a.ConnectBot(); err != nil {
					return err
				}
				result, err := sm.Report.Deliver(ctx, start)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "ISO week (2026-W41) or any day of it (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&send, "send", false, "deliver the report and record it")
	return cmd
}

func newReportsCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List the recorded weekly report deliveries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.Application) error {
				audits, err := a.Reports(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), audits)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "how many entries to show")
	return cmd
}

// parseWeek accepts either an ISO week or a calendar day inside the week.
func parseWeek(s string, loc *time.Location) (time.Time, error) {
	var year, week int
	if n, _ := fmt.Sscanf(s, "%d-W%d", &year, &week); n == 2 && week >= 1 && week <= 53 {
		return utils.FirstDayOfISOWeek(year, week, loc), nil
	}
	day, err := time.ParseInLocation(database.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --week %q: want YYYY-Www or YYYY-MM-DD", s)
	}
	return day, nil
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
}
