package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/akulov/checkup-bot/internal/bot"
	"github.com/akulov/checkup-bot/internal/config"
	"github.com/akulov/checkup-bot/internal/domain"
	"github.com/akulov/checkup-bot/internal/repository/sqlite"
	"github.com/akulov/checkup-bot/internal/service"
	"github.com/akulov/checkup-bot/internal/session"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "checkup-bot",
	Short: "Telegram bot collecting property checkup requests",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
		}
		if cfg.ReviewerChatID == 0 {
			return fmt.Errorf("REVIEWER_CHAT_ID is not set")
		}
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return fmt.Errorf("failed to create upload dir: %w", err)
		}

		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		log.Printf("Database initialized at: %s", cfg.DatabasePath)

		form := domain.CheckupForm()
		submissionRepo := sqlite.NewSubmissionRepository(db, form)
		userRepo := sqlite.NewUserRepository(db)
		clock := service.RealClock{}
		reports := service.NewReportService(submissionRepo, form, clock)

		// The bot is the engine's file store, so it is created first and
		// gets the engine attached afterwards.
		telegramBot, err := bot.New(cfg.TelegramToken, nil, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize bot: %w", err)
		}

		checkupService := service.NewCheckupService(
			form,
			session.NewStore(),
			submissionRepo,
			userRepo,
			telegramBot,
			reports,
			clock,
			service.UUIDGenerator{},
			cfg.ReviewerChatID,
			cfg.ReportDefaultDays,
		)
		telegramBot.SetService(checkupService)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		go func() {
			log.Println("Bot started. Press Ctrl+C to stop.")
			if err := telegramBot.Start(); err != nil {
				log.Fatalf("Bot stopped with error: %v", err)
			}
		}()

		<-stop
		log.Println("Shutting down gracefully...")
		return nil
	},
}

var (
	reportDays    int
	reportCSVPath string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print submission statistics for the trailing day window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		form := domain.CheckupForm()
		reports := service.NewReportService(sqlite.NewSubmissionRepository(db, form), form, service.RealClock{})

		days := reportDays
		if days <= 0 {
			days = cfg.ReportDefaultDays
		}

		rep, err := reports.Generate(days)
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		fmt.Println(reports.FormatText(rep))

		if reportCSVPath != "" {
			data, err := reports.CSV(rep)
			if err != nil {
				return fmt.Errorf("failed to render csv: %w", err)
			}
			if err := os.WriteFile(reportCSVPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
			fmt.Printf("CSV written to %s\n", reportCSVPath)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportDays, "days", 0, "window size in days (defaults to REPORT_DEFAULT_DAYS)")
	reportCmd.Flags().StringVar(&reportCSVPath, "csv", "", "also write the submissions as CSV to this path")
	rootCmd.AddCommand(serveCmd, reportCmd)
}
