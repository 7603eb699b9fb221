package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workpulse/internal/aggregator"
	"workpulse/internal/config"
	"workpulse/internal/database"
	"workpulse/internal/dispatcher"
	"workpulse/internal/session"
	"workpulse/internal/summary"
	"workpulse/internal/web"
	"workpulse/pkg/logger"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "serve":
		serve()
	case "generate":
		generateReports()
	case "report":
		printReport()
	case "send-reports":
		sendReports()
	case "version":
		fmt.Printf("workpulse version %s (commit %s)\n", version, commit)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`workpulse - employee time tracking and productivity reports

Usage:
  workpulse <command> [options]

Commands:
  serve              Start the HTTP API and the daily report scheduler
  generate [date]    Generate daily reports for a date (default: today)
  report [date]      Print a date's team report (default: today)
  send-reports       Email today's unsent reports to admins
  version            Show version information
  help               Show this help message

Examples:
  workpulse serve
  workpulse generate 2024-01-01
  workpulse report
  workpulse send-reports

Environment Variables:
  WORKPULSE_CONFIG           YAML configuration file path
  WORKPULSE_DB_DRIVER        Database driver (sqlite, postgres)
  WORKPULSE_DB_PATH          SQLite database file path
  WORKPULSE_DB_DSN           Postgres connection string
  WORKPULSE_REPORT_SCHEDULE  Cron expression for the daily report run
  WORKPULSE_SMTP_HOST        SMTP relay host for report delivery
  WORKPULSE_HTTP_PORT        HTTP server port

Version: %s
`, version)
}

type app struct {
	cfg        *config.Config
	log        *zap.Logger
	db         *database.DB
	repo       *database.Repository
	summarizer *aggregator.Summarizer
	generator  *summary.Generator
	dispatcher *dispatcher.Dispatcher
}

func newApp() *app {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Initialize(); err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	repo := database.NewRepository(db)
	resolver := aggregator.NewStoreResolver(repo)
	summarizer := aggregator.New(resolver, cfg.Report.TopLimit)
	mailer := dispatcher.NewSMTPMailer(cfg.SMTP)

	return &app{
		cfg:        cfg,
		log:        zlog,
		db:         db,
		repo:       repo,
		summarizer: summarizer,
		generator:  summary.NewGenerator(repo, summarizer, logger.WithComponent(zlog, "summary")),
		dispatcher: dispatcher.New(repo, mailer, logger.WithComponent(zlog, "dispatcher")),
	}
}

func (a *app) close() {
	_ = a.log.Sync()
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
}

func serve() {
	a := newApp()
	defer a.close()

	sessions := session.NewManager(a.repo, logger.WithComponent(a.log, "session"), a.cfg.Tracker.TickInterval)
	handler := web.NewHandler(a.cfg, a.repo, sessions, a.summarizer, a.generator, a.dispatcher, logger.WithComponent(a.log, "web"))
	server := web.NewServer(a.cfg, handler, logger.WithComponent(a.log, "web"))

	location, err := a.cfg.Location()
	if err != nil {
		a.log.Fatal("invalid report time zone", zap.Error(err))
	}

	scheduler := gocron.NewScheduler(location)
	_, err = scheduler.Cron(a.cfg.Report.Schedule).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := a.generator.Generate(ctx, time.Time{}); err != nil {
			a.log.Error("scheduled report generation failed", zap.Error(err))
			return
		}
		if _, err := a.dispatcher.SendDailyReports(ctx); err != nil {
			a.log.Error("scheduled report dispatch failed", zap.Error(err))
		}
	})
	if err != nil {
		a.log.Fatal("failed to schedule daily reports", zap.Error(err))
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	a.log.Info("workpulse started",
		zap.String("version", version),
		zap.String("schedule", a.cfg.Report.Schedule),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.log.Fatal("web server failed", zap.Error(err))
	case sig := <-sigChan:
		a.log.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("web server shutdown failed", zap.Error(err))
	}
}

func generateReports() {
	a := newApp()
	defer a.close()

	day := argDate()
	result, err := a.generator.Generate(context.Background(), day)
	if err != nil {
		a.log.Fatal("report generation failed", zap.Error(err))
	}
	fmt.Printf("Generated reports for %d user(s), %d failed\n", result.Users, result.Failed)
}

func printReport() {
	a := newApp()
	defer a.close()

	day := argDate()
	if day.IsZero() {
		day = time.Now()
	}
	team, err := a.dispatcher.TeamReportFor(context.Background(), day)
	if err != nil {
		a.log.Fatal("failed to fetch team report", zap.Error(err))
	}
	fmt.Print(dispatcher.RenderText(team))
}

func sendReports() {
	a := newApp()
	defer a.close()

	result, err := a.dispatcher.SendDailyReports(context.Background())
	if err != nil {
		a.log.Fatal("report dispatch failed", zap.Error(err))
	}
	if result.ReportsSent == 0 {
		fmt.Println("No reports to send")
		return
	}
	fmt.Printf("Sent %d report(s) to %d admin(s)\n", result.ReportsSent, result.AdminsNotified)
}

func argDate() time.Time {
	if len(os.Args) < 3 {
		return time.Time{}
	}
	day, err := time.Parse("2006-01-02", os.Args[2])
	if err != nil {
		log.Fatalf("Invalid date %q (want YYYY-MM-DD): %v", os.Args[2], err)
	}
	return day
}
