package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"villastay/internal/config"
	"villastay/internal/database"
	"villastay/internal/repository"
)

// calendar_reconcile frees calendar days still linked to cancelled reservations.
// Cancelling through the API already does this; the sweep covers rows changed
// outside the service. With -schedule it keeps running and sweeps on a cron spec.
func main() {
	schedule := flag.String("schedule", "", `cron spec such as "@every 15m"; empty runs once`)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv_load_failed", "error", err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err.Error())
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("db_connect_failed", "error", err.Error())
		os.Exit(1)
	}
	calendarRepo := repository.NewCalendarRepository(db)

	sweep := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		released, err := calendarRepo.ReleaseCancelled(ctx)
		if err != nil {
			slog.Error("calendar_reconcile_failed", "error", err.Error())
			return err
		}
		slog.Info("calendar_reconcile_completed", "released_days", released)
		return nil
	}

	if *schedule == "" {
		if err := sweep(); err != nil {
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() { _ = sweep() }); err != nil {
		slog.Error("calendar_reconcile_bad_schedule", "schedule", *schedule, "error", err.Error())
		os.Exit(1)
	}
	c.Start()
	slog.Info("calendar_reconcile_scheduled", "schedule", *schedule)

	stop, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	// wait for a running sweep to finish
	<-c.Stop().Done()
	slog.Info("calendar_reconcile_stopped")
}
