package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"villastay/internal/config"
	"villastay/internal/database"
	"villastay/internal/domain"
	"villastay/internal/repository"
)

type seedVilla struct {
	villa     domain.Villa
	basePrice float64
}

var villas = []seedVilla{
	{domain.Villa{ID: 1, Name: "Villa Azul", IsActive: true}, 320},
	{domain.Villa{ID: 2, Name: "Casa do Monte", IsActive: true}, 210},
	{domain.Villa{ID: 3, Name: "Quinta das Oliveiras", IsActive: true}, 450},
}

func main() {
	days := flag.Int("days", 180, "number of days to price, starting today")
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
	if err := repository.AutoMigrate(db); err != nil {
		slog.Error("db_migrate_failed", "error", err.Error())
		os.Exit(1)
	}

	ctx := context.Background()
	villaRepo := repository.NewVillaRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	today := domain.NormalizeDate(time.Now())

	for _, sv := range villas {
		v := sv.villa
		if err := villaRepo.Save(ctx, &v); err != nil {
			slog.Error("seed_villa_failed", "villa_id", v.ID, "error", err.Error())
			os.Exit(1)
		}

		for i := 0; i < *days; i++ {
			date := today.AddDate(0, 0, i)
			price := nightlyPrice(sv.basePrice, date)
			patch := domain.DayPatch{Price: &price}
			// first Monday of each month is kept for maintenance
			if date.Weekday() == time.Monday && date.Day() <= 7 {
				blocked := domain.CalendarBlocked
				note := "maintenance"
				patch.Status, patch.Note = &blocked, &note
			}
			if _, err := calendarRepo.Upsert(ctx, v.ID, date, patch); err != nil {
				slog.Error("seed_calendar_failed", "villa_id", v.ID, "date", domain.FormatDate(date), "error", err.Error())
				os.Exit(1)
			}
		}
		slog.Info("seed_villa_done", "villa_id", v.ID, "name", v.Name, "days", *days)
	}
}

// nightlyPrice adds 25% on Friday and Saturday nights and 15% in July and August.
func nightlyPrice(base float64, date time.Time) float64 {
	price := base
	if wd := date.Weekday(); wd == time.Friday || wd == time.Saturday {
		price *= 1.25
	}
	if m := date.Month(); m == time.July || m == time.August {
		price *= 1.15
	}
	return domain.RoundMoney(price)
}
