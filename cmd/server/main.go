/*
main.go - Application entry point

PURPOSE:
  Wires the allocation engine together and runs the invocation cycle:
  on every tick, one allocation pass followed by the due scheduled tasks.
  At-most-one overlapping execution is this process's job - the engine
  performs no locking of its own, so exactly one server instance may run
  against a database.

STARTUP SEQUENCE:
  1. Read environment configuration, then flags
  2. Open the SQLite store, seed bank holidays from YAML if given
  3. Build the calculator, engine, tasks and runner
  4. Start the cycle ticker and the HTTP server
  5. On SIGINT/SIGTERM, stop the ticker, drain HTTP, close the store

ENVIRONMENT (prefix PARKING_):
  PARKING_PORT           HTTP port (default 8080)
  PARKING_DB             SQLite path (default parking.db)
  PARKING_TIMEZONE       business time zone (default Europe/London)
  PARKING_TICK_INTERVAL  cycle interval (default 5m)
  PARKING_SES_REGION     enable SES sending in this region
  PARKING_EMAIL_FROM     SES sender address
  PARKING_HOLIDAY_FILE   bank-holiday YAML seed file

SEE ALSO:
  - api/server.go: router configuration
  - tasks/runner.go: the due-task pass
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/paulbulman/Parking-sub001/allocation"
	"github.com/paulbulman/Parking-sub001/api"
	"github.com/paulbulman/Parking-sub001/calendar"
	"github.com/paulbulman/Parking-sub001/notify"
	"github.com/paulbulman/Parking-sub001/store/sqlite"
	"github.com/paulbulman/Parking-sub001/tasks"
)

// Config is read from the environment with the PARKING_ prefix.
type Config struct {
	Port         int           `default:"8080"`
	DB           string        `default:"parking.db"`
	Timezone     string        `default:"Europe/London"`
	TickInterval time.Duration `split_words:"true" default:"5m"`
	SESRegion    string        `envconfig:"SES_REGION"`
	EmailFrom    string        `split_words:"true"`
	HolidayFile  string        `split_words:"true"`
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg Config
	if err := envconfig.Process("parking", &cfg); err != nil {
		logger.Fatal("failed to read environment", zap.Error(err))
	}
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DB, "db", cfg.DB, "SQLite database path")
	flag.StringVar(&cfg.HolidayFile, "holidays", cfg.HolidayFile, "bank-holiday YAML seed file")
	flag.Parse()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg Config, logger *zap.Logger) error {
	ctx := context.Background()

	store, err := sqlite.New(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	if cfg.HolidayFile != "" {
		seed, err := calendar.LoadHolidayFile(cfg.HolidayFile)
		if err != nil {
			return err
		}
		if err := store.SaveBankHolidays(ctx, seed.Dates()); err != nil {
			return err
		}
	}

	holidayDates, err := store.BankHolidays(ctx)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", cfg.Timezone, err)
	}
	cal := calendar.NewCalculator(loc, calendar.NewHolidaySet(holidayDates...))

	orchestrator := &allocation.Orchestrator{
		Calendar: cal,
		Decider:  &allocation.Decider{Ranker: allocation.FairnessRanker{}},
		Store:    store,
		Logger:   logger,
	}

	var sender notify.Sender = &notify.LogSender{Logger: logger}
	if cfg.SESRegion != "" {
		ses, err := notify.NewSESSender(cfg.SESRegion, cfg.EmailFrom)
		if err != nil {
			return err
		}
		sender = ses
	}
	notifier := &notify.Notifier{Sender: sender, Logger: logger}

	runner := &tasks.Runner{
		Store: store,
		Tasks: []tasks.Task{
			&tasks.StatusUpdaterTask{Calendar: cal, Store: store},
			&tasks.DailySummaryTask{Calendar: cal, Store: store, Notifier: notifier},
			&tasks.WeeklySummaryTask{Calendar: cal, Store: store, Notifier: notifier},
			&tasks.RequestReminderTask{Calendar: cal, Store: store, Notifier: notifier},
			&tasks.ReservationReminderTask{Calendar: cal, Store: store, Notifier: notifier},
		},
		Now:    time.Now,
		Logger: logger,
	}

	// Invocation cycle: one allocation pass, then the due tasks. The
	// first failure ends the cycle; the next tick retries.
	cycle := func() {
		if _, err := orchestrator.RunAllocationPass(ctx); err != nil {
			logger.Error("allocation pass failed", zap.Error(err))
			return
		}
		if err := runner.RunDueTasks(ctx); err != nil {
			logger.Error("scheduled task pass failed", zap.Error(err))
		}
	}

	ticker := time.NewTicker(cfg.TickInterval)
	stop := make(chan struct{})
	go func() {
		cycle()
		for {
			select {
			case <-ticker.C:
				cycle()
			case <-stop:
				return
			}
		}
	}()

	router := api.NewRouter(api.NewHandler(store, cal, logger))
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ticker.Stop()
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}
