package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/joshwigginton/composer-signals-alpaca/internal/allocation"
	"github.com/joshwigginton/composer-signals-alpaca/internal/broker/alpaca"
	"github.com/joshwigginton/composer-signals-alpaca/internal/config"
	"github.com/joshwigginton/composer-signals-alpaca/internal/logger"
	"github.com/joshwigginton/composer-signals-alpaca/internal/rebalance"
)

func main() {
	trigger := flag.String("trigger", "", "opaque trigger payload, logged for traceability only")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().
		Str("symphony", cfg.SymphonyName).
		Str("allocation_source", cfg.AllocationSource).
		Str("alpaca_key", config.Masked(cfg.AlpacaKey)).
		Str("base_url", cfg.AlpacaBaseURL).
		Float64("cash_weight", cfg.CashWeight).
		Dur("order_fill_timeout", cfg.OrderFillTimeout).
		Msg("Rebalancer starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		os.Exit(1)
	}

	if cfg.Schedule == "" {
		if _, err := svc.Run(ctx, *trigger); err != nil {
			log.Error().Err(err).Msg("Rebalancing run failed")
			os.Exit(1)
		}
		return
	}

	runScheduled(ctx, cancel, cfg.Schedule, *trigger, svc, log)
}

func buildService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*rebalance.Service, error) {
	var source allocation.Source
	var err error
	switch cfg.AllocationSource {
	case config.SourceDrive:
		source, err = allocation.NewDriveSource(cfg.SymphonyCSVURL, cfg.ServiceAccountFile)
	case config.SourceS3:
		source, err = allocation.NewS3Source(ctx, allocation.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	if err != nil {
		return nil, err
	}

	provider := alpaca.NewProvider(alpaca.Opts{
		APIKey:    cfg.AlpacaKey,
		APISecret: cfg.AlpacaSecret,
		BaseURL:   cfg.AlpacaBaseURL,
	})

	fetcher := allocation.NewFetcher(source, cfg.SymphonyName)
	calc := rebalance.NewCalculator(provider, log)
	exec := rebalance.NewExecutor(provider, rebalance.SystemClock{},
		cfg.OrderPollInterval, cfg.OrderFillTimeout, log)

	return rebalance.NewService(fetcher, provider, calc, exec, cfg.CashWeight, log), nil
}

// runScheduled keeps the process alive and fires a run on each cron tick.
// Runs are never concurrent: a tick that lands while a run is still in
// flight is dropped, since two rebalances against one account would race
// each other's orders.
func runScheduled(ctx context.Context, cancel context.CancelFunc, schedule, trigger string, svc *rebalance.Service, log zerolog.Logger) {
	running := make(chan struct{}, 1)

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		select {
		case running <- struct{}{}:
		default:
			log.Warn().Msg("Previous run still in flight, skipping tick")
			return
		}
		defer func() { <-running }()

		if _, err := svc.Run(ctx, trigger); err != nil {
			log.Error().Err(err).Msg("Rebalancing run failed")
		}
	})
	if err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("Invalid cron schedule")
		os.Exit(1)
	}

	c.Start()
	log.Info().Str("schedule", schedule).Msg("Scheduler started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Signal received, shutting down")
	cancel()
	<-c.Stop().Done()
}
