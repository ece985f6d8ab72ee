package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"TokenBank/internal/bank"
	"TokenBank/internal/config"
	"TokenBank/internal/gateway"
	"TokenBank/internal/notifier"
	"TokenBank/internal/oracle"
	"TokenBank/internal/recorder"
	"TokenBank/internal/scheduler"
	"TokenBank/internal/server"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("bankd starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Init price source
	var src oracle.Source
	if cfg.Oracle.Endpoint != "" {
		src = oracle.NewHTTPSource(cfg.Oracle.Endpoint, cfg.Oracle.APIKey)
	} else {
		st, err := oracle.NewStaticSource(cfg.Oracle.StaticPrice, cfg.Oracle.StaticPrecision)
		if err != nil {
			log.Fatal().Err(err).Msg("init static oracle")
		}
		src = st
	}
	log.Info().Msgf("price source: %s", src.Name())

	// Init transfer gateway
	var gw gateway.Gateway
	if cfg.Custody.BaseURL != "" {
		gw = gateway.NewHTTPGateway(cfg.Custody.BaseURL, cfg.Custody.APIKey)
	} else {
		log.Warn().Msg("no custody bridge configured, using mock gateway (dry run)")
		gw = gateway.NewMock()
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init webhook notifier
	hook := notifier.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Secret)

	// Init bank service
	svc, err := bank.New(bank.Config{
		Owner:         cfg.Owner,
		Cap:           cfg.Cap(),
		WithdrawLimit: cfg.WithdrawLimit(),
		StateFile:     cfg.Bank.StateFile,
	}, src, gw, rec, hook)
	if err != nil {
		log.Fatal().Err(err).Msg("init bank service")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(svc, rec)
	if err := sched.Register(cfg.Schedule.SnapshotCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("SNAPSHOT_ON_START") == "true" {
		sched.RunSnapshotNow()
	}

	// Start HTTP API
	srv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: server.New(svc),
	}
	go func() {
		log.Info().Msgf("http api listening on %s", cfg.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	log.Info().Msg("bankd is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Err(err).Msg("http shutdown")
	}
	log.Info().Msg("bankd stopped")
}
