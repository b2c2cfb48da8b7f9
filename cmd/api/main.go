package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Top-g99/luxe-staycations-sub000/internal/api/routes"
	"github.com/Top-g99/luxe-staycations-sub000/internal/config"
	"github.com/Top-g99/luxe-staycations-sub000/internal/database"
	"github.com/Top-g99/luxe-staycations-sub000/internal/logger"
	"github.com/Top-g99/luxe-staycations-sub000/internal/metrics"
	"github.com/Top-g99/luxe-staycations-sub000/internal/providers"
	"github.com/Top-g99/luxe-staycations-sub000/internal/server"
	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
	"github.com/Top-g99/luxe-staycations-sub000/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}

	// Setup logging with rotation
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		cfg.LogDir = "data/logs"
		_ = os.MkdirAll(cfg.LogDir, 0o755)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "notifier.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Debug, io.MultiWriter(os.Stdout, rotator))
	log := logger.Log()
	log.Infof("starting %s version %s", version.Name, version.Full())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	chain, err := providers.BuildChain(cfg.Providers, cfg.Delivery.ProviderTimeout)
	if err != nil {
		log.WithError(err).Fatal("configure providers")
	}
	if len(chain.Names()) == 0 {
		log.Warn("no delivery providers configured; every delivery will fail")
	} else {
		log.WithField("providers", chain.Names()).Info("delivery providers registered")
	}

	templates := services.NewTemplateService(db, cfg.Organization)
	if n, err := templates.SeedDefaults(ctx); err != nil {
		log.WithError(err).Fatal("seed default templates")
	} else if n > 0 {
		log.WithField("count", n).Info("seeded default templates")
	}

	triggers, err := services.NewTriggerMap(services.DefaultTriggerRules())
	if err != nil {
		log.WithError(err).Fatal("build trigger map")
	}
	if cfg.TriggersFile != "" {
		if err := triggers.LoadFile(cfg.TriggersFile); err != nil {
			log.WithError(err).Fatal("load triggers file")
		}
		if err := triggers.Watch(ctx, cfg.TriggersFile); err != nil {
			log.WithError(err).Warn("trigger file changes will need a restart")
		}
	}

	store := services.NewDeliveryStore(db)
	deliveries := services.NewDeliveryService(triggers, templates, chain, store, services.DeliveryOptions{
		MaxAttempts:  cfg.Delivery.MaxAttempts,
		BackoffDelay: cfg.Delivery.BackoffDelay,
		// A claim must outlive every provider timing out on every repetition.
		ClaimTTL: claimTTL(cfg.Delivery, len(chain.Names())),
	})
	sweeper := services.NewRetrySweeper(store, deliveries, services.SweeperOptions{
		Concurrency:       cfg.Delivery.SweepConcurrency,
		Retention:         cfg.Delivery.Retention,
		SweepSchedule:     cfg.Delivery.SweepSchedule,
		RetentionSchedule: cfg.Delivery.RetentionSchedule,
	})
	if err := sweeper.Start(ctx); err != nil {
		log.WithError(err).Fatal("schedule delivery jobs")
	}
	defer sweeper.Stop()

	srv := server.New(routes.Dependencies{
		DB:           db,
		Deliveries:   deliveries,
		Store:        store,
		Sweeper:      sweeper,
		Templates:    templates,
		Triggers:     triggers,
		TriggersFile: cfg.TriggersFile,
		Registry:     registry,
	}, cfg)

	log.WithField("port", cfg.HTTPPort).Info("serving HTTP")
	if err := srv.Run(ctx); err != nil {
		log.WithError(err).Error("server error")
	}
	log.Info("shutting down")
}
