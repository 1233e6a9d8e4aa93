package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/cache"
	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/erp"
	"github.com/andresuchdata/erpsync/internal/events"
	"github.com/andresuchdata/erpsync/internal/jobs"
	"github.com/andresuchdata/erpsync/internal/mail"
	"github.com/andresuchdata/erpsync/internal/pipeline"
	"github.com/andresuchdata/erpsync/internal/repository"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
	"github.com/andresuchdata/erpsync/internal/storage"
	"github.com/andresuchdata/erpsync/internal/supplier"
)

// worker holds everything the commands share.
type worker struct {
	cfg       *config.Config
	db        *sqlstore.DB
	registry  *prometheus.Registry
	runner    *pipeline.Runner
	jobs      *pipeline.Registry
	storage   storage.ObjectStorage
	publisher events.Publisher
}

func newWorker(ctx context.Context, cfg *config.Config) (*worker, error) {
	db, err := sqlstore.NewDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("dashboard cache unavailable, jobs will not invalidate it")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing object storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	publisher := events.NewPublisher(cfg.Events)
	runner := pipeline.NewRunner(pipeline.NewRunRepository(db), dashboardCache, publisher, pipeline.NewMetrics(registry))

	deps := &jobs.Deps{
		Stock:     repository.NewStockRepository(db),
		Master:    repository.NewMasterDataRepository(db),
		Suppliers: repository.NewSupplierRepository(db),
		Storage:   objects,
		Options:   jobs.OptionsFromConfig(cfg),
	}
	if cfg.ERP.ExecuteURL != "" {
		deps.ERP = erp.NewClient(cfg.ERP)
	} else {
		log.Warn().Msg("ERP_EXECUTE_URL not set, ERP jobs disabled")
	}
	if cfg.Supplier.BaseURL != "" {
		client, err := supplier.NewClient(cfg.Supplier)
		if err != nil {
			db.Close()
			return nil, err
		}
		deps.Supplier = client
	} else {
		log.Warn().Msg("SUPPLIER_BASE_URL not set, supplier sync disabled")
	}
	if cfg.Mail.Host != "" {
		deps.Mailer = mail.NewSMTPSender(cfg.Mail)
	} else {
		log.Warn().Msg("SMTP_HOST not set, supplier alert mail disabled")
	}

	return &worker{
		cfg:       cfg,
		db:        db,
		registry:  registry,
		runner:    runner,
		jobs:      pipeline.NewRegistry(deps.All()...),
		storage:   objects,
		publisher: publisher,
	}, nil
}

func (w *worker) Close() error {
	if err := w.publisher.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing event publisher")
	}
	return w.db.Close()
}
