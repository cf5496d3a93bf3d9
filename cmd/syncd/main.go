package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	_ "github.com/reachiq/csv-sync/docs"
	"github.com/reachiq/csv-sync/internal/api"
	"github.com/reachiq/csv-sync/internal/api/handler"
	"github.com/reachiq/csv-sync/internal/config"
	"github.com/reachiq/csv-sync/internal/consume"
	"github.com/reachiq/csv-sync/internal/mirror"
	"github.com/reachiq/csv-sync/internal/model"
	"github.com/reachiq/csv-sync/internal/queue"
	"github.com/reachiq/csv-sync/internal/recon"
	"github.com/reachiq/csv-sync/internal/search"
	"github.com/reachiq/csv-sync/internal/tracking"
	"github.com/reachiq/csv-sync/pkg/router"
)

// @title CSV Sync API
// @version 1.0
// @description Reconciles CSV batches from a queue into the search index and document store.
// @BasePath /
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	searcher, err := search.Connect([]string{cfg.ESAddress()}, log, cfg.CallTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Elasticsearch")
	}

	store, err := mirror.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.CallTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	q, err := queue.Connect(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to SQS")
	}

	audit, err := tracking.Open(cfg.AuditDBPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to open audit store")
	}
	defer audit.Close()

	targets := []recon.FamilyTarget{
		{Family: model.FamilyCompany, Index: cfg.CompanyIndex, CheckField: cfg.CompanyCheckField, SearchField: cfg.CompanySearchField},
		{Family: model.FamilyRecord, Index: cfg.RecordIndex, CheckField: cfg.RecordCheckField, SearchField: cfg.RecordSearchField},
	}
	engine := recon.NewEngine(searcher, store, targets, log)
	consumer := consume.New(q, engine, audit, log)

	r := router.New()
	api.RegisterRoutes(r, handler.New(q, consumer, audit, log))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infof("🚀 API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Blocks until a shutdown signal; an in-flight batch completes first.
	consumer.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	log.Info("👋 Shutdown complete")
}
