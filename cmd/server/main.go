package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"epistats/internal/aggregate"
	agghandler "epistats/internal/aggregate/handler"
	"epistats/internal/country"
	"epistats/internal/export"
	exporthandler "epistats/internal/export/handler"
	exportmetrics "epistats/internal/export/metrics"
	httpapi "epistats/internal/http"
	jwttoken "epistats/internal/jwt_token"
	"epistats/internal/platform/config"
	"epistats/internal/platform/httpserver"
	"epistats/internal/platform/logger"
	"epistats/internal/platform/postgres"
	platformredis "epistats/internal/platform/redis"
	"epistats/internal/stats"
	statshandler "epistats/internal/stats/handler"
	statsmetrics "epistats/internal/stats/metrics"
)

// main wires the stores, services, and HTTP surface, and keeps the server
// lifecycle small. Business logic lives in the internal module packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	countrySvc := country.NewService(country.NewPostgres(db))
	statsStore := stats.NewPostgres(db)
	statsSvc := stats.NewService(countrySvc, statsStore, statsmetrics.New())
	aggStore := aggregate.NewPostgres(db)
	aggSvc := aggregate.NewService(aggStore)

	exportCache := export.NewCache(redisClient, cfg.ExportCacheTTL, log)
	var exportSource export.Source
	if cfg.LegacyAggregateExport {
		exportSource = export.NewAggregateSource(aggStore)
	} else {
		exportSource = export.NewDailySource(countrySvc, statsStore)
	}
	exportSvc := export.NewService(exportSource, countrySvc, exportCache, exportmetrics.New())

	jwtSvc := jwttoken.NewService(cfg.JWTSigningKey, "epistats")

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:              log,
		TokenValidator:      jwtSvc,
		Stats:               statshandler.New(statsSvc, countrySvc, exportCache, log),
		Aggregates:          agghandler.New(aggSvc, exportCache, log),
		Exports:             exporthandler.New(exportSvc, log),
		DB:                  db,
		Redis:               redisClient,
		LegacyAggregateData: cfg.LegacyAggregateExport,
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting epistats", "addr", cfg.Addr, "legacy_aggregate", cfg.LegacyAggregateExport)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
