package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"propcost/internal/handler"
	"propcost/internal/logger"
	"propcost/internal/metrics"
	svr "propcost/internal/server"
	"propcost/internal/service"
	"propcost/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	config, err := svr.NewConfig(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal().Err(err).Str("path", *configPath).Msg("Configuration invalid")
		}
		log.Warn().Str("path", *configPath).Msg("Config file not found, using defaults")
		config = svr.DefaultConfig()
		if err := config.Finalize(); err != nil {
			log.Fatal().Err(err).Msg("Default configuration invalid")
		}
	}

	if err := logger.Init(config.Logging); err != nil {
		log.Fatal().Err(err).Msg("Logger init failed")
	}

	db, err := storage.InitDB(config)
	if err != nil {
		log.Fatal().Err(err).Msg("Database init failed")
	}
	defer db.Close()

	var rdb *redis.Client
	if config.RateLimit.Enabled {
		rdb, err = storage.InitRedis(config)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis init failed")
		}
		defer rdb.Close()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store := storage.NewStorage(db)
	services := service.NewService(store, config.Security, m)
	handlers := handler.NewHandler(services, config, rdb, m, registry)

	server := new(svr.Server)
	go func() {
		log.Info().Str("port", config.Port).Msg("Server started")
		if err := server.Run(config.Port, handlers.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Error running server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
