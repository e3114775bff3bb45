package main

import (
	"fmt"
	"os"

	"github.com/kylabear/dv-tracking/internal/config"
	"github.com/kylabear/dv-tracking/internal/db"
	httphandler "github.com/kylabear/dv-tracking/internal/http"
	"github.com/kylabear/dv-tracking/internal/logger"
	"github.com/kylabear/dv-tracking/internal/repository"
	"github.com/kylabear/dv-tracking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	dvRepo := repository.NewDVRepository(database)
	dvService := service.NewDVService(dvRepo)

	httphandler.RegisterValidations()
	handler := httphandler.NewHandler(dvService, log)
	router := httphandler.NewRouter(handler, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting dv tracking service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
