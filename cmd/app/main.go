package main

import (
	"reserve/config"
	"reserve/di"
	"reserve/helper"
	"reserve/shared/logger"

	"github.com/rs/zerolog/log"
)

// @title Reservation Admission API
// @version 1.0
// @description Admits, lists and cancels time-interval reservations on shared spaces without overlaps.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	http := di.InitializeService()
	http.Serve()
}
