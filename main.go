package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"citasalud-server/internal/catalog"
	"citasalud-server/internal/config"
	"citasalud-server/internal/metrics"
	"citasalud-server/internal/models"
	"citasalud-server/internal/notifications"
	"citasalud-server/internal/reminders"
	"citasalud-server/internal/routes"
	"citasalud-server/internal/scheduling"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// .env is optional outside development
	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config")
	}

	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		logger.Fatal().Err(err).Msg("error connecting to database")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid timezone")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	cat := catalog.New()
	repo := scheduling.NewGormRepository(db)
	svc := scheduling.NewService(repo, cat, m, scheduling.WithLocation(loc))

	prefs := notifications.NewGormPreferenceStore(db)
	reminderStore := reminders.NewGormStore(db)
	sender := reminders.NewSimulatedSender(logger)
	scheduler := reminders.New(repo, reminderStore, prefs, sender, m, logger,
		reminders.WithLocation(loc),
		reminders.WithInterval(time.Duration(cfg.ReminderIntervalMinutes)*time.Minute),
		reminders.WithMaxAttempts(cfg.ReminderMaxAttempts),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, db, cfg, svc, cat, prefs, reminderStore)

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := router.Run(serverAddr); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
