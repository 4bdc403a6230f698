package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/loyalty-backend/api/routes"
	"github.com/ArowuTest/loyalty-backend/internal/config"
	"github.com/ArowuTest/loyalty-backend/internal/services"
	"github.com/ArowuTest/loyalty-backend/pkg/jwt"
	"github.com/ArowuTest/loyalty-backend/pkg/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	if cfg.JWT.Secret == "" {
		return errors.New("JWT secret is required (set JWT_SECRET)")
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	b, err := openBackend(ctx, cfg)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(context.Background()); err != nil {
			slog.Error("Error closing storage", "error", err)
		}
	}()

	var publisher services.Publisher
	if cfg.RabbitMQ.URL != "" {
		producer, err := rabbitmq.NewProducer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = producer
		slog.Info("Publishing notifications to RabbitMQ", "exchange", cfg.RabbitMQ.Exchange)
	}

	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	rnd := services.NewRandomSource(cfg.Gamification.RandomSeed)
	notifier := services.NewNotificationService(b.repos.Notifications, publisher)
	spins := services.NewSpinService(b.repos, services.NewFulfillmentDispatcher(b.repos), notifier, rnd, metrics)
	redemptions := services.NewRedemptionService(b.repos)

	router := routes.SetupRouter(cfg, routes.Deps{
		Tokens:        jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn),
		Spins:         spins,
		CheckIns:      services.NewCheckInService(b.repos, spins, notifier, rnd, metrics, cfg.Gamification.Day7Scope),
		Draws:         services.NewDrawService(b.repos),
		Redemptions:   redemptions,
		Notifications: notifier,
		Users:         services.NewUserService(b.repos.Users, b.repos.PointTransactions),
		Gatherer:      prometheus.DefaultGatherer,
	})

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Scheduler.RedemptionExpirySpec, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := redemptions.ExpireOverdue(jobCtx); err != nil {
			slog.Error("Redemption expiry job failed", "error", err)
		}
	}); err != nil {
		return err
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		<-scheduler.Stop().Done()
		return err
	}
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-scheduler.Stop().Done()

	slog.Info("Server exiting")
	return nil
}
