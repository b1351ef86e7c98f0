package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/AradIT/aradsms/campaign_services/internal/platform/config"
	"github.com/AradIT/aradsms/campaign_services/internal/platform/database"
	"github.com/AradIT/aradsms/campaign_services/internal/platform/logger"
	"github.com/AradIT/aradsms/campaign_services/internal/platform/messagebroker"

	adapter_http "github.com/AradIT/aradsms/campaign_services/internal/campaign_service/adapters/http"
	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/app"
	localcache "github.com/AradIT/aradsms/campaign_services/internal/campaign_service/cache/local"
	rediscache "github.com/AradIT/aradsms/campaign_services/internal/campaign_service/cache/redis"
	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/repository/postgres"
)

const (
	serviceName     = "campaign-service"
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel).With("service", serviceName)
	log.Info("Starting service...")

	loc, err := cfg.Location()
	if err != nil {
		log.Error("Invalid scheduler timezone", "timezone", cfg.SchedulerTimezone, "error", err)
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(mainCtx, startupTimeout)
	dbPool, err := database.NewDBPool(startupCtx, cfg.PostgresDSN, database.DefaultPoolConfig)
	startupCancel()
	if err != nil {
		log.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	log.Info("Database connection pool initialized")

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, log, serviceName)
	if err != nil {
		log.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	log.Info("NATS connection initialized")

	progressCache, closeCache, err := newProgressCache(mainCtx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize progress cache", "backend", cfg.ProgressCacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeCache()

	// Repositories
	campaignRepo := postgres.NewPgCampaignRepository(dbPool, log)
	subscriberRepo := postgres.NewPgSubscriberRepository(dbPool, log)
	contactRepo := postgres.NewPgContactRepository(dbPool, log)
	settingsRepo := postgres.NewPgAccountSettingsRepository(dbPool, log)

	// Application
	progress := app.NewProgressTracker(subscriberRepo, contactRepo, progressCache, log)
	claimPolicy := app.NewClaimPolicy(settingsRepo, log, loc, cfg.SchedulerTickInterval)
	queue := app.NewSubscriberQueue(subscriberRepo, campaignRepo, claimPolicy, progress, log)
	enrollment := app.NewEnrollment(campaignRepo, subscriberRepo, settingsRepo, progress, log)
	campaigns := app.NewCampaignApplication(campaignRepo, contactRepo, enrollment, progress, log)
	scheduler := app.NewCampaignScheduler(campaignRepo, settingsRepo, queue, natsClient, log, app.SchedulerConfig{
		TickInterval:    cfg.SchedulerTickInterval,
		Location:        loc,
		Concurrency:     cfg.SchedulerConcurrency,
		DispatchSubject: cfg.DispatchSubject,
	})

	contactConsumer := app.NewContactEventConsumer(log)
	contactConsumer.RegisterEnrollment(enrollment)
	outcomeConsumer := app.NewOutcomeConsumer(queue, log)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           adapter_http.NewRouter(campaigns, queue, []byte(cfg.JWTAccessSecret), log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		return scheduler.Run(groupCtx)
	})

	g.Go(func() error {
		return queue.RunReaper(groupCtx, cfg.ReaperInterval, cfg.StaleClaimTimeout)
	})

	g.Go(func() error {
		return natsClient.SubscribeToSubjectWithQueue(groupCtx, cfg.ContactEventsSubject, cfg.QueueGroup, contactConsumer.NATSHandler(groupCtx))
	})

	g.Go(func() error {
		return natsClient.SubscribeToSubjectWithQueue(groupCtx, cfg.OutcomeSubject, cfg.QueueGroup, outcomeConsumer.NATSHandler(groupCtx))
	})

	g.Go(func() error {
		log.Info("Starting HTTP server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
			return err
		}
		log.Info("HTTP server stopped gracefully.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	log.Info("Service components initialized and workers started. Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var groupErr error
	select {
	case sig := <-sigCh:
		log.Info("Received termination signal", "signal", sig)
	case groupErr = <-watchGroup(g):
		if groupErr != nil {
			log.Error("A critical component failed, initiating shutdown", "error", groupErr)
		}
	}

	log.Info("Attempting graceful shutdown...")
	mainCancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Error during graceful shutdown of components", "error", err)
	}
	log.Info("Service shutdown complete.")
}

// newProgressCache selects the progress cache backend. The returned close
// func is always non-nil.
func newProgressCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (app.ProgressCache, func(), error) {
	switch cfg.ProgressCacheBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, func() {}, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		log.Info("Progress cache using Redis", "addr", cfg.RedisAddr, "ttl", cfg.ProgressCacheTTL)
		return rediscache.NewProgressCache(rdb, cfg.ProgressCacheTTL), func() { _ = rdb.Close() }, nil
	case "local", "":
		log.Info("Progress cache using in-process store", "ttl", cfg.ProgressCacheTTL)
		return localcache.NewProgressCache(cfg.ProgressCacheTTL), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown progress cache backend %q", cfg.ProgressCacheBackend)
	}
}

// watchGroup returns a channel that receives the result of g.Wait().
func watchGroup(g *errgroup.Group) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
		close(errCh)
	}()
	return errCh
}
