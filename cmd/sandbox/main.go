package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"samayog/config"
	"samayog/cron"
	"samayog/database"
	"samayog/database/repository"
	"samayog/handlers"
	"samayog/middleware"
	"samayog/routes"
	"samayog/services/payment"
	"samayog/services/tasks"
	"samayog/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sandbox: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	issuer, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	hb := &handlers.HandlerBundle{
		Logger:          logger,
		OTPLimiter:      middleware.NewRateLimiter(cfg.OTPPerMinute),
		Tokens:          issuer,
		SettlementDelay: cfg.SettlementDelay,
		Production:      cfg.IsProduction(),
	}
	if cfg.RequestsPerMinute > 0 {
		hb.IPLimiter = middleware.NewRateLimiter(cfg.RequestsPerMinute)
	}

	// Redis backs OTPs, revocations, view counts and the settlement queue
	// when configured; memory otherwise.
	var redisClients []*redis.Client
	if cfg.RedisAddr != "" {
		rdb, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisOTPDB)
		if err != nil {
			return err
		}
		defer rdb.Close() //nolint:errcheck
		redisClients = append(redisClients, rdb)
		hb.OTPs = utils.NewRedisOTPStore(rdb)
		hb.Revoked = utils.NewRedisRevocationList(rdb)
		hb.Views = utils.NewRedisViewCounter(rdb)
		logger.Info("Using Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		hb.OTPs = utils.NewMemoryOTPStore()
		hb.Revoked = utils.NewMemoryRevocationList()
		hb.Views = utils.NewMemoryViewCounter()
	}

	var mongoClient *mongo.Client
	repos := repository.NewMemory()
	if cfg.MongoURL != "" {
		mongoClient, err = database.Connect(ctx, cfg.MongoURL, logger)
		if err != nil {
			return err
		}
		defer database.Disconnect(mongoClient) //nolint:errcheck
		if repos, err = repository.NewMongo(ctx, mongoClient, cfg.MongoDB); err != nil {
			return err
		}
	}
	hb.Users = repos.Users
	hb.Bookings = repos.Bookings

	if cfg.StripeKey != "" {
		hb.Payments = payment.NewStripeCheckout(cfg.StripeKey, cfg.PaymentSuccessURL, cfg.PaymentCancelURL, nil, logger)
	} else {
		hb.Payments = payment.StaticLinks{}
	}

	settlement := payment.NewSettlement(repos.Bookings, logger)
	if cfg.RedisAddr != "" {
		redisOpts := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisQueueDB,
		}
		queue := asynq.NewClient(redisOpts)
		defer queue.Close() //nolint:errcheck
		hb.Settlements = tasks.NewAsynqScheduler(queue)

		worker := cron.NewSettlementWorker(redisOpts, settlement.Settle, logger)
		if err := worker.Start(); err != nil {
			return err
		}
		defer worker.Shutdown()
	} else {
		timers := tasks.NewTimerScheduler(settlement.Settle, logger)
		defer timers.Stop()
		hb.Settlements = timers
	}

	hb.Health = utils.NewHealthMonitor(redisClients, mongoClient)
	hb.Health.Start(ctx, 30*time.Second)

	router := routes.NewRouter(hb)
	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.SandboxPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting sandbox API", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("Sandbox API shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("Sandbox API stopped gracefully")
	return nil
}
