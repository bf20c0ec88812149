package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"samayog/config"
	"samayog/services/analytics"
	"samayog/services/auth"
	"samayog/services/booking"
	"samayog/services/gateway"
	"samayog/services/session"
	"samayog/services/startup"
	"samayog/utils"
)

// app is the wired client core behind every subcommand.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer

	holder  *session.Holder
	gw      *gateway.Gateway
	flow    *auth.Flow
	orch    booking.BookingService
	tracker *analytics.Tracker
	preload *startup.Preloader

	redis *redis.Client
}

func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	logger, err := utils.NewLogger(cfg.Env, level)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, out: out}

	store, err := a.tokenStore()
	if err != nil {
		return nil, err
	}
	a.holder, err = session.NewHolder(store)
	if err != nil {
		return nil, err
	}

	a.gw = gateway.New(gateway.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Logger:  logger,
	}, a.holder)

	backend := auth.NewBackend(cfg, a.gw, a.holder, logger)
	a.flow, err = auth.NewFlow(backend, a.holder, a.gw, logger)
	if err != nil {
		return nil, err
	}
	a.orch = booking.NewOrchestrator(a.gw, logger)
	a.tracker = analytics.NewTracker(a.gw, 0, logger)
	a.preload = &startup.Preloader{
		MinDuration: cfg.StartupMinDuration,
		TaskTimeout: cfg.APITimeout,
		Logger:      logger,
	}
	return a, nil
}

func (a *app) tokenStore() (session.TokenStore, error) {
	switch a.cfg.TokenStore {
	case config.TokenStoreRedis:
		client, err := utils.NewRedisClient(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisTokenDB)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return session.NewRedisStore(client, session.TokenKey), nil
	case config.TokenStoreMemory:
		return session.NewMemoryStore(), nil
	default:
		path, err := a.cfg.TokenFilePath()
		if err != nil {
			return nil, err
		}
		return session.NewFileStore(path), nil
	}
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.tracker.Flush(ctx); err != nil {
		a.logger.Debug("analytics flush incomplete", zap.Error(err))
	}
	if a.redis != nil {
		a.redis.Close() //nolint:errcheck
	}
	a.logger.Sync() //nolint:errcheck
}

// warmUp runs the startup preload: API reachability and session validation.
func (a *app) warmUp(ctx context.Context) startup.Report {
	report := a.preload.Run(ctx,
		startup.Task{Name: "api", Run: func(ctx context.Context) error {
			if !a.gw.Ping(ctx) {
				return fmt.Errorf("api at %s is unreachable", a.cfg.APIBaseURL)
			}
			return nil
		}},
		startup.Task{Name: "session", Run: func(ctx context.Context) error {
			a.flow.CheckAuthStatus(ctx)
			return nil
		}},
	)
	if failed := report.Failed(); len(failed) > 0 {
		a.logger.Warn("startup preload incomplete", zap.Strings("failed", failed))
	}
	return report
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
