package cron

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"samayog/services/tasks"
	"samayog/utils"
)

// SettlementWorker runs settlement tasks enqueued by tasks.AsynqScheduler.
type SettlementWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewSettlementWorker builds a worker on the given Redis connection.
func NewSettlementWorker(redisOpts asynq.RedisClientOpt, settle tasks.SettleFunc, logger *zap.Logger) *SettlementWorker {
	logger = utils.OrNop(logger)
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSettlePayment, HandleSettleTask(settle, logger))

	return &SettlementWorker{srv: srv, mux: mux, logger: logger}
}

// Start begins processing in background goroutines.
func (w *SettlementWorker) Start() error {
	w.logger.Info("Starting settlement worker")
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("start settlement worker: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *SettlementWorker) Shutdown() {
	w.srv.Shutdown()
}

// HandleSettleTask adapts settle to an asynq handler. Malformed payloads are
// not retried.
func HandleSettleTask(settle tasks.SettleFunc, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseSettleTask(task)
		if err != nil {
			logger.Error("Dropping settlement task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.Debug("Settling payment", zap.String("bookingId", p.BookingID))
		return settle(ctx, p.BookingID)
	}
}
