package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"samayog/utils"
)

const TypeSettlePayment = "booking:settle_payment"

// SettlePayload identifies the booking whose payment should be settled.
type SettlePayload struct {
	BookingID string `json:"bookingId"`
}

// SettleFunc settles the payment of one booking.
type SettleFunc func(ctx context.Context, bookingID string) error

// Scheduler arranges for a booking's payment to be settled after delay.
type Scheduler interface {
	ScheduleSettlement(ctx context.Context, bookingID string, delay time.Duration) error
}

func NewSettleTask(bookingID string, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(SettlePayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSettlePayment, b)
	opts := []asynq.Option{asynq.ProcessIn(delay), asynq.MaxRetry(3)}

	return task, opts, nil
}

// ParseSettleTask decodes the payload of a settlement task.
func ParseSettleTask(task *asynq.Task) (SettlePayload, error) {
	var p SettlePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid settle payload: %w", err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("invalid settle payload: missing booking id")
	}
	return p, nil
}

// AsynqScheduler enqueues settlement tasks on Redis.
type AsynqScheduler struct {
	client *asynq.Client
}

func NewAsynqScheduler(client *asynq.Client) *AsynqScheduler {
	return &AsynqScheduler{client: client}
}

func (s *AsynqScheduler) ScheduleSettlement(ctx context.Context, bookingID string, delay time.Duration) error {
	task, opts, err := NewSettleTask(bookingID, delay)
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue settlement for %s: %w", bookingID, err)
	}
	return nil
}

// TimerScheduler settles in process. Pending timers are dropped by Stop.
type TimerScheduler struct {
	settle SettleFunc
	logger *zap.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
	stopped bool
}

func NewTimerScheduler(settle SettleFunc, logger *zap.Logger) *TimerScheduler {
	return &TimerScheduler{settle: settle, logger: utils.OrNop(logger), timers: make(map[string]*time.Timer)}
}

func (s *TimerScheduler) ScheduleSettlement(_ context.Context, bookingID string, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("settlement scheduler stopped")
	}
	if old, ok := s.timers[bookingID]; ok && old.Stop() {
		s.wg.Done()
	}
	s.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		if s.timers[bookingID] == timer {
			delete(s.timers, bookingID)
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.settle(ctx, bookingID); err != nil {
			s.logger.Error("Settlement failed", zap.String("bookingId", bookingID), zap.Error(err))
		}
	})
	s.timers[bookingID] = timer
	return nil
}

// Stop cancels pending timers and waits for running settlements.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
