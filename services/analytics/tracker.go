// Package analytics records best-effort engagement events such as content
// views. Calls never block the caller and never report failure.
package analytics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"samayog/config"
	"samayog/utils"
)

const defaultTimeout = 5 * time.Second

// Requester issues one API call. *gateway.Gateway satisfies it.
type Requester interface {
	Execute(ctx context.Context, endpoint, method string, body any, headers map[string]string, out any) error
}

// Tracker sends view counts in the background.
type Tracker struct {
	api     Requester
	timeout time.Duration
	logger  *zap.Logger

	wg sync.WaitGroup
}

// NewTracker returns a Tracker. Each event gets its own timeout, defaulting
// to five seconds.
func NewTracker(api Requester, timeout time.Duration, logger *zap.Logger) *Tracker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Tracker{api: api, timeout: timeout, logger: utils.OrNop(logger)}
}

// TrackView records one view of a content item (article, blog, professional).
// It returns immediately; failures are logged at debug level only.
func (t *Tracker) TrackView(kind, id string) {
	if kind == "" || id == "" {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Debug("analytics: view tracking panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.api.Execute(ctx, config.ViewsPath(kind, id), http.MethodPost, nil, nil, nil); err != nil {
			t.logger.Debug("analytics: view not recorded",
				zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		}
	}()
}

// Flush waits until in-flight events finish or ctx is done.
func (t *Tracker) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
