package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type blockingAPI struct {
	release chan struct{}
	mu      sync.Mutex
	paths   []string
	err     error
}

func (b *blockingAPI) Execute(ctx context.Context, endpoint, _ string, _ any, _ map[string]string, _ any) error {
	b.mu.Lock()
	b.paths = append(b.paths, endpoint)
	b.mu.Unlock()
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return b.err
}

func TestTrackViewNeverBlocks(t *testing.T) {
	api := &blockingAPI{release: make(chan struct{})}
	tr := NewTracker(api, time.Minute, zaptest.NewLogger(t))

	start := time.Now()
	for i := 0; i < 10; i++ {
		tr.TrackView("article", "42")
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("TrackView() blocked for %v", elapsed)
	}

	close(api.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tr.Flush(ctx); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if len(api.paths) != 10 || api.paths[0] != "/content/article/42/views" {
		t.Errorf("paths = %v", api.paths)
	}
}

func TestTrackViewSwallowsFailures(t *testing.T) {
	api := &blockingAPI{err: errors.New("connection refused")}
	tr := NewTracker(api, time.Second, zaptest.NewLogger(t))
	tr.TrackView("blog", "7")
	if err := tr.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
}

func TestTrackViewTimesOut(t *testing.T) {
	api := &blockingAPI{release: make(chan struct{})}
	tr := NewTracker(api, 20*time.Millisecond, nil)
	tr.TrackView("blog", "7")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tr.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v, want the event to time out on its own", err)
	}
}

func TestTrackViewIgnoresEmptyIDs(t *testing.T) {
	api := &blockingAPI{}
	tr := NewTracker(api, time.Second, nil)
	tr.TrackView("", "1")
	tr.TrackView("article", "")
	tr.Flush(context.Background()) //nolint:errcheck
	if len(api.paths) != 0 {
		t.Errorf("paths = %v, want none", api.paths)
	}
}
