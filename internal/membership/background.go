package membership

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultNotifyTimeout = 30 * time.Second

// background runs notification work after a request has been answered.
// Each task is detached from the request's cancellation and bounded by timeout.
type background struct {
	timeout  time.Duration
	inflight sync.WaitGroup
}

func (b *background) setTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

func (b *background) run(ctx context.Context, name string, fn func(ctx context.Context) error) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			slog.Error("Background notification failed", "notification", name, "error", err)
		}
	}()
}

func (b *background) wait() {
	b.inflight.Wait()
}
