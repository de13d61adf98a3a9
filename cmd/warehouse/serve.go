package main

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"warehouse/internal/config"
	"warehouse/internal/trigger"
)

// serve keeps the process up and rebuilds the warehouse on the configured
// schedule and whenever extracts change. Runs never overlap. afterRun is
// called once each run finishes, whatever its outcome.
func serve(ctx context.Context, cfg config.Run, afterRun func()) error {
	var mu sync.Mutex
	fn := func(ctx context.Context, ts time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		defer afterRun()
		return run(ctx, cfg, ts)
	}

	g, gctx := errgroup.WithContext(ctx)
	if expr := cfg.Runtime.Schedule; expr != "" {
		g.Go(func() error { return trigger.Schedule(gctx, expr, fn) })
	}
	if cfg.Runtime.Watch {
		debounce := time.Duration(cfg.Runtime.WatchDebounceMS) * time.Millisecond
		g.Go(func() error { return trigger.Watch(gctx, cfg.Source.File.Dir, debounce, fn) })
	}
	return g.Wait()
}
