// Package trigger reruns the warehouse build on a cron schedule or when new
// extracts land in a watched directory. Both block until ctx is done.
package trigger

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// DefaultDebounce is the quiet period Watch waits for after the last change.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc performs one run stamped with ts.
type RunFunc func(ctx context.Context, ts time.Time) error

// ParseSchedule checks a standard five-field cron expression or a
// descriptor such as "@hourly" or "@every 30m".
func ParseSchedule(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}

// Schedule calls fn on every tick of expr, evaluated in UTC. A tick that
// fires while the previous run is still going is skipped.
func Schedule(ctx context.Context, expr string, fn RunFunc) error {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.Default()))),
	)
	_, err := c.AddFunc(expr, func() {
		ts := time.Now().UTC()
		log.Printf("trigger: schedule fired expr=%q ts=%s", expr, ts.Format(time.RFC3339))
		if err := fn(ctx, ts); err != nil {
			log.Printf("trigger: scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("trigger: schedule %q: %w", expr, err)
	}
	c.Start()
	log.Printf("trigger: scheduled expr=%q", expr)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Watch calls fn once the files in dir stop changing for debounce. Hidden
// files (temp files of in-flight uploads) and new subdirectories are
// ignored.
func Watch(ctx context.Context, dir string, debounce time.Duration, fn RunFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("trigger: new watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("trigger: watch %s: %w", dir, err)
	}
	log.Printf("trigger: watching dir=%s debounce=%s", dir, debounce)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	var last string

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
				continue
			}
			last = ev.Name
			timer.Reset(debounce)

		case <-timer.C:
			ts := time.Now().UTC()
			log.Printf("trigger: file changed %q, running ts=%s", last, ts.Format(time.RFC3339))
			if err := fn(ctx, ts); err != nil {
				log.Printf("trigger: watched run failed: %v", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("trigger: watch error: %v", err)
		}
	}
}
