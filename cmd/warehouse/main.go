// Command warehouse builds the star-schema warehouse tables from OLTP CSV
// extracts and writes them as parquet, optionally loading them into a
// warehouse database as well. With runtime.schedule or runtime.watch set it
// stays up and rebuilds on each trigger; -timestamp then has no effect.
//
//	warehouse -config configs/warehouse.json -timestamp 2024-11-03T14:20:00Z
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse/internal/config"
	"warehouse/internal/metrics"
	"warehouse/internal/metrics/datadog"
	"warehouse/internal/metrics/prompush"

	// register all backends with the storage factory.
	_ "warehouse/internal/storage/all"
)

const defaultStatsdAddr = "127.0.0.1:8125"

func main() {
	var (
		cfgPath           string
		timestampFlg      string
		metricsBackendFlg string
		pushGatewayURLFlg string
		statsdAddrFlg     string
		validate          bool
		probeOnly         bool
	)

	flag.StringVar(&cfgPath, "config", "configs/warehouse.json", "run config JSON path")
	flag.StringVar(&timestampFlg, "timestamp", "", "run timestamp, RFC 3339 (default now, UTC)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: pushgateway, datadog, none (overrides config)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides config and PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddrFlg, "statsd-addr", "", "DogStatsD address (overrides config and DD_AGENT_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&probeOnly, "probe", false, "build every table in memory, print a JSON report and exit without writing")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		fatalf("env: %v", err)
	}
	if metricsBackendFlg != "" {
		cfg.Metrics.Backend = metricsBackendFlg
	}
	if pushGatewayURLFlg != "" {
		cfg.Metrics.PushgatewayURL = pushGatewayURLFlg
	}
	if statsdAddrFlg != "" {
		cfg.Metrics.StatsdAddr = statsdAddrFlg
	}

	issues := config.ValidateRun(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	if probeOnly {
		failed, err := runProbe(context.Background(), cfg, os.Stdout)
		if err != nil {
			fatalf("probe: %v", err)
		}
		if failed > 0 {
			log.Printf("probe: %d table(s) failed", failed)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ts, err := runTimestamp(timestampFlg, time.Now)
	if err != nil {
		fatalf("%v", err)
	}

	closeMetrics := setupMetrics(cfg, *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if *verbose {
		log.Printf("warehouse: source=%s sink=%s storage=%s compression=%s",
			cfg.Source.Kind, cfg.Sink.Kind, orDefault(cfg.Storage.Kind, "none"), orDefault(cfg.Sink.Compression, "snappy"))
	}
	if cfg.Runtime.Continuous() {
		err = serve(ctx, cfg, flushMetrics)
	} else {
		err = run(ctx, cfg, ts)
	}
	stop()
	closeMetrics()

	if err != nil {
		log.Printf("warehouse: run failed table=%s: %v", FailedTable(err), err)
		os.Exit(1)
	}
}

// runTimestamp parses the -timestamp flag, defaulting to now. The result is
// always UTC.
func runTimestamp(raw string, now func() time.Time) (time.Time, error) {
	if raw == "" {
		return now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("-timestamp=%q: %w", raw, err)
	}
	return ts.UTC(), nil
}

// setupMetrics installs the configured backend and returns its flush func.
// Backend failures are logged and leave metrics disabled.
func setupMetrics(cfg config.Run, verbose bool) func() {
	job := orDefault(cfg.Job, "warehouse")
	var b metrics.Backend

	switch name := cfg.Metrics.Backend; name {
	case "pushgateway":
		gwURL := orDefault(cfg.Metrics.PushgatewayURL, "http://localhost:9091")
		pb, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, name, job)
		b = pb

	case "datadog":
		addr := orDefault(cfg.Metrics.StatsdAddr, defaultStatsdAddr)
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "warehouse.",
			GlobalTags: append([]string{"job:" + job}, cfg.Metrics.Tags...),
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, name, job)
		b = db

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", name)
		}
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", name)
		return func() {}
	}

	metrics.SetBackend(b)
	return flushMetrics
}

func flushMetrics() {
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
