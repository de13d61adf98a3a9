package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"warehouse/internal/awss3"
	"warehouse/internal/config"
	"warehouse/internal/datasource"
	"warehouse/internal/datasource/file"
	"warehouse/internal/datasource/httpds"
	"warehouse/internal/datasource/s3ds"
	"warehouse/internal/metrics"
	csvparser "warehouse/internal/parser/csv"
	"warehouse/internal/probe"
	"warehouse/internal/schema"
	"warehouse/internal/sink"
	"warehouse/internal/table"
	"warehouse/internal/warehouse"
)

// Test seams; tests swap these for in-memory fakes.
var (
	newSource = buildSource
	newSink   = buildSink
)

// step runs one configured table transform with its file ids.
type step struct {
	table string
	run   func(ctx context.Context, w *warehouse.Transformer, ids []string, dates *warehouse.DateSet) error
}

// steps is the run order. dim_date is built after them from the collected
// fact dates.
var steps = []step{
	{schema.DimDesign, func(ctx context.Context, w *warehouse.Transformer, ids []string, _ *warehouse.DateSet) error {
		return w.Design(ctx, ids[0])
	}},
	{schema.DimPaymentType, func(ctx context.Context, w *warehouse.Transformer, ids []string, _ *warehouse.DateSet) error {
		return w.PaymentType(ctx, ids[0])
	}},
	{schema.DimLocation, func(ctx context.Context, w *warehouse.Transformer, ids []string, _ *warehouse.DateSet) error {
		return w.Location(ctx, ids[0])
	}},
	{schema.DimTransaction, func(ctx context.Context, w *warehouse.Transformer, ids []string, _ *warehouse.DateSet) error {
		return w.Transaction(ctx, ids[0])
	}},
	{schema.DimStaff, func(ctx context.Context, w *warehouse.Transformer, ids []string, _ *warehouse.DateSet) error {
		return w.Staff(ctx, ids[0], ids[1])
	}},
	{schema.DimCurrency, func(ctx context.Context, w *warehouse.Transformer, ids []string, _ *warehouse.DateSet) error {
		return w.Currency(ctx, ids[0])
	}},
	{schema.DimCounterparty, func(ctx context.Context, w *warehouse.Transformer, ids []string, _ *warehouse.DateSet) error {
		return w.Counterparty(ctx, ids[0], ids[1])
	}},
	{schema.FactSalesOrder, func(ctx context.Context, w *warehouse.Transformer, ids []string, dates *warehouse.DateSet) error {
		return w.SalesOrder(ctx, ids[0], dates)
	}},
	{schema.FactPurchaseOrder, func(ctx context.Context, w *warehouse.Transformer, ids []string, dates *warehouse.DateSet) error {
		return w.PurchaseOrder(ctx, ids[0], dates)
	}},
	{schema.FactPayment, func(ctx context.Context, w *warehouse.Transformer, ids []string, dates *warehouse.DateSet) error {
		return w.Payment(ctx, ids[0], dates)
	}},
}

// errFileIDs marks a table configured with fewer file ids than it reads.
var errFileIDs = errors.New("config: not enough file ids")

// tableError names the warehouse table whose transform failed.
type tableError struct {
	table string
	err   error
}

func (e *tableError) Error() string { return e.table + ": " + e.err.Error() }
func (e *tableError) Unwrap() error { return e.err }

// FailedTable returns the first table named in err, or "".
func FailedTable(err error) string {
	var te *tableError
	if errors.As(err, &te) {
		return te.table
	}
	return ""
}

// stats accumulates the end-of-run summary.
type stats struct {
	written int
	skipped int
	failed  int
	rows    int64
	dates   int
}

// countingSink tallies rows passed to the wrapped sink.
type countingSink struct {
	next warehouse.Sink
	st   *stats
}

func (c countingSink) Write(ctx context.Context, t *table.Table, ts time.Time) error {
	if err := c.next.Write(ctx, t, ts); err != nil {
		return err
	}
	c.st.written++
	c.st.rows += int64(t.Len())
	return nil
}

// run executes every configured table transform, then dim_date. With
// continue_on_error the remaining tables still run and all failures are
// returned joined; otherwise the first failure stops the run.
func run(ctx context.Context, cfg config.Run, ts time.Time) error {
	runID := uuid.NewString()
	src, srcDesc, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("build source: %w", err)
	}
	snk, target, err := newSink(cfg, runID)
	if err != nil {
		return fmt.Errorf("build sink: %w", err)
	}

	var st stats
	w := &warehouse.Transformer{
		Source:    src,
		Sink:      countingSink{next: snk, st: &st},
		Target:    target,
		Timestamp: ts,
	}
	log.Printf("runner: job=%s run_id=%s source=%s target=%s timestamp=%s",
		cfg.Job, runID, srcDesc, target, ts.Format(time.RFC3339))

	start := time.Now()
	dates := warehouse.NewDateSet()
	var errs []error
	fail := func(name string, err error) bool {
		st.failed++
		errs = append(errs, &tableError{table: name, err: err})
		return !cfg.Runtime.ContinueOnError
	}

	for _, s := range steps {
		ids, ok := cfg.Files(s.table)
		if !ok {
			log.Printf("runner: skip table=%s reason=no file ids configured", s.table)
			st.skipped++
			continue
		}
		if want, _ := config.InputArity(s.table); len(ids) < want {
			if fail(s.table, fmt.Errorf("%w: got %d, want %d", errFileIDs, len(ids), want)) {
				return finish(cfg.Job, runID, st, start, errs)
			}
			continue
		}
		if err := timed(cfg.Job, s.table, func() error { return s.run(ctx, w, ids, dates) }); err != nil {
			if fail(s.table, err) {
				return finish(cfg.Job, runID, st, start, errs)
			}
		}
	}

	if err := timed(cfg.Job, schema.DimDate, func() error { return w.Date(ctx, dates) }); err != nil {
		fail(schema.DimDate, err)
	}
	st.dates = dates.Len()
	metrics.RecordRows(cfg.Job, "dates", int64(st.dates))
	return finish(cfg.Job, runID, st, start, errs)
}

func timed(job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordTable(job, name, err, time.Since(start))
	return err
}

func finish(job, runID string, st stats, start time.Time, errs []error) error {
	log.Printf("runner: done job=%s run_id=%s tables=%d skipped=%d failed=%d rows=%d dates=%d elapsed=%s",
		job, runID, st.written, st.skipped, st.failed, st.rows, st.dates, time.Since(start).Truncate(time.Millisecond))
	return errors.Join(errs...)
}

// runProbe dry-runs every configured table and writes the JSON report to w.
// It returns the number of tables that failed.
func runProbe(ctx context.Context, cfg config.Run, w io.Writer) (int, error) {
	src, _, err := newSource(cfg)
	if err != nil {
		return 0, fmt.Errorf("build source: %w", err)
	}
	reports := probe.Run(ctx, src, cfg.Files)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return 0, err
	}
	return probe.Failed(reports), nil
}

// buildSource wires the configured extract location to the CSV parser.
func buildSource(cfg config.Run) (warehouse.Source, string, error) {
	var (
		src  datasource.Source
		desc string
	)
	switch cfg.Source.Kind {
	case "file":
		src, desc = file.NewLocal(cfg.Source.File.Dir), cfg.Source.File.Dir
	case "s3":
		s, err := s3ds.New(s3Config(cfg.Source.S3))
		if err != nil {
			return nil, "", err
		}
		src, desc = s, s3URI(cfg.Source.S3)
	case "http":
		h := cfg.Source.HTTP
		hdr := http.Header{}
		for k, v := range h.Headers {
			hdr.Set(k, v)
		}
		s, err := httpds.New(httpds.Config{
			BaseURL:            h.BaseURL,
			Timeout:            time.Duration(h.TimeoutSeconds) * time.Second,
			MaxRetries:         h.MaxRetries,
			InsecureSkipVerify: h.InsecureSkipVerify,
			Headers:            hdr,
		})
		if err != nil {
			return nil, "", err
		}
		src, desc = s, h.BaseURL
	default:
		return nil, "", fmt.Errorf("unsupported source.kind=%s", cfg.Source.Kind)
	}
	p := csvparser.NewParser(csvOptions(cfg.Parser.Options))
	return &datasource.Reader{Source: src, Parser: p, Job: cfg.Job}, desc, nil
}

func csvOptions(o config.Options) csvparser.Options {
	return csvparser.Options{
		NoHeader:    o.Bool("no_header", false),
		Comma:       o.Rune("comma", ','),
		TrimSpace:   o.Bool("trim_space", false),
		HeaderMap:   o.StringMap("header_map"),
		KeepStrings: o.Bool("keep_strings", false),
		MaxSkipLogs: o.Int("max_skip_logs", 0),
	}
}

// buildSink assembles the parquet sink and the optional warehouse database
// sink. The returned string describes the target for log lines. runID is
// stamped into the parquet footer.
func buildSink(cfg config.Run, runID string) (warehouse.Sink, string, error) {
	var (
		sinks   []sink.Sink
		targets []string
	)
	if cfg.Sink.Kind != "none" {
		codec, err := sink.Codec(cfg.Sink.Compression)
		if err != nil {
			return nil, "", err
		}
		var store sink.ObjectStore
		switch cfg.Sink.Kind {
		case "file":
			store = sink.FileStore{Dir: cfg.Sink.File.Dir}
			targets = append(targets, cfg.Sink.File.Dir)
		case "s3":
			s, err := sink.NewS3Store(s3Config(cfg.Sink.S3))
			if err != nil {
				return nil, "", err
			}
			store = s
			targets = append(targets, s3URI(cfg.Sink.S3))
		default:
			return nil, "", fmt.Errorf("unsupported sink.kind=%s", cfg.Sink.Kind)
		}
		sinks = append(sinks, &sink.Parquet{Store: store, Compression: codec, Job: cfg.Job, RunID: runID})
	}

	if st := cfg.Storage; st.Kind != "" {
		sinks = append(sinks, &sink.Database{
			Kind:       st.Kind,
			DSN:        st.DB.DSN,
			Schema:     st.DB.Schema,
			AutoCreate: st.DB.AutoCreateTable,
			Replace:    st.DB.Replace,
			BatchSize:  cfg.Runtime.BatchSize,
			Job:        cfg.Job,
		})
		targets = append(targets, st.Kind+":"+orDefault(st.DB.Schema, "default"))
	}

	switch len(sinks) {
	case 0:
		return nil, "", errors.New("no sink or storage configured")
	case 1:
		return sinks[0], targets[0], nil
	}
	return sink.Multi{Sinks: sinks, Workers: cfg.Runtime.SinkWorkers}, strings.Join(targets, ","), nil
}

func s3Config(l config.S3Location) awss3.Config {
	return awss3.Config{
		Bucket:    l.Bucket,
		Prefix:    l.Prefix,
		Region:    l.Region,
		Endpoint:  l.Endpoint,
		PathStyle: l.PathStyle,
	}
}

func s3URI(l config.S3Location) string {
	if l.Prefix == "" {
		return "s3://" + l.Bucket
	}
	return "s3://" + l.Bucket + "/" + strings.Trim(l.Prefix, "/")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
