// Package config is the JSON run configuration of the warehouse job: where
// the OLTP extracts come from, how they are parsed, which file ids feed each
// warehouse table, where the parquet artifacts go, the optional warehouse
// database, metrics and runtime knobs.
//
// Example (trimmed):
//
//	{
//	  "job": "totesys-warehouse",
//	  "source":  { "kind": "s3", "s3": { "bucket": "totesys-ingest", "prefix": "latest" } },
//	  "parser":  { "kind": "csv", "options": { "trim_space": true } },
//	  "tables":  { "dim_staff": ["staff.csv", "department.csv"] },
//	  "sink":    { "kind": "file", "file": { "dir": "out" }, "compression": "snappy" },
//	  "storage": { "kind": "postgres", "db": { "dsn": "postgresql://...", "schema": "analytics", "auto_create_table": true } },
//	  "runtime": { "continue_on_error": false, "batch_size": 5000 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"warehouse/internal/schema"
)

// Run is the top-level configuration document.
type Run struct {
	// Job labels metrics and log lines.
	Job string `json:"job"`

	Source Source `json:"source"`
	Parser Parser `json:"parser"`

	// Tables maps a warehouse table to the source file ids it reads.
	// dim_staff and dim_counterparty take two ids (primary, auxiliary).
	// When absent, DefaultTables is used.
	Tables map[string][]string `json:"tables"`

	Sink    Sink    `json:"sink"`
	Storage Storage `json:"storage"`
	Metrics Metrics `json:"metrics"`
	Runtime Runtime `json:"runtime"`
}

// Source selects where extracts are read from: "file", "s3" or "http".
type Source struct {
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	S3   S3Location `json:"s3"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile is a local directory of extracts.
type SourceFile struct {
	Dir string `json:"dir"`
}

// S3Location names a bucket and key prefix. Endpoint and PathStyle serve
// S3-compatible stores.
type S3Location struct {
	Bucket    string `json:"bucket"`
	Prefix    string `json:"prefix"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	PathStyle bool   `json:"path_style"`
}

// SourceHTTP fetches extracts from BaseURL/<file id>.
type SourceHTTP struct {
	BaseURL            string            `json:"base_url"`
	TimeoutSeconds     int               `json:"timeout_seconds"`
	MaxRetries         int               `json:"max_retries"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify"`
	Headers            map[string]string `json:"headers"`
}

// Parser selects the record parser. Only "csv" exists; options:
//
//	no_header (bool), comma (string), trim_space (bool), keep_strings (bool),
//	header_map (object), max_skip_logs (int)
type Parser struct {
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// Sink selects where parquet artifacts go: "file", "s3" or "none".
type Sink struct {
	Kind        string     `json:"kind"`
	File        SinkFile   `json:"file"`
	S3          S3Location `json:"s3"`
	Compression string     `json:"compression"` // snappy (default), zstd, gzip, none
}

// SinkFile is a local output directory.
type SinkFile struct {
	Dir string `json:"dir"`
}

// Storage optionally loads every table into a warehouse database. An empty
// Kind disables it.
type Storage struct {
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the warehouse database sink.
type DBConfig struct {
	DSN string `json:"dsn"`

	// Schema qualifies table names, e.g. "analytics" → analytics.dim_staff.
	Schema string `json:"schema"`

	AutoCreateTable bool `json:"auto_create_table"`

	// Replace empties each table before loading it.
	Replace bool `json:"replace"`
}

// Metrics selects the metrics backend: "none", "pushgateway" or "datadog".
type Metrics struct {
	Backend        string   `json:"backend"`
	PushgatewayURL string   `json:"pushgateway_url"`
	StatsdAddr     string   `json:"statsd_addr"`
	Tags           []string `json:"tags"`
}

// Runtime holds failure policy and throughput knobs.
type Runtime struct {
	// ContinueOnError keeps running the remaining tables after a failure.
	ContinueOnError bool `json:"continue_on_error"`

	// SinkWorkers bounds concurrent writes when several sinks are
	// configured. Zero means 1.
	SinkWorkers int `json:"sink_workers"`

	// BatchSize is the warehouse database load batch. Zero means 5000.
	BatchSize int `json:"batch_size"`

	// Schedule reruns the build on a cron expression ("@hourly",
	// "0 2 * * *"). Empty runs once.
	Schedule string `json:"schedule"`

	// Watch reruns the build when files change in source.file.dir.
	Watch           bool `json:"watch"`
	WatchDebounceMS int  `json:"watch_debounce_ms"`
}

// Continuous reports whether the run stays up for scheduled or watched
// reruns instead of exiting after one build.
func (r Runtime) Continuous() bool {
	return r.Schedule != "" || r.Watch
}

// DefaultTables returns the conventional file ids per warehouse table.
func DefaultTables() map[string][]string {
	return map[string][]string{
		schema.DimDesign:         {"design.csv"},
		schema.DimPaymentType:    {"payment_type.csv"},
		schema.DimLocation:       {"address.csv"},
		schema.DimTransaction:    {"transaction.csv"},
		schema.DimStaff:          {"staff.csv", "department.csv"},
		schema.DimCurrency:       {"currency.csv"},
		schema.DimCounterparty:   {"counterparty.csv", "address.csv"},
		schema.FactSalesOrder:    {"sales_order.csv"},
		schema.FactPurchaseOrder: {"purchase_order.csv"},
		schema.FactPayment:       {"payment.csv"},
	}
}

// InputArity is the number of file ids each configurable table reads.
func InputArity(name string) (int, bool) {
	switch name {
	case schema.DimStaff, schema.DimCounterparty:
		return 2, true
	case schema.DimDesign, schema.DimPaymentType, schema.DimLocation, schema.DimTransaction,
		schema.DimCurrency, schema.FactSalesOrder, schema.FactPurchaseOrder, schema.FactPayment:
		return 1, true
	default:
		return 0, false
	}
}

// Files returns the file ids configured for a table.
func (r Run) Files(name string) ([]string, bool) {
	tables := r.Tables
	if tables == nil {
		tables = DefaultTables()
	}
	ids, ok := tables[name]
	return ids, ok && len(ids) > 0
}

// Decode reads a Run from JSON. Unknown fields are rejected so typos fail
// loudly.
func Decode(r io.Reader) (Run, error) {
	var run Run
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&run); err != nil {
		return Run{}, fmt.Errorf("decode config: %w", err)
	}
	if run.Parser.Options == nil {
		run.Parser.Options = Options{}
	}
	return run, nil
}

// Load decodes the file at path.
func Load(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// ApplyEnv overlays environment overrides for secrets and deployment knobs:
//
//	WAREHOUSE_DSN, PUSHGATEWAY_URL, METRICS_BACKEND, DD_AGENT_ADDR,
//	WAREHOUSE_BATCH_SIZE
func (r *Run) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv("WAREHOUSE_DSN")); v != "" {
		r.Storage.DB.DSN = v
	}
	if v := strings.TrimSpace(getenv("PUSHGATEWAY_URL")); v != "" {
		r.Metrics.PushgatewayURL = v
	}
	if v := strings.TrimSpace(getenv("METRICS_BACKEND")); v != "" {
		r.Metrics.Backend = v
	}
	if v := strings.TrimSpace(getenv("DD_AGENT_ADDR")); v != "" {
		r.Metrics.StatsdAddr = v
	}
	if v := strings.TrimSpace(getenv("WAREHOUSE_BATCH_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WAREHOUSE_BATCH_SIZE=%q: %w", v, err)
		}
		r.Runtime.BatchSize = n
	}
	return nil
}
