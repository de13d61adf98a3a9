package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"

	"warehouse/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config, e.g. "source.s3.bucket" or "tables.dim_staff".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidateRun lints a decoded Run without mutating it.
//
//	run, err := config.Load("warehouse.json")
//	...
//	for _, iss := range config.ValidateRun(run) {
//	    log.Printf("config: %v", iss)
//	}
func ValidateRun(r Run) []Issue {
	var issues []Issue
	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateSource(r.Source)...)
	issues = append(issues, validateParser(r.Parser)...)
	issues = append(issues, validateTables(r.Tables)...)
	issues = append(issues, validateSink(r.Sink)...)
	issues = append(issues, validateStorage(r.Storage)...)
	issues = append(issues, validateMetrics(r.Metrics)...)
	issues = append(issues, validateRuntime(r.Runtime)...)

	if r.Runtime.Watch && r.Source.Kind != "file" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.watch",
			Message:  fmt.Sprintf("watch needs a file source, got source.kind=%q", r.Source.Kind),
		})
	}
	if r.Runtime.Watch && r.Source.Kind == "file" && r.Sink.Kind == "file" &&
		within(r.Sink.File.Dir, r.Source.File.Dir) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.file.dir",
			Message:  "sink dir is inside the watched source dir; every write would trigger another run",
		})
	}

	if r.Sink.Kind == "none" && strings.TrimSpace(r.Storage.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.kind",
			Message:  `sink.kind is "none" and no storage is configured; nothing would be written`,
		})
	}
	return issues
}

// within reports whether dir is base or below it.
func within(dir, base string) bool {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(base) == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(dir))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "":
		issues = append(issues, Issue{SeverityError, "source.kind", "source.kind must not be empty"})
	case "file":
		if strings.TrimSpace(s.File.Dir) == "" {
			issues = append(issues, Issue{SeverityError, "source.file.dir", "file source requires a directory"})
		}
	case "s3":
		issues = append(issues, validateS3("source.s3", s.S3)...)
	case "http":
		if msg := checkURL(s.HTTP.BaseURL); msg != "" {
			issues = append(issues, Issue{SeverityError, "source.http.base_url", msg})
		}
		if s.HTTP.TimeoutSeconds < 0 {
			issues = append(issues, Issue{SeverityError, "source.http.timeout_seconds", "timeout_seconds must not be negative"})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{SeverityError, "source.http.max_retries", "max_retries must not be negative"})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{SeverityWarning, "source.http.insecure_skip_verify", "TLS verification is disabled"})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; want file, s3 or http", s.Kind),
		})
	}
	return issues
}

func validateS3(path string, l S3Location) []Issue {
	var issues []Issue
	if strings.TrimSpace(l.Bucket) == "" {
		issues = append(issues, Issue{SeverityError, path + ".bucket", "bucket must not be empty"})
	}
	if l.Endpoint != "" {
		if msg := checkURL(l.Endpoint); msg != "" {
			issues = append(issues, Issue{SeverityError, path + ".endpoint", msg})
		}
	}
	return issues
}

func checkURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "url must not be empty"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("url scheme %q is not http or https", u.Scheme)
	}
	if u.Host == "" {
		return "url has no host"
	}
	return ""
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if p.Kind != "" && p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; only csv is supported", p.Kind),
		})
		return issues
	}
	if c := p.Options.String("comma", ""); len([]rune(c)) > 1 {
		issues = append(issues, Issue{SeverityError, "parser.options.comma", "comma must be a single character"})
	}
	if p.Options.Bool("no_header", false) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.options.no_header",
			Message:  "extracts without a header row get col_N names and will not match the table contracts",
		})
	}
	return issues
}

func validateTables(tables map[string][]string) []Issue {
	var issues []Issue
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ids := tables[name]
		path := "tables." + name
		want, ok := InputArity(name)
		if !ok {
			msg := fmt.Sprintf("unknown table %q", name)
			if name == schema.DimDate {
				msg = "dim_date is built from the fact dates and takes no input files"
			}
			issues = append(issues, Issue{SeverityError, path, msg})
			continue
		}
		if len(ids) == 0 {
			issues = append(issues, Issue{SeverityWarning, path, "no file ids; the table will be skipped"})
			continue
		}
		if len(ids) != want {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("got %d file ids, want %d", len(ids), want),
			})
		}
		for i, id := range ids {
			if strings.TrimSpace(id) == "" {
				issues = append(issues, Issue{SeverityError, fmt.Sprintf("%s[%d]", path, i), "file id must not be empty"})
			}
		}
	}
	return issues
}

var compressions = map[string]struct{}{
	"": {}, "snappy": {}, "zstd": {}, "gzip": {}, "none": {}, "uncompressed": {},
}

func validateSink(s Sink) []Issue {
	var issues []Issue
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Dir) == "" {
			issues = append(issues, Issue{SeverityError, "sink.file.dir", "file sink requires a directory"})
		}
	case "s3":
		issues = append(issues, validateS3("sink.s3", s.S3)...)
	case "none":
	case "":
		issues = append(issues, Issue{SeverityError, "sink.kind", "sink.kind must not be empty"})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.kind",
			Message:  fmt.Sprintf("unknown sink kind %q; want file, s3 or none", s.Kind),
		})
	}
	if _, ok := compressions[strings.ToLower(s.Compression)]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.compression",
			Message:  fmt.Sprintf("unknown compression %q", s.Compression),
		})
	}
	return issues
}

// StorageKinds are the warehouse database backends.
var StorageKinds = []string{"mssql", "mysql", "postgres", "sqlite"}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		return nil
	}
	known := false
	for _, k := range StorageKinds {
		known = known || k == s.Kind
	}
	if !known {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; want one of %s", s.Kind, strings.Join(StorageKinds, ", ")),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", "storage.db.dsn must not be empty"})
	}
	if s.DB.Schema != "" && s.Kind == "sqlite" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.schema",
			Message:  "sqlite treats the schema as an attached database name",
		})
	}
	if !s.DB.AutoCreateTable {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.auto_create_table",
			Message:  "auto_create_table is false; every warehouse table must already exist",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if msg := checkURL(m.PushgatewayURL); msg != "" {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", msg})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{SeverityWarning, "metrics.statsd_addr", "statsd_addr is empty; 127.0.0.1:8125 is used"})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, pushgateway or datadog", m.Backend),
		})
	}
	return issues
}

func validateRuntime(r Runtime) []Issue {
	var issues []Issue
	if r.SinkWorkers < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.sink_workers", "sink_workers must not be negative"})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.batch_size", "batch_size must not be negative"})
	}
	if r.Schedule != "" {
		if _, err := cron.ParseStandard(r.Schedule); err != nil {
			issues = append(issues, Issue{SeverityError, "runtime.schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	if r.WatchDebounceMS < 0 {
		issues = append(issues, Issue{SeverityError, "runtime.watch_debounce_ms", "watch_debounce_ms must not be negative"})
	}
	return issues
}
