package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"warehouse/internal/config"
	"warehouse/internal/schema"
	"warehouse/internal/sink"
	"warehouse/internal/table"
	"warehouse/internal/warehouse"
)

type memSource map[string]*table.Table

func (m memSource) Read(_ context.Context, fileID string) (*table.Table, error) {
	t, ok := m[fileID]
	if !ok {
		return nil, table.Errorf(table.ErrNotFound, "read "+fileID, "no such extract")
	}
	return t.Clone(), nil
}

type memSink struct {
	names []string
	fail  map[string]error
}

func (m *memSink) Write(_ context.Context, t *table.Table, _ time.Time) error {
	if err := m.fail[t.Name]; err != nil {
		return err
	}
	m.names = append(m.names, t.Name)
	return nil
}

func mustTable(t *testing.T, name string, cols []string, rows ...[]any) *table.Table {
	t.Helper()
	defs := make([]table.Column, len(cols))
	for i, c := range cols {
		defs[i] = table.Column{Name: c, Kind: table.String}
		for _, r := range rows {
			if k, ok := table.KindOfValue(r[i]); ok {
				defs[i].Kind = k
			}
		}
	}
	tb := table.New(name, defs...)
	for _, r := range rows {
		if err := tb.Append(r...); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return tb
}

func extracts(t *testing.T) memSource {
	return memSource{
		"design.csv": mustTable(t, "design",
			[]string{"design_id", "design_name", "file_location", "file_name"},
			[]any{int64(8), "Wooden", "/usr", "wooden-20220717-npgz.json"}),
		"payment.csv": mustTable(t, "payment",
			[]string{"payment_id", "created_at", "last_updated", "transaction_id", "counterparty_id", "payment_amount", "currency_id", "payment_type_id", "paid", "payment_date"},
			[]any{int64(2), "2022-11-03 14:20:52.187", "2022-11-03 14:20:52.187", int64(2), int64(15), 552548.62, int64(2), int64(3), "false", "2022-11-04"}),
	}
}

// withSeams swaps the source and sink builders for the duration of a test.
func withSeams(t *testing.T, src warehouse.Source, snk warehouse.Sink) {
	t.Helper()
	oldSrc, oldSink := newSource, newSink
	newSource = func(config.Run) (warehouse.Source, string, error) { return src, "mem", nil }
	newSink = func(config.Run, string) (warehouse.Sink, string, error) { return snk, "mem", nil }
	t.Cleanup(func() { newSource, newSink = oldSrc, oldSink })
}

var runTS = time.Date(2024, 11, 3, 14, 20, 0, 0, time.UTC)

func TestRun_ConfiguredTablesThenDateDimension(t *testing.T) {
	snk := &memSink{}
	withSeams(t, extracts(t), snk)

	cfg := config.Run{Job: "test", Tables: map[string][]string{
		schema.FactPayment: {"payment.csv"},
		schema.DimDesign:   {"design.csv"},
	}}
	if err := run(context.Background(), cfg, runTS); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{schema.DimDesign, schema.FactPayment, schema.DimDate}
	if !reflect.DeepEqual(snk.names, want) {
		t.Fatalf("written = %v, want %v", snk.names, want)
	}
}

func TestRun_AbortsAtFirstFailure(t *testing.T) {
	snk := &memSink{}
	withSeams(t, extracts(t), snk)

	cfg := config.Run{Job: "test", Tables: map[string][]string{
		schema.DimDesign:      {"design.csv"},
		schema.DimPaymentType: {"payment_type.csv"}, // missing
		schema.FactPayment:    {"payment.csv"},
	}}
	err := run(context.Background(), cfg, runTS)
	if !errors.Is(err, table.ErrNotFound) {
		t.Fatalf("run err = %v, want ErrNotFound", err)
	}
	if got := FailedTable(err); got != schema.DimPaymentType {
		t.Fatalf("FailedTable = %q, want %q", got, schema.DimPaymentType)
	}
	if !reflect.DeepEqual(snk.names, []string{schema.DimDesign}) {
		t.Fatalf("written = %v, want only dim_design", snk.names)
	}
}

func TestRun_ContinueOnErrorJoinsFailures(t *testing.T) {
	sinkErr := table.Errorf(table.ErrIO, "put", "disk full")
	snk := &memSink{fail: map[string]error{schema.DimDesign: sinkErr}}
	withSeams(t, extracts(t), snk)

	cfg := config.Run{
		Job: "test",
		Tables: map[string][]string{
			schema.DimDesign:      {"design.csv"},
			schema.DimPaymentType: {"payment_type.csv"},
			schema.FactPayment:    {"payment.csv"},
		},
		Runtime: config.Runtime{ContinueOnError: true},
	}
	err := run(context.Background(), cfg, runTS)
	if !errors.Is(err, table.ErrIO) || !errors.Is(err, table.ErrNotFound) {
		t.Fatalf("run err = %v, want ErrIO and ErrNotFound joined", err)
	}
	if got := FailedTable(err); got != schema.DimDesign {
		t.Fatalf("FailedTable = %q, want first failure %q", got, schema.DimDesign)
	}
	want := []string{schema.FactPayment, schema.DimDate}
	if !reflect.DeepEqual(snk.names, want) {
		t.Fatalf("written = %v, want %v", snk.names, want)
	}
}

func TestRun_TooFewFileIDs(t *testing.T) {
	snk := &memSink{}
	withSeams(t, extracts(t), snk)

	cfg := config.Run{Job: "test", Tables: map[string][]string{schema.DimStaff: {"staff.csv"}}}
	err := run(context.Background(), cfg, runTS)
	if !errors.Is(err, errFileIDs) || FailedTable(err) != schema.DimStaff {
		t.Fatalf("run err = %v, want dim_staff file id error", err)
	}
	if errors.Is(err, table.ErrSchemaMismatch) {
		t.Fatalf("run err = %v, config error tagged as schema mismatch", err)
	}
	if len(snk.names) != 0 {
		t.Fatalf("written = %v, want nothing", snk.names)
	}
}

func TestRun_SourceBuildError(t *testing.T) {
	old := newSource
	newSource = func(config.Run) (warehouse.Source, string, error) { return nil, "", errors.New("no creds") }
	t.Cleanup(func() { newSource = old })

	if err := run(context.Background(), config.Run{Job: "test"}, runTS); err == nil {
		t.Fatal("run err = nil, want build source error")
	}
}

func TestRun_FileToParquetEndToEnd(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	files := map[string]string{
		"design.csv": "design_id,design_name,file_location,file_name\n" +
			"8,Wooden,/usr,wooden-20220717-npgz.json\n" +
			"51,Bronze,/private,bronze-20221024-4dds.json\n",
		"sales_order.csv": "sales_order_id,created_at,last_updated,design_id,staff_id,counterparty_id,units_sold,unit_price,currency_id,agreed_delivery_date,agreed_payment_date,agreed_delivery_location_id\n" +
			"2,2022-11-03 14:20:52.186,2022-11-03 14:20:52.186,3,19,8,42972,3.94,2,2022-11-07,2022-11-08,8\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(in, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Run{
		Job:    "e2e",
		Source: config.Source{Kind: "file", File: config.SourceFile{Dir: in}},
		Parser: config.Parser{Kind: "csv", Options: config.Options{"trim_space": true}},
		Tables: map[string][]string{
			schema.DimDesign:      {"design.csv"},
			schema.FactSalesOrder: {"sales_order.csv"},
		},
		Sink: config.Sink{Kind: "file", File: config.SinkFile{Dir: out}},
	}
	if err := run(context.Background(), cfg, runTS); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{schema.DimDesign, schema.FactSalesOrder, schema.DimDate} {
		p := filepath.Join(out, filepath.FromSlash(sink.Key(name, runTS)))
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if fi.Size() == 0 {
			t.Fatalf("%s is empty", p)
		}
	}
	if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(sink.Key(schema.DimStaff, runTS)))); !os.IsNotExist(err) {
		t.Fatalf("dim_staff written without configured file ids: %v", err)
	}
}

func TestRunProbe(t *testing.T) {
	snk := &memSink{}
	withSeams(t, extracts(t), snk)

	cfg := config.Run{Job: "test", Tables: map[string][]string{
		schema.DimDesign:      {"design.csv"},
		schema.DimPaymentType: {"payment_type.csv"},
	}}
	var buf bytes.Buffer
	failed, err := runProbe(context.Background(), cfg, &buf)
	if err != nil {
		t.Fatalf("runProbe: %v", err)
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1 (payment_type.csv is missing)", failed)
	}
	var reports []struct {
		Table string `json:"table"`
		Rows  int    `json:"rows"`
	}
	if err := json.Unmarshal(buf.Bytes(), &reports); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, buf.String())
	}
	if len(reports) != len(schema.TableNames) || reports[0].Table != schema.DimDesign || reports[0].Rows != 1 {
		t.Fatalf("reports = %+v", reports)
	}
	if len(snk.names) != 0 {
		t.Fatalf("probe wrote %v", snk.names)
	}
}

func TestBuildSink(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "dw.db")
	tests := []struct {
		name    string
		cfg     config.Run
		want    string
		wantErr bool
	}{
		{"parquet only", config.Run{Sink: config.Sink{Kind: "file", File: config.SinkFile{Dir: "out"}}}, "*sink.Parquet", false},
		{"database only", config.Run{
			Sink:    config.Sink{Kind: "none"},
			Storage: config.Storage{Kind: "sqlite", DB: config.DBConfig{DSN: dbPath}},
		}, "*sink.Database", false},
		{"both", config.Run{
			Sink:    config.Sink{Kind: "file", File: config.SinkFile{Dir: "out"}},
			Storage: config.Storage{Kind: "sqlite", DB: config.DBConfig{DSN: dbPath}},
			Runtime: config.Runtime{SinkWorkers: 2},
		}, "sink.Multi", false},
		{"nothing", config.Run{Sink: config.Sink{Kind: "none"}}, "", true},
		{"bad codec", config.Run{Sink: config.Sink{Kind: "file", Compression: "lz77"}}, "", true},
		{"bad kind", config.Run{Sink: config.Sink{Kind: "gcs"}}, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, _, err := buildSink(tc.cfg, "run-1")
			if (err != nil) != tc.wantErr {
				t.Fatalf("buildSink err = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if got := reflect.TypeOf(s).String(); got != tc.want {
				t.Fatalf("sink type = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestBuildSource(t *testing.T) {
	t.Parallel()

	if _, desc, err := buildSource(config.Run{Source: config.Source{Kind: "file", File: config.SourceFile{Dir: "in"}}}); err != nil || desc != "in" {
		t.Fatalf("file source = %q, %v", desc, err)
	}
	remote := config.Run{Source: config.Source{Kind: "http", HTTP: config.SourceHTTP{
		BaseURL: "https://extracts.example.com/latest",
		Headers: map[string]string{"Authorization": "Bearer x"},
	}}}
	if _, _, err := buildSource(remote); err != nil {
		t.Fatalf("http source: %v", err)
	}
	if _, _, err := buildSource(config.Run{Source: config.Source{Kind: "ftp"}}); err == nil {
		t.Fatal("ftp source err = nil")
	}
}

func TestCSVOptions(t *testing.T) {
	t.Parallel()

	o := csvOptions(config.Options{
		"comma":         ";",
		"trim_space":    true,
		"header_map":    map[string]any{"Staff Id": "staff_id"},
		"max_skip_logs": float64(5),
	})
	if o.Comma != ';' || !o.TrimSpace || o.HeaderMap["Staff Id"] != "staff_id" || o.MaxSkipLogs != 5 {
		t.Fatalf("csvOptions = %+v", o)
	}
	if d := csvOptions(config.Options{}); d.Comma != ',' || d.NoHeader || d.KeepStrings {
		t.Fatalf("default csvOptions = %+v", d)
	}
}

func TestS3URI(t *testing.T) {
	t.Parallel()

	if got := s3URI(config.S3Location{Bucket: "b"}); got != "s3://b" {
		t.Fatalf("s3URI = %q", got)
	}
	if got := s3URI(config.S3Location{Bucket: "b", Prefix: "/2024/11/"}); got != "s3://b/2024/11" {
		t.Fatalf("s3URI = %q", got)
	}
}
