package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
	"github.com/golang-sql/civil"
	"github.com/zeebo/xxh3"

	"warehouse/internal/metrics"
	"warehouse/internal/table"
)

// rowGroupSize caps rows per parquet row group.
const rowGroupSize = 64 * 1024

// Codec returns the parquet compression for name: snappy (default), zstd,
// gzip or none.
func Codec(name string) (compress.Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("sink: unknown compression %q", name)
	}
}

// ArrowType returns the arrow type a table kind is written as.
func ArrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.Int64:
		return arrow.PrimitiveTypes.Int64
	case table.Float64:
		return arrow.PrimitiveTypes.Float64
	case table.Bool:
		return arrow.FixedWidthTypes.Boolean
	case table.Date:
		return arrow.FixedWidthTypes.Date32
	case table.Time:
		return arrow.FixedWidthTypes.Time64us
	case table.Timestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	default:
		return arrow.BinaryTypes.String
	}
}

// Schema returns the arrow schema of t. Every field is nullable. Non-empty
// kv becomes schema metadata, which the parquet writer copies into the
// file footer.
func Schema(t *table.Table, kv map[string]string) *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: ArrowType(c.Kind), Nullable: true}
	}
	if len(kv) == 0 {
		return arrow.NewSchema(fields, nil)
	}
	md := arrow.MetadataFrom(kv)
	return arrow.NewSchema(fields, &md)
}

// Encode writes t as a parquet file to w.
func Encode(w io.Writer, t *table.Table, codec compress.Compression) error {
	return EncodeWithMetadata(w, t, codec, nil)
}

// EncodeWithMetadata is Encode with kv stored as footer key-value metadata.
func EncodeWithMetadata(w io.Writer, t *table.Table, codec compress.Compression, kv map[string]string) error {
	schema := Schema(t, kv)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for ci, c := range t.Columns {
		fb := b.Field(ci)
		for ri, row := range t.Rows {
			if err := appendValue(fb, c.Kind, row[ci]); err != nil {
				return table.Errorf(table.ErrSchemaMismatch, "encode "+t.Name, "row %d column %q: %v", ri, c.Name, err)
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(codec))
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	if err := pqarrow.WriteTable(tbl, w, rowGroupSize, props, arrProps); err != nil {
		return table.Wrap(table.ErrIO, "encode "+t.Name, err)
	}
	return nil
}

func appendValue(fb array.Builder, k table.Kind, v any) error {
	if v == nil {
		fb.AppendNull()
		return nil
	}
	switch k {
	case table.Int64:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("want int64, got %T", v)
		}
		fb.(*array.Int64Builder).Append(n)
	case table.Float64:
		switch n := v.(type) {
		case float64:
			fb.(*array.Float64Builder).Append(n)
		case int64:
			fb.(*array.Float64Builder).Append(float64(n))
		default:
			return fmt.Errorf("want float64, got %T", v)
		}
	case table.Bool:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", v)
		}
		fb.(*array.BooleanBuilder).Append(bv)
	case table.Date:
		d, ok := v.(civil.Date)
		if !ok {
			return fmt.Errorf("want civil.Date, got %T", v)
		}
		fb.(*array.Date32Builder).Append(arrow.Date32FromTime(d.In(time.UTC)))
	case table.Time:
		ct, ok := v.(civil.Time)
		if !ok {
			return fmt.Errorf("want civil.Time, got %T", v)
		}
		us := int64(ct.Hour)*3_600_000_000 + int64(ct.Minute)*60_000_000 +
			int64(ct.Second)*1_000_000 + int64(ct.Nanosecond)/1000
		fb.(*array.Time64Builder).Append(arrow.Time64(us))
	case table.Timestamp:
		ts, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("want time.Time, got %T", v)
		}
		fb.(*array.TimestampBuilder).Append(arrow.Timestamp(ts.UnixMicro()))
	default:
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		fb.(*array.StringBuilder).Append(s)
	}
	return nil
}

// Parquet encodes tables and stores them under Key(name, ts).
type Parquet struct {
	Store       ObjectStore
	Compression compress.Compression
	Job         string
	RunID       string // stored as object metadata when set
}

// Write implements Sink.
func (p *Parquet) Write(ctx context.Context, t *table.Table, ts time.Time) error {
	meta := map[string]string{
		"rows":    fmt.Sprint(t.Len()),
		"table":   t.Name,
		"run-utc": ts.UTC().Format(KeyTimeFormat),
	}
	if p.RunID != "" {
		meta["run-id"] = p.RunID
	}
	var buf bytes.Buffer
	if err := EncodeWithMetadata(&buf, t, p.Compression, meta); err != nil {
		return err
	}
	key := Key(t.Name, ts)
	sum := fmt.Sprintf("%016x", xxh3.Hash(buf.Bytes()))
	meta["xxh3"] = sum
	if err := p.Store.Put(ctx, key, buf.Bytes(), meta); err != nil {
		return err
	}
	metrics.RecordRows(p.Job, "written", int64(t.Len()))
	log.Printf("sink: wrote key=%s rows=%d bytes=%d xxh3=%s", key, t.Len(), buf.Len(), sum)
	return nil
}
