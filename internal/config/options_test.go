package config

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestOptions_TypedGetters(t *testing.T) {
	t.Parallel()

	o := Options{
		"s": "hello",
		"b": true,
		"i": float64(42), // encoding/json decodes numbers as float64
		"r": "|",
		"u": "ž",
	}

	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("b", "def"); got != "def" {
		t.Fatalf("String(b) = %q, want def for a non-string value", got)
	}
	if got := o.Bool("b", false); !got {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Bool("missing", true); !got {
		t.Fatalf("Bool(missing) = %v, want true", got)
	}
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Fatalf("Int(missing) = %d, want 7", got)
	}
	if got := o.Rune("r", ','); got != '|' {
		t.Fatalf("Rune(r) = %q, want '|'", got)
	}
	if got := o.Rune("u", 'x'); got != 'ž' {
		t.Fatalf("Rune(u) = %q, want ž", got)
	}
	if got := o.Rune("missing", ','); got != ',' {
		t.Fatalf("Rune(missing) = %q, want ','", got)
	}
}

func TestOptions_StringMap_StringSlice(t *testing.T) {
	t.Parallel()

	o := Options{
		"m":  map[string]any{"Staff Id": "staff_id", "X": 1},
		"s1": []any{"alpha", "beta", 3},
		"s2": []string{"gamma"},
	}

	if got := o.StringMap("m"); !reflect.DeepEqual(got, map[string]string{"Staff Id": "staff_id"}) {
		t.Fatalf("StringMap(m) = %#v", got)
	}
	if got := o.StringMap("missing"); got == nil || len(got) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", got)
	}
	if got := o.StringSlice("s1"); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Fatalf("StringSlice(s1) = %#v", got)
	}
	if got := o.StringSlice("s2"); !reflect.DeepEqual(got, []string{"gamma"}) {
		t.Fatalf("StringSlice(s2) = %#v", got)
	}
	if got := o.StringSlice("missing"); got != nil {
		t.Fatalf("StringSlice(missing) = %#v, want nil", got)
	}
}

func TestOptions_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"options": null}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after null = %#v, want non-nil empty map", w.Opts)
	}

	w = wrapper{}
	if err := json.Unmarshal([]byte(`{"options": {"a":"x","n":3}}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts.String("a", "") != "x" || w.Opts.Int("n", 0) != 3 {
		t.Fatalf("Opts = %#v", w.Opts)
	}
}
