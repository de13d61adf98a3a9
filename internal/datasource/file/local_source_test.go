package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"warehouse/internal/table"
)

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "staff.csv"), []byte("staff_id\n1\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name        string
		ctx         context.Context
		fileID      string
		wantErrIs   error
		wantContent string
	}{
		{name: "success_reads_content", ctx: context.Background(), fileID: "staff.csv", wantContent: "staff_id\n1\n"},
		{name: "missing_file_is_not_found", ctx: context.Background(), fileID: "nope.csv", wantErrIs: table.ErrNotFound},
		{name: "escape_is_confined", ctx: context.Background(), fileID: "../staff.csv", wantContent: "staff_id\n1\n"},
		{name: "pre_canceled_context_short_circuits", ctx: canceled, fileID: "staff.csv", wantErrIs: context.Canceled},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			rc, err := NewLocal(dir).Open(c.ctx, c.fileID)
			if c.wantErrIs != nil {
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("Open() error = %v, want %v", err, c.wantErrIs)
				}
				if rc != nil {
					_ = rc.Close()
					t.Fatalf("got non-nil ReadCloser on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer rc.Close()
			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content = %q, want %q", got, c.wantContent)
			}
		})
	}
}
