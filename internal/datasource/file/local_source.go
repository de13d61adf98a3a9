// Package file implements a local directory of source extracts.
package file

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"warehouse/internal/table"
)

// Local opens extracts from a directory on local disk.
type Local struct{ dir string }

// NewLocal returns a Local source rooted at dir.
func NewLocal(dir string) *Local { return &Local{dir: dir} }

// Open opens dir/fileID. A pre-canceled context short-circuits without
// touching the filesystem. File ids cannot escape the directory.
func (l *Local) Open(ctx context.Context, fileID string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	p := filepath.Join(l.dir, filepath.Clean(string(filepath.Separator)+fileID))
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, table.Wrap(table.ErrNotFound, "open "+p, err)
	}
	if err != nil {
		return nil, table.Wrap(table.ErrIO, "open "+p, err)
	}
	return f, nil
}
