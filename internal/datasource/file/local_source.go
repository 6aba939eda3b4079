// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Stdin is the path that makes Local read standard input.
const Stdin = "-"

// Local opens an export from the local disk, or from standard input when
// the path is Stdin.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the path, or "stdin".
func (l *Local) Name() string {
	if l.path == Stdin {
		return "stdin"
	}
	return l.path
}

// Open returns the context error without touching the filesystem when ctx
// is already done. Filesystem errors are wrapped with the path and still
// match os.ErrNotExist and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if l.path == Stdin {
		return io.NopCloser(os.Stdin), nil
	}
	st, err := os.Stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
