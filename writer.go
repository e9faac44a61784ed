package framecap

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Writer persists encoded captures under a target directory with
// timestamped file names.
//
// The zero value writes to the current directory using the wall clock.
// Clock is injectable so tests can pin the timestamp.
type Writer struct {
	// Dir is the output directory, created on demand with any missing
	// parents. Empty means the current directory.
	Dir string

	// Clock returns the time used in generated file names.
	// Nil means time.Now.
	Clock func() time.Time

	// DirPerm is the permission for created directories.
	// Zero means 0o755.
	DirPerm fs.FileMode
}

func (w *Writer) now() time.Time {
	if w.Clock != nil {
		return w.Clock()
	}
	return time.Now()
}

func (w *Writer) dirPerm() fs.FileMode {
	if w.DirPerm != 0 {
		return w.DirPerm
	}
	return 0o755
}

// EnsureDir creates the output directory and any missing parents. It is a
// no-op when the directory already exists. The capture pipeline runs it
// concurrently with the GPU copy so directory I/O overlaps GPU work.
func (w *Writer) EnsureDir() error {
	if w.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(w.Dir, w.dirPerm()); err != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryCreate, err)
	}
	return nil
}

// Filename builds the file name for a capture taken now:
//
//	{base}_{yyyyMMdd_HHmmss}.{ext}
//
// An empty base defaults to "capture". Timestamps have one-second
// resolution, so two captures inside the same wall-clock second produce
// the same name and the later write replaces the earlier file.
func (w *Writer) Filename(base string, format ImageFormat) string {
	if base == "" {
		base = "capture"
	}
	n := w.now()
	stamp := fmt.Sprintf("%04d%02d%02d_%02d%02d%02d",
		n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second())
	return fmt.Sprintf("%s_%s.%s", base, stamp, format.Ext())
}

// Write stores encoded image bytes under Dir and returns the path of the
// written file. The directory is created if needed.
func (w *Writer) Write(base string, format ImageFormat, data []byte) (string, error) {
	if err := w.EnsureDir(); err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, w.Filename(base, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return path, nil
}
