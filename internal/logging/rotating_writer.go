package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// RotatingFileWriter appends log records to a file. Once a record would push
// the file past its limit, the file becomes path.1, an existing path.1
// becomes path.2, and so on up to the number of backups kept.
type RotatingFileWriter struct {
	path    string
	limit   int64
	backups int

	mu      sync.Mutex
	out     *os.File
	written int64
	closed  bool
}

// NewRotatingFileWriter opens path for appending. A limit of zero or less
// disables rotation.
func NewRotatingFileWriter(path string, limit int64, backups int) (*RotatingFileWriter, error) {
	w := &RotatingFileWriter{path: path, limit: limit, backups: backups}
	if err := w.reopen(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p. A record larger than the limit is not split; it starts a
// fresh file on its own.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, os.ErrClosed
	}
	if w.needsRotation(len(p)) {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotate %s: %w", w.path, err)
		}
	}

	n, err := w.out.Write(p)
	w.written += int64(n)
	return n, err
}

// Close closes the current file; later writes fail with os.ErrClosed
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.out == nil {
		return nil
	}
	return w.out.Close()
}

func (w *RotatingFileWriter) needsRotation(n int) bool {
	return w.limit > 0 && w.written > 0 && w.written+int64(n) > w.limit
}

// reopen opens the live file and picks up its size
func (w *RotatingFileWriter) reopen() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	w.out, w.written = f, info.Size()
	return nil
}

func (w *RotatingFileWriter) rotate() error {
	err := w.out.Close()
	w.out = nil
	if err != nil {
		return err
	}
	if err := w.shift(); err != nil {
		return err
	}
	return w.reopen()
}

// shift moves every generation one step older, dropping the oldest. With no
// backups the live file is just removed.
func (w *RotatingFileWriter) shift() error {
	if w.backups <= 0 {
		return ignoreMissing(os.Remove(w.path))
	}

	_ = os.Remove(w.generation(w.backups))
	for gen := w.backups; gen > 1; gen-- {
		if err := ignoreMissing(os.Rename(w.generation(gen-1), w.generation(gen))); err != nil {
			return err
		}
	}
	return ignoreMissing(os.Rename(w.path, w.generation(1)))
}

// generation names the nth backup, path.1 being the newest
func (w *RotatingFileWriter) generation(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

func ignoreMissing(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

var _ io.WriteCloser = (*RotatingFileWriter)(nil)
