package sink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const fileMode = 0o600

// ErrPathMustBeAbsolute is returned when a LocalSink destination is not
// an absolute path.
var ErrPathMustBeAbsolute = errors.New("path must be absolute")

// LocalSink writes the archive to a local file, exclusively created so
// two concurrent runs never interleave, and removed any prior file of
// the same name first so a stale output never survives a failed run.
type LocalSink struct {
	path string
	f    *os.File
	bw   *bufio.Writer
}

// NewLocal opens path for exclusive writing, removing any existing file
// of the same name first.
func NewLocal(path string) (*LocalSink, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: %q", ErrPathMustBeAbsolute, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating output directory for %q: %w", path, err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing prior output %q: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		return nil, fmt.Errorf("opening output %q: %w", path, err)
	}

	return &LocalSink{path: path, f: f, bw: bufio.NewWriter(f)}, nil
}

func (s *LocalSink) Write(p []byte) (int, error) {
	n, err := s.bw.Write(p)
	if err != nil {
		return n, fmt.Errorf("writing to %q: %w", s.path, err)
	}

	return n, nil
}

// Close flushes the buffer and closes the file, leaving it in place.
func (s *LocalSink) Close() error {
	if err := s.bw.Flush(); err != nil {
		s.f.Close()

		return fmt.Errorf("flushing %q: %w", s.path, err)
	}

	if err := s.f.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", s.path, err)
	}

	return nil
}

// Abort closes the file (if still open) and removes it.
func (s *LocalSink) Abort() error {
	s.f.Close()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing partial output %q: %w", s.path, err)
	}

	return nil
}
