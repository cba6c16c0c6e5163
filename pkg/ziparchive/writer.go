// Package ziparchive is a streaming, STORE-only ZIP container writer with
// per-entry hash tees, used to compose the WACZ bundle.
package ziparchive

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrDuplicateEntry is returned when the same entry name is appended twice.
var ErrDuplicateEntry = errors.New("duplicate zip entry name")

// Resource is recorded for every appended entry except the digest file.
type Resource struct {
	Name  string
	Path  string
	Hash  string // "sha256:"+hex
	Bytes int64
}

// Writer appends ZIP entries in STORE mode (no DEFLATE), in the order
// they are appended; it never rewinds or reorders. Entries are
// simultaneously hashed so the caller can record a Resource for the
// eventual datapackage manifest.
type Writer struct {
	zw        *zip.Writer
	names     map[string]struct{}
	resources []Resource
}

// New wraps sink, an append-only output sink, as a ZIP writer.
func New(sink io.Writer) *Writer {
	return &Writer{
		zw:    zip.NewWriter(sink),
		names: make(map[string]struct{}),
	}
}

// WriteEntry appends one entry named path, reading its content from r.
// Content is SHA-256 hashed while being copied and recorded as a
// Resource, returned both via Resources() and directly for convenience.
func (w *Writer) WriteEntry(path string, r io.Reader) (Resource, error) {
	fw, err := w.create(path)
	if err != nil {
		return Resource{}, err
	}

	h := sha256.New()

	n, err := io.Copy(fw, io.TeeReader(r, h))
	if err != nil {
		return Resource{}, fmt.Errorf("writing zip entry %q: %w", path, err)
	}

	res := Resource{
		Name:  path,
		Path:  path,
		Hash:  "sha256:" + hex.EncodeToString(h.Sum(nil)),
		Bytes: n,
	}

	w.resources = append(w.resources, res)

	return res, nil
}

// WriteBytes is a convenience wrapper around WriteEntry for in-memory content.
func (w *Writer) WriteBytes(path string, data []byte) (Resource, error) {
	return w.WriteEntry(path, bytes.NewReader(data))
}

// WriteRaw appends data at path without hashing or recording a Resource.
// It exists solely for datapackage-digest.json, the one entry the WACZ
// layout excludes from the resource manifest.
func (w *Writer) WriteRaw(path string, data []byte) error {
	fw, err := w.create(path)
	if err != nil {
		return err
	}

	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("writing zip entry %q: %w", path, err)
	}

	return nil
}

func (w *Writer) create(path string) (io.Writer, error) {
	if _, ok := w.names[path]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, path)
	}

	w.names[path] = struct{}{}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   path,
		Method: zip.Store,
	})
	if err != nil {
		return nil, fmt.Errorf("creating zip entry %q: %w", path, err)
	}

	return fw, nil
}

// Resources returns every recorded Resource, in append order.
func (w *Writer) Resources() []Resource { return w.resources }

// Close writes the central directory and finalizes the archive. It does
// not close the underlying sink.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("finalizing zip archive: %w", err)
	}

	return nil
}
