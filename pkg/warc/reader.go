package warc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// gzipMagic is the two leading bytes of a gzip stream (RFC 1952 §2.3.1).
var gzipMagic = []byte{0x1F, 0x8B}

// countingReader counts every byte actually read from the underlying file,
// regardless of how it is buffered downstream.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)

	return n, err
}

// Reader streams WARC records out of a file, transparently handling both
// gzip-member-framed and plain WARCs.
//
// For gzip-framed input, each member is expected to enclose exactly one
// WARC record (the standard WARC convention); offsets/lengths reported on
// Record address the compressed member within the original file. For
// plain input they address the record's own bytes.
type Reader struct {
	file     *os.File
	filename string
	isGzip   bool
	counting *countingReader
	br       *bufio.Reader
}

// NewReader opens path and detects its framing.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	cr := &countingReader{r: f}
	// br is handed directly to the gzip/flate decompressor below. Since
	// *bufio.Reader implements io.ByteReader, flate reads through it one
	// byte at a time instead of wrapping it in a second, larger buffer --
	// which is what lets pos() below stay exact at gzip member boundaries.
	br := bufio.NewReader(cr)

	magic, peekErr := br.Peek(2)
	isGzip := peekErr == nil && bytes.Equal(magic, gzipMagic)

	return &Reader{
		file:     f,
		filename: filepath.Base(path),
		isGzip:   isGzip,
		counting: cr,
		br:       br,
	}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.file.Close() }

// IsGzip reports whether the input was detected as gzip-member-framed.
func (r *Reader) IsGzip() bool { return r.isGzip }

// pos returns the true byte offset within the source file of the next
// unread byte.
func (r *Reader) pos() int64 { return r.counting.n - int64(r.br.Buffered()) }

// Next returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Next() (*Record, error) {
	if r.isGzip {
		return r.nextGzipMember()
	}

	return r.nextPlainRecord()
}

func (r *Reader) nextGzipMember() (*Record, error) {
	start := r.pos()

	if _, err := r.br.Peek(1); err != nil {
		return nil, io.EOF
	}

	gz, err := gzip.NewReader(r.br)
	if err != nil {
		return nil, fmt.Errorf("%w: opening gzip member at offset %d: %s", ErrMalformedWarc, start, err)
	}

	gz.Multistream(false)

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding gzip member at offset %d: %s", ErrMalformedWarc, start, err)
	}

	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing gzip member at offset %d: %s", ErrMalformedWarc, start, err)
	}

	end := r.pos()

	rec, err := parseRecord(data)
	if err != nil {
		return nil, err
	}

	rec.MemberOffset = start
	rec.MemberLength = end - start
	rec.Filename = r.filename

	return rec, nil
}

func (r *Reader) nextPlainRecord() (*Record, error) {
	start := r.pos()

	if _, err := r.br.Peek(1); err != nil {
		return nil, io.EOF
	}

	headerBlock, err := readHeaderBlock(r.br)
	if err != nil {
		return nil, fmt.Errorf("%w: reading header block at offset %d: %s", ErrMalformedWarc, start, err)
	}

	_, _, headers, err := parseHeaderBlock(headerBlock)
	if err != nil {
		return nil, err
	}

	contentLength, err := parseContentLength(headers)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, contentLength)
	if _, err := io.ReadFull(r.br, payload); err != nil {
		return nil, fmt.Errorf("%w: reading %d-byte payload at offset %d: %s", ErrMalformedWarc, contentLength, start, err)
	}

	trailer := make([]byte, 4)
	if _, err := io.ReadFull(r.br, trailer); err != nil {
		return nil, fmt.Errorf("%w: reading record trailer at offset %d: %s", ErrMalformedWarc, start, err)
	}

	if !bytes.Equal(trailer, []byte("\r\n\r\n")) {
		return nil, fmt.Errorf("%w: missing CRLFCRLF trailer at offset %d", ErrMalformedWarc, start)
	}

	end := r.pos()

	rec, err := parseRecord(append(append([]byte{}, headerBlock...), payload...))
	if err != nil {
		return nil, err
	}

	rec.MemberOffset = start
	rec.MemberLength = end - start
	rec.Filename = r.filename

	return rec, nil
}

// readHeaderBlock reads bytes up to and including the first "\r\n\r\n".
func readHeaderBlock(br *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer

	for {
		line, err := br.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			return nil, err
		}

		buf.Write(line)

		if bytes.HasSuffix(buf.Bytes(), []byte("\r\n\r\n")) {
			return buf.Bytes(), nil
		}

		if err != nil {
			return nil, err
		}
	}
}

// parseHeaderBlock parses a "WARC/x.x\r\n" version line followed by
// "Name: value\r\n" header lines and a terminating blank line.
func parseHeaderBlock(block []byte) (version string, recType RecordType, headers *Header, err error) {
	lines := strings.Split(string(block), "\r\n")
	if len(lines) < 1 || !strings.HasPrefix(lines[0], "WARC/") {
		return "", "", nil, fmt.Errorf("%w: missing WARC version line", ErrMalformedWarc)
	}

	version = strings.TrimPrefix(lines[0], "WARC/")
	headers = newHeader()

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}

		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}

		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		headers.Add(name, value)
	}

	recType = RecordType(headers.Get("WARC-Type"))

	return version, recType, headers, nil
}

func parseContentLength(headers *Header) (int64, error) {
	raw := headers.Get("Content-Length")
	if raw == "" {
		return 0, fmt.Errorf("%w: missing Content-Length", ErrMalformedWarc)
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid Content-Length %q", ErrMalformedWarc, raw)
	}

	return n, nil
}

// parseRecord splits a full record block (header block + payload,
// optionally still carrying the record's closing CRLFCRLF) into a Record.
func parseRecord(data []byte) (*Record, error) {
	idx := bytes.Index(data, []byte("\r\n\r\n"))
	if idx < 0 {
		return nil, fmt.Errorf("%w: missing header terminator", ErrMalformedWarc)
	}

	headerBlock := data[:idx+4]

	version, recType, headers, err := parseHeaderBlock(headerBlock)
	if err != nil {
		return nil, err
	}

	contentLength, err := parseContentLength(headers)
	if err != nil {
		return nil, err
	}

	payload := data[idx+4:]
	if int64(len(payload)) == contentLength+4 && bytes.HasSuffix(payload, []byte("\r\n\r\n")) {
		payload = payload[:contentLength]
	}

	if int64(len(payload)) != contentLength {
		return nil, fmt.Errorf(
			"%w: Content-Length %d does not match payload of %d bytes",
			ErrMalformedWarc, contentLength, len(payload),
		)
	}

	rec := &Record{
		Version: version,
		Type:    recType,
		Headers: headers,
		Payload: payload,
	}

	if d, err := time.Parse(time.RFC3339, headers.Get("WARC-Date")); err == nil {
		rec.Date = d.UTC()
	}

	if recType == TypeResponse || recType == TypeRevisit {
		rec.TargetURI = headers.Get("WARC-Target-URI")
		_ = rec.parseHTTPMessage()
	}

	return rec, nil
}

// parseHTTPMessage parses the embedded HTTP response out of Payload for
// response/revisit records, populating Status, HTTPHeader and HTTPPayload.
// Parse failures are non-fatal: the CDXJ builder simply filters the record
// out when Status stays 0.
func (r *Record) parseHTTPMessage() error {
	br := bufio.NewReader(bytes.NewReader(r.Payload))

	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	r.Status = resp.StatusCode
	r.HTTPHeader = resp.Header
	r.HTTPPayload = body

	return nil
}
