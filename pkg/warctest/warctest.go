// Package warctest builds minimal, valid WARC record bytes and files for
// exercising pkg/warc, pkg/cdxj, pkg/pages and pkg/scheduler tests
// without depending on real crawl captures.
package warctest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// NewRecordID mints a fresh WARC-Record-ID value, exposed so a test can
// pre-generate an ID to pair a request and response record together via
// WARC-Concurrent-To.
func NewRecordID() string {
	return "<urn:uuid:" + uuid.New().String() + ">"
}

// Response builds the raw bytes (header block + payload, no trailing
// framing) of a WARC response record embedding an HTTP message.
func Response(targetURI string, ts time.Time, status int, contentType, body string) []byte {
	return ResponsePaired(targetURI, ts, status, contentType, body, "")
}

// ResponsePaired is Response plus an explicit WARC-Concurrent-To value,
// letting a test pair it against a request record's WARC-Record-ID.
func ResponsePaired(targetURI string, ts time.Time, status int, contentType, body, concurrentTo string) []byte {
	statusText := "OK"
	if status != 200 {
		statusText = "Status"
	}

	httpMsg := fmt.Sprintf("HTTP/1.1 %d %s\r\nContent-Type: %s\r\nContent-Length: %d\r\n\r\n%s",
		status, statusText, contentType, len(body), body)

	headers := map[string]string{
		"WARC-Type":       "response",
		"WARC-Target-URI": targetURI,
		"WARC-Date":       ts.UTC().Format(time.RFC3339),
		"WARC-Record-ID":  NewRecordID(),
		"Content-Type":    "application/http; msgtype=response",
	}
	if concurrentTo != "" {
		headers["WARC-Concurrent-To"] = concurrentTo
	}

	return record(headers, httpMsg)
}

// Request builds a WARC request record with the given WARC-Record-ID, so
// a paired response can reference it via WARC-Concurrent-To.
func Request(targetURI, method string, ts time.Time, recordID string) []byte {
	httpMsg := fmt.Sprintf("%s %s HTTP/1.1\r\nHost: example\r\n\r\n", method, targetURI)

	return record(map[string]string{
		"WARC-Type":       "request",
		"WARC-Target-URI": targetURI,
		"WARC-Date":       ts.UTC().Format(time.RFC3339),
		"WARC-Record-ID":  recordID,
		"Content-Type":    "application/http; msgtype=request",
	}, httpMsg)
}

// Warcinfo builds a minimal warcinfo record.
func Warcinfo() []byte {
	return record(map[string]string{
		"WARC-Type":      "warcinfo",
		"WARC-Date":      time.Now().UTC().Format(time.RFC3339),
		"WARC-Record-ID": NewRecordID(),
		"Content-Type":   "application/warc-fields",
	}, "software: warctest\r\n")
}

func record(headers map[string]string, payload string) []byte {
	var b strings.Builder

	b.WriteString("WARC/1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Length: %d\r\n", len(payload)))

	for k, v := range headers {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	b.WriteString("\r\n")
	b.WriteString(payload)

	return []byte(b.String())
}

// WriteGzip writes records to path, each as its own gzip member enclosing
// the record plus its closing "\r\n\r\n", matching the standard
// one-record-per-member WARC convention.
func WriteGzip(path string, records [][]byte) error {
	var buf bytes.Buffer

	for _, rec := range records {
		gw := gzip.NewWriter(&buf)

		if _, err := gw.Write(rec); err != nil {
			return err
		}

		if _, err := gw.Write([]byte("\r\n\r\n")); err != nil {
			return err
		}

		if err := gw.Close(); err != nil {
			return err
		}
	}

	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// WritePlain writes records to path back-to-back, each terminated by the
// "\r\n\r\n" record separator plain (non-gzip) WARCs require.
func WritePlain(path string, records [][]byte) error {
	var buf bytes.Buffer

	for _, rec := range records {
		buf.Write(rec)
		buf.WriteString("\r\n\r\n")
	}

	return os.WriteFile(path, buf.Bytes(), 0o600)
}
