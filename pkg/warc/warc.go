// Package warc streams WARC records from a gzip-member-framed or plain
// WARC file, exposing typed views over the record headers and payload.
package warc

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// RecordType is the value of the WARC-Type header.
type RecordType string

const (
	// TypeWarcinfo describes the records that follow.
	TypeWarcinfo RecordType = "warcinfo"
	// TypeResponse is a response to a request.
	TypeResponse RecordType = "response"
	// TypeResource is a resource captured independently of protocol.
	TypeResource RecordType = "resource"
	// TypeRequest is a documented web request.
	TypeRequest RecordType = "request"
	// TypeMetadata holds content describing another record.
	TypeMetadata RecordType = "metadata"
	// TypeRevisit indicates a subsequent visit to previously archived content.
	TypeRevisit RecordType = "revisit"
	// TypeConversion contains an alternative version of another record's content.
	TypeConversion RecordType = "conversion"
	// TypeContinuation holds the continuation of a record that exceeded size limits.
	TypeContinuation RecordType = "continuation"
)

var (
	// ErrMalformedWarc is returned when the reader cannot make progress in
	// a WARC file: truncation, a bad Content-Length, or a missing header
	// terminator.
	ErrMalformedWarc = errors.New("malformed warc")
)

// Header is a case-insensitive, order-preserving, multi-value header block,
// modeled the way net/http.Header is except keyed on the lower-cased WARC
// field name rather than the canonicalized HTTP one.
type Header struct {
	values map[string][]string
	order  []string
}

func newHeader() *Header {
	return &Header{values: make(map[string][]string)}
}

func headerKey(name string) string { return strings.ToLower(name) }

// Add appends a value under name.
func (h *Header) Add(name, value string) {
	k := headerKey(name)
	if _, ok := h.values[k]; !ok {
		h.order = append(h.order, k)
	}

	h.values[k] = append(h.values[k], value)
}

// Get returns the first value associated with name, or "" if absent.
func (h *Header) Get(name string) string {
	vs := h.values[headerKey(name)]
	if len(vs) == 0 {
		return ""
	}

	return vs[0]
}

// Values returns all values associated with name.
func (h *Header) Values(name string) []string {
	return h.values[headerKey(name)]
}

// Record is a view over a single WARC record: its headers, its payload
// length, and the byte range of the gzip member (or, for plain WARCs, the
// record itself) that must be addressable from a CDX index.
type Record struct {
	Version string
	Type    RecordType
	Headers *Header

	// Payload is the record's content block, already stripped of the
	// trailing CRLFs.
	Payload []byte

	// Date is the parsed WARC-Date header, in UTC.
	Date time.Time

	// MemberOffset is the byte offset, within the source file, of the
	// gzip member enclosing this record (or of the record itself for a
	// plain, non-gzip WARC).
	MemberOffset int64

	// MemberLength is the compressed length of the enclosing gzip member
	// (or the record's own encoded length for a plain WARC).
	MemberLength int64

	// Filename is the basename of the source WARC file.
	Filename string

	// TargetURI and Status are populated for response/revisit records by
	// parsing the embedded HTTP message, when present.
	TargetURI string
	Status    int

	// HTTPHeader holds the parsed HTTP response header block, when the
	// record carries an embedded HTTP message (response/revisit records).
	HTTPHeader http.Header

	// HTTPPayload is the decoded HTTP entity body, distinct from Payload
	// which includes the HTTP status line and headers for response
	// records.
	HTTPPayload []byte

	// RequestMethod is populated when this response record has a request
	// record sharing its WARC-Concurrent-To chain; it is left empty when
	// no matching request was observed.
	RequestMethod string
}

// RecordID returns the WARC-Record-ID header value.
func (r *Record) RecordID() string { return r.Headers.Get("WARC-Record-ID") }

// PayloadDigest returns the WARC-Payload-Digest header value, if present.
func (r *Record) PayloadDigest() string { return r.Headers.Get("WARC-Payload-Digest") }

// ConcurrentTo returns the WARC-Concurrent-To header values.
func (r *Record) ConcurrentTo() []string { return r.Headers.Values("WARC-Concurrent-To") }
