package cdxj

import (
	"crypto/sha1" //nolint:gosec // WARC digest fallback format is defined as sha1.
	"encoding/base32"
	"strings"

	"github.com/waczpack/waczpack/pkg/warc"
)

const timestampLayout = "20060102150405"

// Build derives a CDXJ Entry from a response-typed WARC record. ok is
// false when the record should be filtered out: missing target URI,
// missing/zero HTTP status, or an unparseable WARC-Date.
func Build(rec *warc.Record) (entry Entry, ok bool, err error) {
	if rec.TargetURI == "" || rec.Status == 0 || rec.Date.IsZero() {
		return Entry{}, false, nil
	}

	surt, err := ToSURT(rec.TargetURI)
	if err != nil {
		return Entry{}, false, nil //nolint:nilerr // unparseable URL is a filter, not a run failure.
	}

	mime := ""
	if rec.HTTPHeader != nil {
		mime = firstMIME(rec.HTTPHeader.Get("Content-Type"))
	}

	entry = Entry{
		SearchableURL: surt,
		Timestamp:     rec.Date.Format(timestampLayout),
		Meta: Meta{
			URL:      rec.TargetURI,
			MIME:     mime,
			Status:   rec.Status,
			Digest:   digestFor(rec),
			Length:   rec.MemberLength,
			Offset:   rec.MemberOffset,
			Filename: rec.Filename,
		},
	}

	return entry, true, nil
}

// firstMIME strips any "; charset=..." parameters off a Content-Type value.
func firstMIME(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}

	return strings.TrimSpace(contentType)
}

func digestFor(rec *warc.Record) string {
	if d := rec.PayloadDigest(); d != "" {
		return d
	}

	payload := rec.HTTPPayload
	if payload == nil {
		payload = rec.Payload
	}

	sum := sha1.Sum(payload) //nolint:gosec // matches legacy sha1: CDX digest convention.

	return "sha1:" + base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
}
