package pages

import (
	"regexp"
	"strings"

	"github.com/waczpack/waczpack/pkg/warc"
)

const titleScanLimit = 128 * 1024

var titleRegexp = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Qualifies reports whether rec should be treated as a page: a response
// with a 2xx status, an HTML Content-Type, and (when a paired request
// record is known) a GET request method.
func Qualifies(rec *warc.Record) bool {
	if rec.Type != warc.TypeResponse {
		return false
	}

	if rec.Status < 200 || rec.Status > 299 {
		return false
	}

	if rec.HTTPHeader == nil || !strings.HasPrefix(strings.ToLower(rec.HTTPHeader.Get("Content-Type")), "text/html") {
		return false
	}

	if rec.RequestMethod != "" && rec.RequestMethod != "GET" {
		return false
	}

	return true
}

// ExtractTitle returns the first <title> text found in the first 128KiB of
// body, with whitespace collapsed. Empty titles are reported as "".
func ExtractTitle(body []byte) string {
	if len(body) > titleScanLimit {
		body = body[:titleScanLimit]
	}

	m := titleRegexp.FindSubmatch(body)
	if m == nil {
		return ""
	}

	title := whitespaceRun.ReplaceAllString(string(m[1]), " ")

	return strings.TrimSpace(title)
}
