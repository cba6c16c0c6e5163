// Package cdxj derives canonical CDXJ index lines from WARC response
// records. Slicing them into ZipNum shards is done by pkg/zipnum.
package cdxj

import (
	"encoding/json"
	"fmt"
)

// Meta is the JSON object carried on a CDXJ line: `{url, mime, status,
// digest, length, offset, filename}` at minimum.
type Meta struct {
	URL      string `json:"url"`
	MIME     string `json:"mime,omitempty"`
	Status   int    `json:"status"`
	Digest   string `json:"digest"`
	Length   int64  `json:"length"`
	Offset   int64  `json:"offset"`
	Filename string `json:"filename"`
}

// Entry is one logical CDXJ triple: (searchable_url, timestamp, json_meta).
type Entry struct {
	SearchableURL string
	Timestamp     string
	Meta          Meta
}

// Line renders the entry as one UTF-8, "\n"-terminated CDXJ line. Line is
// also the entry's sort key: ascending byte order over Line is CDX order,
// since the line begins with the SURT.
func (e Entry) Line() (string, error) {
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		return "", fmt.Errorf("marshaling cdxj meta: %w", err)
	}

	return e.SearchableURL + " " + e.Timestamp + " " + string(metaJSON) + "\n", nil
}
