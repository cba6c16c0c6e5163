// Package pages infers "page" entries from WARC response records and
// renders the page list as JSONL.
package pages

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Header is the literal first line of pages.jsonl.
const Header = `{"format": "json-pages-1.0", "id": "pages", "title": "All Pages"}` + "\n"

// Page is one entry in the page list.
type Page struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// NewID returns a random 128-bit identifier rendered as 32 lowercase hex
// characters, with no delimiters -- a UUIDv4 stripped of its dashes.
func NewID() string {
	id := uuid.New()

	return hex.EncodeToString(id[:])
}

// Line renders the page as one "\n"-terminated JSON line.
func (p Page) Line() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling page %q: %w", p.URL, err)
	}

	return string(b) + "\n", nil
}
