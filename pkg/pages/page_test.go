package pages_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waczpack/waczpack/pkg/pages"
)

func TestNewID(t *testing.T) {
	t.Parallel()

	id := pages.NewID()

	assert.Len(t, id, 32)

	_, err := hex.DecodeString(id)
	require.NoError(t, err)
	assert.NotContains(t, id, "-")
}

func TestPage_Line(t *testing.T) {
	t.Parallel()

	p := pages.Page{ID: "abc123", URL: "https://example.com/"}

	line, err := p.Line()
	require.NoError(t, err)
	assert.Equal(t, `{"id":"abc123","url":"https://example.com/"}`+"\n", line)
}

func TestHeader(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"format": "json-pages-1.0", "id": "pages", "title": "All Pages"}`+"\n", pages.Header)
}
