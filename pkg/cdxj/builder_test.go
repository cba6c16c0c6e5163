package cdxj_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waczpack/waczpack/pkg/cdxj"
	"github.com/waczpack/waczpack/pkg/warc"
	"github.com/waczpack/waczpack/pkg/warctest"
)

func TestBuild_SingleResponse(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 2, 22, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "single.warc.gz")

	require.NoError(t, warctest.WriteGzip(path, [][]byte{
		warctest.Response("https://example.com/", ts, 200, "text/html", "<html></html>"),
	}))

	r, err := warc.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Next()
	require.NoError(t, err)

	entry, ok, err := cdxj.Build(rec)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "com,example)/", entry.SearchableURL)
	assert.Equal(t, "20230222120000", entry.Timestamp)
	assert.Equal(t, "https://example.com/", entry.Meta.URL)
	assert.Equal(t, "text/html", entry.Meta.MIME)
	assert.Equal(t, 200, entry.Meta.Status)
	assert.Equal(t, "single.warc.gz", entry.Meta.Filename)
	assert.Contains(t, entry.Meta.Digest, "sha1:")

	line, err := entry.Line()
	require.NoError(t, err)
	assert.Contains(t, line, `com,example)/ 20230222120000 {"url":"https://example.com/"`)
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestBuild_FiltersZeroStatus(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 2, 22, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "nostatus.warc.gz")

	// "HTTP/1.1 0 ..." is not a parseable HTTP message -> Status stays 0 -> filtered.
	require.NoError(t, warctest.WriteGzip(path, [][]byte{
		warctest.Response("https://example.com/", ts, 0, "text/html", "<html></html>"),
	}))

	r, err := warc.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Next()
	require.NoError(t, err)

	_, ok, err := cdxj.Build(rec)
	require.NoError(t, err)
	assert.False(t, ok)
}
