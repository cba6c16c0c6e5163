package warc_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waczpack/waczpack/pkg/warc"
	"github.com/waczpack/waczpack/pkg/warctest"
)

func TestReader_Gzip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 2, 22, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "test.warc.gz")

	records := [][]byte{
		warctest.Warcinfo(),
		warctest.Response("https://example.com/", ts, 200, "text/html", "<html><title>Hi</title></html>"),
	}

	require.NoError(t, warctest.WriteGzip(path, records))

	r, err := warc.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.True(t, r.IsGzip())

	info, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, warc.TypeWarcinfo, info.Type)
	assert.Positive(t, info.MemberLength)

	resp, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, warc.TypeResponse, resp.Type)
	assert.Equal(t, "https://example.com/", resp.TargetURI)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "text/html", resp.HTTPHeader.Get("Content-Type"))
	assert.Equal(t, "test.warc.gz", resp.Filename)
	assert.Positive(t, resp.MemberLength)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_Plain(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 2, 22, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "test.warc")

	records := [][]byte{
		warctest.Response("https://example.com/a", ts, 200, "text/html", "<html></html>"),
		warctest.Response("https://example.com/b", ts, 404, "text/html", "nope"),
	}

	require.NoError(t, warctest.WritePlain(path, records))

	r, err := warc.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.IsGzip())

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", first.TargetURI)
	assert.Equal(t, int64(0), first.MemberOffset)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b", second.TargetURI)
	assert.Equal(t, 404, second.Status)
	assert.Greater(t, second.MemberOffset, first.MemberOffset)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_TruncatedGzipMember(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "truncated.warc.gz")

	records := [][]byte{warctest.Warcinfo()}
	require.NoError(t, warctest.WriteGzip(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	truncated := filepath.Join(t.TempDir(), "short.warc.gz")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)-2], 0o600))

	r, err := warc.NewReader(truncated)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.ErrorIs(t, err, warc.ErrMalformedWarc)
}

func TestReader_MissingContentLength(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.warc")
	require.NoError(t, os.WriteFile(path, []byte("WARC/1.0\r\nWARC-Type: warcinfo\r\n\r\n\r\n\r\n"), 0o600))

	r, err := warc.NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.ErrorIs(t, err, warc.ErrMalformedWarc)
}
