package scheduler_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waczpack/waczpack/pkg/metrics"
	"github.com/waczpack/waczpack/pkg/scheduler"
	"github.com/waczpack/waczpack/pkg/warctest"
)

func sequentialIDGen() func() string {
	n := 0

	return func() string {
		n++

		return fmt.Sprintf("id-%d", n)
	}
}

func TestRun_MergesAcrossFilesInInputOrder(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 2, 22, 12, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	fileA := filepath.Join(dir, "a.warc.gz")
	fileB := filepath.Join(dir, "b.warc.gz")

	require.NoError(t, warctest.WriteGzip(fileA, [][]byte{
		warctest.Response("https://a.example.com/", ts, 200, "text/html", "<html><title>A</title></html>"),
	}))
	require.NoError(t, warctest.WriteGzip(fileB, [][]byte{
		warctest.Response("https://b.example.com/", ts, 200, "text/html", "<html><title>B</title></html>"),
	}))

	result, err := scheduler.Run(context.Background(), []string{fileA, fileB}, true, 2, sequentialIDGen(), metrics.NoOp{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordsIndexed)
	assert.Equal(t, 2, result.Lines.Len())
	assert.Equal(t, 2, result.Pages.Len())
}

func TestRun_DetectPagesDisabledSkipsInference(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 2, 22, 12, 0, 0, 0, time.UTC)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.warc.gz")

	require.NoError(t, warctest.WriteGzip(path, [][]byte{
		warctest.Response("https://a.example.com/", ts, 200, "text/html", "<html><title>A</title></html>"),
	}))

	result, err := scheduler.Run(context.Background(), []string{path}, false, 1, sequentialIDGen(), metrics.NoOp{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RecordsIndexed)
	assert.Equal(t, 0, result.Pages.Len())
}

func TestRun_MissingFilePropagatesError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := filepath.Join(dir, "does-not-exist.warc.gz")

	_, err := scheduler.Run(context.Background(), []string{missing}, true, 1, sequentialIDGen(), metrics.NoOp{})
	assert.Error(t, err)
}

func TestRun_PairsRequestMethodForPageQualification(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 2, 22, 12, 0, 0, 0, time.UTC)
	dir := t.TempDir()
	path := filepath.Join(dir, "paired.warc.gz")

	requestID := warctest.NewRecordID()

	require.NoError(t, warctest.WriteGzip(path, [][]byte{
		warctest.Request("https://a.example.com/", "POST", ts, requestID),
		warctest.ResponsePaired("https://a.example.com/", ts, 200, "text/html", "<html></html>", requestID),
	}))

	result, err := scheduler.Run(context.Background(), []string{path}, true, 1, sequentialIDGen(), metrics.NoOp{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RecordsIndexed)
	assert.Equal(t, 0, result.Pages.Len(), "POST-paired response should not qualify as a page")
}
