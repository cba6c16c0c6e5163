// Package scheduler fans WARC indexing across a bounded worker pool and
// merges the per-file results back into the global sorted indexes.
package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/waczpack/waczpack/pkg/cdxj"
	"github.com/waczpack/waczpack/pkg/metrics"
	"github.com/waczpack/waczpack/pkg/pages"
	"github.com/waczpack/waczpack/pkg/sortedindex"
	"github.com/waczpack/waczpack/pkg/warc"
)

// Result is the merged outcome of indexing every input file.
type Result struct {
	Lines          *sortedindex.Lines
	Pages          *sortedindex.Pages
	RecordsIndexed int
}

// Run dispatches one task per input file to a pool of size workerLimit.
// Each task produces a local batch of CDXJ lines and page entries; tasks
// share no mutable state, so the pool needs no internal locking. Batches
// are merged back in input order rather than completion order, so the
// final merged result never depends on which file happened to finish
// indexing first -- required for duplicate-page first-writer-wins to be
// deterministic.
//
// On the first task failure, the shared context is cancelled: tasks not
// yet started return immediately and running tasks stop at their next
// record. All partial results are discarded and the first error is
// returned wrapped with the offending file's name.
func Run(
	ctx context.Context,
	inputs []string,
	detectPages bool,
	workerLimit int,
	idGen func() string,
	m metrics.Metrics,
) (Result, error) {
	if workerLimit <= 0 {
		workerLimit = 1
	}

	perFile := make([]fileResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit)

	for i, path := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fr, err := processFile(gctx, path, detectPages, idGen)
			if err != nil {
				return fmt.Errorf("indexing %s: %w", filepath.Base(path), err)
			}

			perFile[i] = fr

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	lines := sortedindex.NewLines()
	pg := sortedindex.NewPages()
	recordsIndexed := 0

	for _, fr := range perFile {
		lines.Merge(fr.lines)
		pg.Merge(fr.pages)
		recordsIndexed += fr.recordsIndexed
	}

	m.RecordsIndexed(recordsIndexed)

	return Result{Lines: lines, Pages: pg, RecordsIndexed: recordsIndexed}, nil
}

type fileResult struct {
	lines          *sortedindex.Lines
	pages          *sortedindex.Pages
	recordsIndexed int
}

// processFile streams one WARC file to completion, building its local
// CDXJ and page batches. Response/revisit records are paired against any
// preceding request record sharing a WARC-Concurrent-To chain, so the
// page inferrer can see the originating request method.
func processFile(ctx context.Context, path string, detectPages bool, idGen func() string) (fileResult, error) {
	r, err := warc.NewReader(path)
	if err != nil {
		return fileResult{}, err
	}
	defer r.Close()

	lines := sortedindex.NewLines()
	pg := sortedindex.NewPages()
	pendingMethods := make(map[string]string)
	recordsIndexed := 0

	for {
		if err := ctx.Err(); err != nil {
			return fileResult{}, err
		}

		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fileResult{}, err
		}

		if rec.Type == warc.TypeRequest {
			pendingMethods[rec.RecordID()] = requestMethod(rec)

			continue
		}

		if rec.Type != warc.TypeResponse && rec.Type != warc.TypeRevisit {
			continue
		}

		for _, id := range rec.ConcurrentTo() {
			if method, ok := pendingMethods[id]; ok {
				rec.RequestMethod = method

				break
			}
		}

		if rec.Type != warc.TypeResponse {
			continue
		}

		entry, ok, err := cdxj.Build(rec)
		if err != nil {
			return fileResult{}, err
		}

		if !ok {
			continue
		}

		line, err := entry.Line()
		if err != nil {
			return fileResult{}, err
		}

		lines.Insert(line)
		recordsIndexed++

		if detectPages && pages.Qualifies(rec) {
			pg.Insert(rec.TargetURI, pages.Page{
				ID:    idGen(),
				URL:   rec.TargetURI,
				Title: pages.ExtractTitle(rec.HTTPPayload),
				TS:    rec.Date.Format(time.RFC3339),
			})
		}
	}

	return fileResult{lines: lines, pages: pg, recordsIndexed: recordsIndexed}, nil
}

// requestMethod reads the HTTP method token off the front of a request
// record's payload ("GET /path HTTP/1.1...").
func requestMethod(rec *warc.Record) string {
	idx := bytes.IndexByte(rec.Payload, ' ')
	if idx <= 0 {
		return ""
	}

	return string(rec.Payload[:idx])
}
