// Package wacz orchestrates the WACZ assembly pipeline: WARC indexing,
// ZipNum sharding, page listing, streaming ZIP composition, and
// datapackage digest signing.
package wacz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/waczpack/waczpack/pkg/datapackage"
	"github.com/waczpack/waczpack/pkg/pages"
	"github.com/waczpack/waczpack/pkg/scheduler"
	"github.com/waczpack/waczpack/pkg/sink"
	"github.com/waczpack/waczpack/pkg/sortedindex"
	"github.com/waczpack/waczpack/pkg/ziparchive"
	"github.com/waczpack/waczpack/pkg/zipnum"
)

// Run is a one-shot WACZ packaging job: configure via New and AddPage,
// then call Process exactly once. A Run must not be reused afterwards;
// Process consumes the Run the way a builder consumes itself.
type Run struct {
	cfg validated

	mu          sync.Mutex
	consumed    bool
	manualPages *sortedindex.Pages
}

// New validates cfg and returns a Run ready for AddPage/Process. Any log
// sink attached to ctx (via zerolog.Ctx) is used for the warnings
// validation may emit; Process re-derives its own logger from the
// context it is given, not from this one.
func New(ctx context.Context, cfg Config) (*Run, error) {
	v, err := validateConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Run{cfg: v, manualPages: sortedindex.NewPages()}, nil
}

// AddPage registers a manually-specified page, bypassing the inferrer.
// Once any page has been added this way, automatic detection is disabled
// for the remainder of the run.
func (r *Run) AddPage(url, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg.detectPages = false
	r.manualPages.Insert(url, pages.Page{
		ID:    r.cfg.idGen(),
		URL:   url,
		Title: title,
	})
}

// Process runs the full pipeline exactly once: index WARCs, emit the
// ZipNum index, emit the page list, stream WARC bodies into the archive,
// emit the datapackage manifest and its (optionally signed) digest, then
// finalize the ZIP. Any failure aborts the run and removes partial
// output. A second call returns ErrAlreadyConsumed without touching
// anything.
func (r *Run) Process(ctx context.Context) error {
	r.mu.Lock()
	if r.consumed {
		r.mu.Unlock()

		return ErrAlreadyConsumed
	}

	r.consumed = true
	cfg := r.cfg
	manualPages := r.manualPages
	r.mu.Unlock()

	log := zerolog.Ctx(ctx)

	ctx, span := cfg.tracer.Start(ctx, "wacz.process")
	defer span.End()

	out, err := openSink(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	finished := false

	defer func() {
		if !finished {
			if abortErr := out.Abort(); abortErr != nil {
				log.Warn().Err(abortErr).Msg("failed to remove partial wacz output")
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return asCancelled(err)
	}

	schedResult, err := r.indexInputs(ctx, cfg)
	if err != nil {
		if asCancelled(err) == ErrCancelled {
			return ErrCancelled
		}

		return fmt.Errorf("%w: %w", ErrIndexingFailed, err)
	}

	zw := ziparchive.New(out)

	if err := r.emitIndexes(ctx, cfg, zw, schedResult); err != nil {
		return err
	}

	if err := r.emitPages(ctx, cfg, zw, manualPages, schedResult.Pages); err != nil {
		return err
	}

	if err := r.streamArchive(ctx, cfg, zw); err != nil {
		return err
	}

	manifestBytes, err := r.emitDatapackage(ctx, cfg, zw)
	if err != nil {
		return err
	}

	if err := r.emitDigest(ctx, cfg, zw, manifestBytes); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	cfg.metrics.BytesWritten(totalBytes(zw.Resources()))

	finished = true

	return nil
}

func openSink(cfg validated) (sink.Sink, error) {
	if cfg.sink != nil {
		return cfg.sink, nil
	}

	return sink.NewLocal(cfg.output)
}

func asCancelled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCancelled) {
		return ErrCancelled
	}

	return err
}

func (r *Run) indexInputs(ctx context.Context, cfg validated) (scheduler.Result, error) {
	ctx, span := cfg.tracer.Start(ctx, "wacz.index")
	defer span.End()

	return scheduler.Run(ctx, cfg.inputs, cfg.detectPages, cfg.workerLimit, cfg.idGen, cfg.metrics)
}

func (r *Run) emitIndexes(ctx context.Context, cfg validated, zw *ziparchive.Writer, schedResult scheduler.Result) error {
	_, span := cfg.tracer.Start(ctx, "wacz.emit_indexes")
	defer span.End()

	result, err := zipnum.Emit(schedResult.Lines.Sorted(), cfg.metrics.ShardEmitted)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if _, err := zw.WriteBytes("indexes/index.cdx.gz", result.CDXGz); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if _, err := zw.WriteBytes("indexes/index.idx", result.IDX); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return nil
}

func (r *Run) emitPages(ctx context.Context, cfg validated, zw *ziparchive.Writer, manual, inferred *sortedindex.Pages) error {
	_, span := cfg.tracer.Start(ctx, "wacz.emit_pages")
	defer span.End()

	all := sortedindex.NewPages()
	all.Merge(manual)
	all.Merge(inferred)

	var buf []byte

	buf = append(buf, pages.Header...)

	for _, v := range all.Sorted() {
		p, ok := v.(pages.Page)
		if !ok {
			continue
		}

		line, err := p.Line()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}

		buf = append(buf, line...)
	}

	if _, err := zw.WriteBytes("pages/pages.jsonl", buf); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return nil
}

func (r *Run) streamArchive(ctx context.Context, cfg validated, zw *ziparchive.Writer) error {
	_, span := cfg.tracer.Start(ctx, "wacz.stream_archive")
	defer span.End()

	for _, path := range cfg.inputs {
		if err := ctx.Err(); err != nil {
			return asCancelled(err)
		}

		if err := streamOne(zw, path); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}

	return nil
}

func streamOne(zw *ziparchive.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := "archive/" + baseName(path)

	_, err = zw.WriteEntry(name, f)

	return err
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}

	return path
}

func (r *Run) emitDatapackage(ctx context.Context, cfg validated, zw *ziparchive.Writer) ([]byte, error) {
	_, span := cfg.tracer.Start(ctx, "wacz.emit_datapackage")
	defer span.End()

	created := cfg.clock().Format(time.RFC3339)

	dp := datapackage.New(
		created,
		Software,
		cfg.title,
		cfg.description,
		cfg.mainPageURL,
		cfg.mainPageDate,
		cfg.extras,
		datapackage.Resources(zw.Resources()),
	)

	b, err := dp.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if _, err := zw.WriteBytes("datapackage.json", b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return b, nil
}

func (r *Run) emitDigest(ctx context.Context, cfg validated, zw *ziparchive.Writer, manifestBytes []byte) error {
	ctx, span := cfg.tracer.Start(ctx, "wacz.emit_digest")
	defer span.End()

	digest := datapackage.NewDigest("datapackage.json", manifestBytes)

	if cfg.signer != nil {
		signed, err := r.sign(ctx, cfg, digest.Hash)
		if err != nil {
			cfg.metrics.SignOutcome(false)

			return err
		}

		digest.SignedData = &signed
		cfg.metrics.SignOutcome(true)
	}

	b, err := digest.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := zw.WriteRaw("datapackage-digest.json", b); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return nil
}

func (r *Run) sign(ctx context.Context, cfg validated, hash string) (datapackage.SignedData, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.signerTimeout)
	defer cancel()

	created := cfg.clock().Format(time.RFC3339)

	signed, err := cfg.signer.Sign(ctx, hash, created)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return datapackage.SignedData{}, fmt.Errorf("%w: %v", ErrSignerTimeout, err)
		}

		return datapackage.SignedData{}, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	if err := signed.Validate(); err != nil {
		return datapackage.SignedData{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	return signed, nil
}

func totalBytes(resources []ziparchive.Resource) int64 {
	var n int64
	for _, r := range resources {
		n += r.Bytes
	}

	return n
}
