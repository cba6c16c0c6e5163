package wacz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/waczpack/waczpack/pkg/datapackage"
	"github.com/waczpack/waczpack/pkg/metrics"
	"github.com/waczpack/waczpack/pkg/sink"
	"github.com/waczpack/waczpack/pkg/tracing"
)

// Software identifies this implementation in datapackage.json.
const Software = "waczpack 0.1.0"

var warcExtensions = []string{".warc", ".warc.gz"}

// Config is the set of inputs accepted by the core, per the external
// interface's configuration table.
type Config struct {
	// Inputs is the list of WARC paths, required, filtered to .warc/.warc.gz.
	Inputs []string
	// Output is the destination path, required, overwritten if it exists.
	// Ignored when Sink is set.
	Output string

	// NoDetectPages disables the page inferrer. Page detection is on by
	// default, matching the core's documented default.
	NoDetectPages bool

	URL         string
	TS          string
	Title       string
	Description string

	Signer            datapackage.Signer
	DatapackageExtras map[string]any

	// Sink overrides the default local-file output destination.
	Sink sink.Sink
	// Metrics is an optional collector; defaults to a no-op.
	Metrics metrics.Metrics
	// Tracer is an optional span emitter; defaults to a no-op.
	Tracer tracing.Tracer
	// WorkerLimit overrides the indexing pool size; defaults to
	// min(runtime.GOMAXPROCS(0), len(Inputs)).
	WorkerLimit int

	// SignerTimeout bounds the digest-signing call; defaults to 30s.
	SignerTimeout time.Duration

	// Clock and IDGen are injected for deterministic output; both default
	// to wall-clock time and random UUIDs.
	Clock Clock
	IDGen IDGen
}

// validated is the post-validation, defaulted form of Config consumed by
// Process.
type validated struct {
	inputs            []string
	output            string
	detectPages       bool
	mainPageURL       string
	mainPageDate      string
	title             string
	description       string
	signer            datapackage.Signer
	extras            map[string]any
	sink              sink.Sink
	metrics           metrics.Metrics
	tracer            tracing.Tracer
	workerLimit       int
	signerTimeout     time.Duration
	clock             Clock
	idGen             IDGen
}

func validateConfig(ctx context.Context, cfg Config) (validated, error) {
	log := zerolog.Ctx(ctx)

	inputs := filterWarcInputs(cfg.Inputs)
	if len(inputs) == 0 {
		return validated{}, ErrInputNotFound
	}

	if cfg.Sink == nil {
		output := strings.TrimSpace(cfg.Output)
		if output == "" {
			log.Error().Msg("output is required when no sink is configured")

			return validated{}, fmt.Errorf("%w: output is required", ErrConfigInvalid)
		}

		if !strings.HasSuffix(strings.ToLower(output), ".wacz") {
			log.Error().Str("output", output).Msg("output must end in .wacz")

			return validated{}, fmt.Errorf("%w: output %q must end in .wacz", ErrConfigInvalid, output)
		}
	}

	v := validated{
		inputs:        inputs,
		output:        cfg.Output,
		detectPages:   true,
		title:         strings.TrimSpace(cfg.Title),
		description:   strings.TrimSpace(cfg.Description),
		signer:        cfg.Signer,
		sink:          cfg.Sink,
		metrics:       cfg.Metrics,
		tracer:        cfg.Tracer,
		workerLimit:   cfg.WorkerLimit,
		signerTimeout: cfg.SignerTimeout,
		clock:         cfg.Clock,
		idGen:         cfg.IDGen,
	}

	if cfg.DatapackageExtras != nil {
		if _, err := jsonRoundTrip(cfg.DatapackageExtras); err != nil {
			log.Warn().Err(err).Msg("datapackage extras are not JSON-serializable, dropping")
		} else {
			v.extras = cfg.DatapackageExtras
		}
	}

	v.detectPages = !cfg.NoDetectPages

	if cfg.URL != "" {
		if u, err := url.Parse(cfg.URL); err == nil && u.IsAbs() {
			v.mainPageURL = cfg.URL
		} else {
			log.Warn().Str("url", cfg.URL).Msg("invalid mainPageUrl, dropping")
		}
	}

	if cfg.TS != "" {
		if _, err := time.Parse(time.RFC3339, cfg.TS); err == nil {
			v.mainPageDate = cfg.TS
		} else {
			log.Warn().Str("ts", cfg.TS).Msg("invalid mainPageDate, dropping")
		}
	}

	if v.sink == nil {
		if !filepath.IsAbs(v.output) {
			abs, err := filepath.Abs(v.output)
			if err != nil {
				return validated{}, fmt.Errorf("%w: resolving output path: %v", ErrConfigInvalid, err)
			}

			v.output = abs
		}
	}

	if v.metrics == nil {
		v.metrics = metrics.NoOp{}
	}

	if v.workerLimit <= 0 {
		v.workerLimit = len(v.inputs)
		// GOMAXPROCS rather than NumCPU so a container CPU quota applied
		// by the caller (automaxprocs in cmd/waczpack) is honored.
		if n := runtime.GOMAXPROCS(0); n < v.workerLimit {
			v.workerLimit = n
		}
	}

	if v.signerTimeout <= 0 {
		v.signerTimeout = 30 * time.Second
	}

	if v.clock == nil {
		v.clock = defaultClock
	}

	if v.idGen == nil {
		v.idGen = defaultIDGen
	}

	return v, nil
}

func jsonRoundTrip(v map[string]any) ([]byte, error) {
	return json.Marshal(v)
}

func filterWarcInputs(inputs []string) []string {
	out := make([]string, 0, len(inputs))

	for _, in := range inputs {
		lower := strings.ToLower(in)
		for _, ext := range warcExtensions {
			if strings.HasSuffix(lower, ext) {
				out = append(out, in)

				break
			}
		}
	}

	return out
}
