// Package cli wires the waczpack core (pkg/wacz) behind a urfave/cli/v3
// front-end: glob expansion, log-level selection and signer/sink
// selection all live here, outside the core, per the core's documented
// boundary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/waczpack/waczpack/pkg/signer/httpsign"
	"github.com/waczpack/waczpack/pkg/sink"
	"github.com/waczpack/waczpack/pkg/wacz"
)

// Version is set with -ldflags at build time.
//
//nolint:gochecknoglobals
var Version = "dev"

// ErrNoInputsMatched is returned when no --input pattern was given. A
// pattern that matches no file is passed on literally, not dropped.
var ErrNoInputsMatched = errors.New("no input files matched the given globs")

// New returns the waczpack root command.
func New() *cli.Command {
	return &cli.Command{
		Name:    "waczpack",
		Usage:   "package WARC files into a WACZ bundle",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "WARC file or glob; repeatable",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "destination .wacz path; ignored when --sink is s3://...",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "datapackage title",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "datapackage description",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "main page URL",
			},
			&cli.StringFlag{
				Name:  "ts",
				Usage: "main page timestamp, RFC3339",
			},
			&cli.BoolFlag{
				Name:  "no-detect-pages",
				Usage: "disable automatic page detection",
			},
			&cli.StringFlag{
				Name:  "signer-url",
				Usage: "authsign-style endpoint to sign the datapackage digest",
			},
			&cli.DurationFlag{
				Name:  "signer-timeout",
				Usage: "deadline for the signing call",
				Value: httpsign.DefaultTimeout,
			},
			&cli.StringFlag{
				Name:  "sink",
				Usage: `output sink: "local" (default) or "s3://bucket/key"`,
				Value: "local",
			},
			&cli.StringFlag{
				Name:  "s3-endpoint",
				Usage: "S3-compatible endpoint host:port, required when --sink is s3://...",
			},
			&cli.StringFlag{
				Name:  "s3-access-key-id",
				Usage: "S3 access key ID",
			},
			&cli.StringFlag{
				Name:  "s3-secret-access-key",
				Usage: "S3 secret access key",
			},
			&cli.BoolFlag{
				Name:  "s3-use-ssl",
				Usage: "use TLS when talking to the S3 endpoint",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "otel-enabled",
				Usage: "emit per-stage traces to stdout via OpenTelemetry",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this host:port for the duration of the run",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "set the log level",
				Value: "info",
				Validator: func(lvl string) error {
					_, err := zerolog.ParseLevel(lvl)

					return err
				},
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			lvl, err := zerolog.ParseLevel(cmd.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("parsing log-level: %w", err)
			}

			logger := zerolog.Ctx(ctx).Level(lvl)

			return logger.WithContext(ctx), nil
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log := zerolog.Ctx(ctx)

	autoMaxProcs(ctx)

	inputs, err := expandGlobs(cmd.StringSlice("input"))
	if err != nil {
		return err
	}

	cfg := wacz.Config{
		Inputs:        inputs,
		Output:        cmd.String("output"),
		NoDetectPages: cmd.Bool("no-detect-pages"),
		URL:           cmd.String("url"),
		TS:            cmd.String("ts"),
		Title:         cmd.String("title"),
		Description:   cmd.String("description"),
		SignerTimeout: cmd.Duration("signer-timeout"),
	}

	if signerURL := cmd.String("signer-url"); signerURL != "" {
		cfg.Signer = httpsign.New(signerURL, cmd.Duration("signer-timeout"))
	}

	tel, err := setupTelemetry(ctx, cmd)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	defer func() {
		if err := tel.shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	cfg.Tracer = tel.tracer
	cfg.Metrics = tel.metrics

	out, err := resolveSink(ctx, cmd)
	if err != nil {
		return err
	}

	cfg.Sink = out

	run, err := wacz.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configuring run: %w", err)
	}

	log.Info().Strs("inputs", inputs).Str("output", cfg.Output).Msg("packaging wacz")

	if err := run.Process(ctx); err != nil {
		return fmt.Errorf("packaging wacz: %w", err)
	}

	log.Info().Msg("wacz packaged successfully")

	return nil
}

// resolveSink returns nil (use the core's default LocalSink) unless
// --sink names an s3://bucket/key destination.
func resolveSink(ctx context.Context, cmd *cli.Command) (sink.Sink, error) {
	target := cmd.String("sink")
	if target == "" || target == "local" {
		return nil, nil //nolint:nilnil // nil tells the core to use its default LocalSink.
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(target, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid --sink %q, expected s3://bucket/key", target)
	}

	client, err := minio.New(cmd.String("s3-endpoint"), &minio.Options{
		Creds:  credentials.NewStaticV4(cmd.String("s3-access-key-id"), cmd.String("s3-secret-access-key"), ""),
		Secure: cmd.Bool("s3-use-ssl"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}

	return sink.NewS3(ctx, client, bucket, key, -1), nil
}

func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})

	var out []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding glob %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			matches = []string{pattern}
		}

		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}

			seen[m] = struct{}{}
			out = append(out, m)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoInputsMatched
	}

	return out, nil
}
