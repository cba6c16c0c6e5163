// Command waczpack packages WARC files into a WACZ bundle.
package main

import (
	"context"
	"log"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/waczpack/waczpack/cmd/waczpack/internal/cli"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var logger zerolog.Logger

	if term.IsTerminal(int(os.Stdout.Fd())) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: colorable.NewColorableStdout()})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	logger = logger.With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	cmd := cli.New()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Printf("error running waczpack: %s", err)

		return 1
	}

	return 0
}
