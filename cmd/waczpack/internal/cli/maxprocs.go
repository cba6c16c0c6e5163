package cli

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"
)

// autoMaxProcs aligns GOMAXPROCS with any container CPU quota before the
// indexing worker pool is sized, so a packaging job running in a cgroup
// does not fan out one worker per host core. A one-shot run has no need
// to re-check the quota, so this sets it once instead of polling.
func autoMaxProcs(ctx context.Context) {
	log := zerolog.Ctx(ctx)

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug().Msgf(format, args...)
	}))
	if err != nil {
		undo()
		log.Warn().Err(err).Msg("failed to set GOMAXPROCS from CPU quota")
	}
}
