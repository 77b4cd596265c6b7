package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// cronLogger writes cron's own messages through zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Job is a named task run by the scheduler.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// NewScheduler registers the jobs on a cron scheduler in the given location.
// A job still running when its next turn comes is skipped.
func NewScheduler(ctx context.Context, loc *time.Location, jobs ...Job) (*cron.Cron, error) {
	logger := cronLogger{logger: log.With().Str("component", "cron").Logger()}

	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	for _, job := range jobs {
		job := job
		_, err := scheduler.AddFunc(job.Schedule, func() {
			log := log.With().Str("job", job.Name).Logger()
			start := time.Now()
			if err := job.Run(ctx); err != nil {
				log.Error().Err(err).Msg("job failed")
				return
			}
			log.Info().Dur("took", time.Since(start)).Msg("job finished")
		})
		if err != nil {
			return nil, err
		}
	}

	return scheduler, nil
}
