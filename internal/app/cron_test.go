package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context) error { return nil }

func TestNewScheduler(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	scheduler, err := NewScheduler(context.Background(), helsinki,
		Job{Name: "import", Schedule: "0 3 * * *", Run: noop},
		Job{Name: "reminders", Schedule: "0 8 * * *", Run: noop},
	)
	require.NoError(t, err)
	assert.Len(t, scheduler.Entries(), 2)
	assert.Equal(t, helsinki, scheduler.Location())
}

func TestNewSchedulerInvalidSchedule(t *testing.T) {
	_, err := NewScheduler(context.Background(), time.UTC, Job{Name: "broken", Schedule: "every day", Run: noop})
	assert.Error(t, err)
}
