package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TIME_ZONE", "EVENT_MINIMUM_DAYS_BEFORE_START", "EVENT_MAXIMUM_COUNT_PER_CONTRACT_ZONE",
		"EVENT_REMINDER_DAYS_IN_ADVANCE", "WFS_BASE_URL", "WFS_TYPENAME", "WFS_FILTER", "IMPORT_CRON",
	} {
		t.Setenv(key, "")
	}

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Europe/Helsinki", config.TimeZone.String())
	assert.Equal(t, DefaultWFSBaseURL, config.WFSBaseURL)
	assert.Equal(t, DefaultWFSTypeName, config.WFSTypeName)
	assert.Equal(t, "0 3 * * *", config.ImportCron)

	policy := config.Policy()
	assert.Equal(t, 7, policy.MinLeadDays)
	assert.Equal(t, 3, policy.MaxEventsPerDay)
	assert.Equal(t, 2, policy.ReminderDays)
	assert.Equal(t, config.TimeZone, policy.Location)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIME_ZONE", "UTC")
	t.Setenv("EVENT_MINIMUM_DAYS_BEFORE_START", "3")
	t.Setenv("EVENT_MAXIMUM_COUNT_PER_CONTRACT_ZONE", "2")
	t.Setenv("DATABASE_URL", "postgres://localhost/talkoot")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "UTC", config.TimeZone.String())
	assert.Equal(t, 3, config.MinimumDaysBeforeStart)
	assert.Equal(t, 2, config.MaximumCountPerZone)
	assert.Equal(t, "postgres://localhost/talkoot", config.DatabaseURL)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("EVENT_MAXIMUM_COUNT_PER_CONTRACT_ZONE", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "EVENT_MAXIMUM_COUNT_PER_CONTRACT_ZONE")

	t.Setenv("EVENT_MAXIMUM_COUNT_PER_CONTRACT_ZONE", "many")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("EVENT_MAXIMUM_COUNT_PER_CONTRACT_ZONE", "")
	t.Setenv("TIME_ZONE", "Mars/Olympus")
	_, err = Load()
	assert.ErrorContains(t, err, "TIME_ZONE")
}
