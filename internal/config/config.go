package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/harava/talkoot/internal/events"
)

const (
	DefaultWFSBaseURL  = "https://kartta.hel.fi/ws/geoserver/avoindata/wfs"
	DefaultWFSTypeName = "avoindata:Vastuualue_rya_urakkarajat"
	DefaultWFSFilter   = "tehtavakokonaisuus='PUISTO' and status='voimassa'"
)

type Config struct {
	DatabaseURL  string
	RabbitURL    string
	KafkaBrokers string

	TimeZone               *time.Location
	MinimumDaysBeforeStart int
	MaximumCountPerZone    int
	ReminderDaysInAdvance  int

	WFSBaseURL  string
	WFSTypeName string
	WFSFilter   string

	ImportCron   string
	ReminderCron string
	MetricsAddr  string

	ArchiveBucket string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	config := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RabbitURL:     os.Getenv("RABBIT_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		WFSBaseURL:    getenv("WFS_BASE_URL", DefaultWFSBaseURL),
		WFSTypeName:   getenv("WFS_TYPENAME", DefaultWFSTypeName),
		WFSFilter:     getenv("WFS_FILTER", DefaultWFSFilter),
		ImportCron:    getenv("IMPORT_CRON", "0 3 * * *"),
		ReminderCron:  getenv("REMINDER_CRON", "0 8 * * *"),
		MetricsAddr:   getenv("METRICS_ADDR", ":9090"),
		ArchiveBucket: os.Getenv("ARCHIVE_BUCKET"),
	}

	var err error
	config.TimeZone, err = time.LoadLocation(getenv("TIME_ZONE", "Europe/Helsinki"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE: %w", err)
	}

	if config.MinimumDaysBeforeStart, err = getint("EVENT_MINIMUM_DAYS_BEFORE_START", 7, 0); err != nil {
		return nil, err
	}
	if config.MaximumCountPerZone, err = getint("EVENT_MAXIMUM_COUNT_PER_CONTRACT_ZONE", 3, 1); err != nil {
		return nil, err
	}
	if config.ReminderDaysInAdvance, err = getint("EVENT_REMINDER_DAYS_IN_ADVANCE", 2, 0); err != nil {
		return nil, err
	}

	return config, nil
}

// Policy returns the booking rules of the configuration.
func (config *Config) Policy() events.Policy {
	return events.Policy{
		MinLeadDays:     config.MinimumDaysBeforeStart,
		MaxEventsPerDay: config.MaximumCountPerZone,
		ReminderDays:    config.ReminderDaysInAdvance,
		Location:        config.TimeZone,
	}
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getint(key string, fallback int, min int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < min {
		return 0, fmt.Errorf("invalid %s: must be at least %d", key, min)
	}

	return n, nil
}
