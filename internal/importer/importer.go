package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harava/talkoot/internal/health"
	"github.com/harava/talkoot/internal/wfs"
	"github.com/harava/talkoot/internal/zones"
	"github.com/rs/zerolog/log"
)

const feedName = "contract-zones"

var ErrEmptyFeed = errors.New("feed contained no usable contract zones")

type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type Archiver interface {
	Store(ctx context.Context, feed string, at time.Time, data []byte) (string, error)
}

type Syncer interface {
	Sync(ctx context.Context, records []zones.Record) (*zones.SyncReport, error)
	CountActive(ctx context.Context) (int, error)
}

// Importer keeps the contract zones in line with the city's WFS feed.
type Importer struct {
	feed    Fetcher
	archive Archiver
	zones   Syncer
	health  *health.Health
	now     func() time.Time
}

// New creates an importer. archive and health may be nil.
func New(feed Fetcher, archive Archiver, zones Syncer, health *health.Health) *Importer {
	return &Importer{
		feed:    feed,
		archive: archive,
		zones:   zones,
		health:  health,
		now:     time.Now,
	}
}

// Run fetches the feed and syncs the zones. A feed without a single usable
// zone is rejected so a broken download never deactivates every zone.
func (importer *Importer) Run(ctx context.Context) (*zones.SyncReport, error) {
	report, err := importer.run(ctx)
	if err != nil && importer.health != nil {
		importer.health.ImportsFailed.Inc()
	}
	return report, err
}

func (importer *Importer) run(ctx context.Context) (*zones.SyncReport, error) {
	log.Info().Msg("importing contract zones")

	data, err := importer.feed.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	if importer.archive != nil {
		key, err := importer.archive.Store(ctx, feedName, importer.now(), data)
		if err != nil {
			log.Error().Err(err).Msg("failed to archive contract zone feed")
		} else {
			log.Debug().Str("key", key).Msg("archived contract zone feed")
		}
	}

	records, errs := wfs.Parse(data)
	for _, err := range errs {
		log.Warn().Err(err).Msg("skipping malformed feature")
	}
	if len(records) == 0 {
		return nil, ErrEmptyFeed
	}

	report, err := importer.zones.Sync(ctx, records)
	if err != nil {
		return report, fmt.Errorf("failed to sync contract zones: %w", err)
	}
	for _, err := range errs {
		report.Error(err.Error())
	}

	if importer.health != nil {
		active, err := importer.zones.CountActive(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to count active contract zones")
		} else {
			importer.health.ZonesActive.Set(float64(active))
		}
	}

	log.Info().
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("deactivated", report.Deactivated).
		Int("skipped", report.Skipped()).
		Msg("contract zone import done")

	return report, nil
}
