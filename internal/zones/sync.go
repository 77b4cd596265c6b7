package zones

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-geos"
)

// Record is one contract zone as delivered by the import feed.
type Record struct {
	OriginID   string
	Name       string
	Boundary   *geos.Geom
	Contractor string
	Active     bool
}

// Column limits of zones.contract_zones.
const (
	maxOriginIDLength = 50
	maxTextLength     = 255
)

// Validate checks the record is usable before it touches the database.
func (record Record) Validate() error {
	if record.OriginID == "" {
		return fmt.Errorf("record has no origin id")
	}
	if utf8.RuneCountInString(record.OriginID) > maxOriginIDLength {
		return fmt.Errorf("record origin id %.20s... is longer than %d characters", record.OriginID, maxOriginIDLength)
	}
	if utf8.RuneCountInString(record.Name) > maxTextLength {
		return fmt.Errorf("record %s name is longer than %d characters", record.OriginID, maxTextLength)
	}
	if utf8.RuneCountInString(record.Contractor) > maxTextLength {
		return fmt.Errorf("record %s contractor is longer than %d characters", record.OriginID, maxTextLength)
	}
	if record.Boundary == nil || record.Boundary.IsEmpty() {
		return fmt.Errorf("record %s has no boundary", record.OriginID)
	}
	switch record.Boundary.TypeID() {
	case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
	default:
		return fmt.Errorf("record %s boundary is a %s, not a polygon", record.OriginID, record.Boundary.Type())
	}
	if !record.Boundary.IsValid() {
		return fmt.Errorf("record %s boundary is not a valid polygon", record.OriginID)
	}
	return nil
}

// Repository is what the sync needs from zone storage.
type Repository interface {
	All(ctx context.Context) ([]*Zone, error)
	Upsert(ctx context.Context, record Record) (id int, created bool, err error)
	Deactivate(ctx context.Context, ids []int) (int64, error)
}

// SyncReport collects the outcome of one import run.
type SyncReport struct {
	Created     int
	Updated     int
	Deactivated int
	errors      map[zerolog.Level][]string
}

// NewSyncReport returns an empty report.
func NewSyncReport() *SyncReport {
	return &SyncReport{
		errors: map[zerolog.Level][]string{
			zerolog.WarnLevel:  {},
			zerolog.ErrorLevel: {},
		},
	}
}

func (report *SyncReport) Warn(msg string) {
	report.errors[zerolog.WarnLevel] = append(report.errors[zerolog.WarnLevel], msg)
}

func (report *SyncReport) Error(msg string) {
	report.errors[zerolog.ErrorLevel] = append(report.errors[zerolog.ErrorLevel], msg)
}

// Skipped is the number of records that could not be imported.
func (report *SyncReport) Skipped() int {
	return len(report.errors[zerolog.ErrorLevel])
}

// Messages returns the collected messages of the given level.
func (report *SyncReport) Messages(level zerolog.Level) []string {
	return report.errors[level]
}

// Sync upserts every record by origin ID and deactivates the zones missing
// from the feed. Zones are never deleted. Malformed records are logged and
// skipped without aborting the run.
func Sync(ctx context.Context, repo Repository, records []Record) (*SyncReport, error) {
	existing, err := repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing contract zones: %w", err)
	}

	unseen := make(map[string]*Zone, len(existing))
	for _, zone := range existing {
		unseen[zone.OriginID] = zone
	}

	report := NewSyncReport()
	seen := make(map[string]bool, len(records))

	for _, record := range records {
		logger := log.With().Str("origin_id", record.OriginID).Str("name", record.Name).Logger()

		if err := record.Validate(); err != nil {
			logger.Warn().Err(err).Msg("skipping malformed contract zone")
			report.Error(err.Error())
			continue
		}

		if seen[record.OriginID] {
			logger.Warn().Msg("duplicate origin id in feed, last one wins")
			report.Warn(fmt.Sprintf("duplicate origin id %s in feed", record.OriginID))
		}
		seen[record.OriginID] = true

		_, created, err := repo.Upsert(ctx, record)
		if err != nil {
			logger.Error().Err(err).Msg("failed to upsert contract zone")
			report.Error(err.Error())
			continue
		}
		delete(unseen, record.OriginID)

		if created {
			logger.Info().Msg("created new contract zone")
			report.Created++
		} else {
			logger.Info().Msg("updated contract zone")
			report.Updated++
		}
	}

	ids := []int{}
	for _, zone := range unseen {
		if zone.Active {
			log.Info().Str("origin_id", zone.OriginID).Str("name", zone.Name).Msg("deactivating contract zone")
			ids = append(ids, zone.ID)
		}
	}
	deactivated, err := repo.Deactivate(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("failed to deactivate contract zones: %w", err)
	}
	report.Deactivated = int(deactivated)

	return report, nil
}
