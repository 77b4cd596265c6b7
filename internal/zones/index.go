package zones

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-geos"
)

// Index is an in-memory snapshot of the contract zones answering
// point lookups without a database round trip.
type Index struct {
	mu sync.RWMutex

	zones []*Zone // Ordered by ID
}

func NewIndex(zones []*Zone) *Index {
	index := &Index{}
	index.Load(zones)
	return index
}

// Load replaces the indexed zones.
func (index *Index) Load(zones []*Zone) {
	sorted := make([]*Zone, len(zones))
	copy(sorted, zones)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	index.mu.Lock()
	defer index.mu.Unlock()

	index.zones = sorted
}

// Refresh reloads the index from the store.
func (index *Index) Refresh(ctx context.Context, store interface {
	All(ctx context.Context) ([]*Zone, error)
}) error {
	zones, err := store.All(ctx)
	if err != nil {
		return err
	}
	index.Load(zones)

	log.Debug().Int("size", len(zones)).Msg("loaded contract zones")

	return nil
}

// FindCovering returns the first zone by ID whose boundary covers the point.
// A point exactly on a boundary edge counts as covered.
func (index *Index) FindCovering(ctx context.Context, point *geos.Geom, activeOnly bool) (*Zone, error) {
	index.mu.RLock()
	defer index.mu.RUnlock()

	for _, zone := range index.zones {
		if activeOnly && !zone.Active {
			continue
		}
		if zone.Covers(point) {
			return zone, nil
		}
	}

	return nil, nil
}

// Get returns the zone with the given ID, or nil.
func (index *Index) Get(id int) *Zone {
	index.mu.RLock()
	defer index.mu.RUnlock()

	for _, zone := range index.zones {
		if zone.ID == id {
			return zone
		}
	}

	return nil
}

func (index *Index) Len() int {
	index.mu.RLock()
	defer index.mu.RUnlock()

	return len(index.zones)
}
