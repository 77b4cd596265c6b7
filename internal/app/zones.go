package app

import (
	"context"
	"time"

	"github.com/harava/talkoot/internal/users"
	"github.com/harava/talkoot/internal/zones"
)

// Locator returns the in-memory zone index, loading it on first use. Writes
// keep resolving zones through the database inside their transaction.
func (app *App) Locator(ctx context.Context) (*zones.Index, error) {
	if app.Index.Len() == 0 {
		if err := app.Index.Refresh(ctx, app.Zones); err != nil {
			return nil, err
		}
	}
	return app.Index, nil
}

// Availability finds the active zone covering the point and its unavailable
// dates as of today. It returns nil when no active zone covers the point.
func (app *App) Availability(ctx context.Context, lon, lat float64) (*zones.Zone, []time.Time, error) {
	locator, err := app.Locator(ctx)
	if err != nil {
		return nil, nil, err
	}
	zone, err := locator.FindCovering(ctx, zones.Point(lon, lat), true)
	if err != nil || zone == nil {
		return nil, nil, err
	}
	dates, err := app.Engine.Dates(ctx, zone, app.Now())
	if err != nil {
		return nil, nil, err
	}
	return zone, dates, nil
}

// ZoneViews lists every zone as the given user is allowed to see it, with the
// statistics of year for officials.
func (app *App) ZoneViews(ctx context.Context, user *users.User, year int) ([]zones.View, error) {
	all, err := app.Zones.All(ctx)
	if err != nil {
		return nil, err
	}
	app.Index.Load(all)

	detailed := users.CanViewZoneDetails(user)

	var stats map[int]zones.Stats
	if detailed {
		stats, err = app.Zones.YearStats(ctx, year, app.Config.TimeZone)
		if err != nil {
			return nil, err
		}
	}

	now := app.Now()
	views := make([]zones.View, 0, len(all))
	for _, zone := range all {
		var (
			contractor *zones.Person
			zoneStats  *zones.Stats
		)
		if detailed {
			contractor, err = app.contractor(ctx, zone)
			if err != nil {
				return nil, err
			}
			s := stats[zone.ID]
			zoneStats = &s
		}

		view := zones.NewView(zone, detailed, contractor, zoneStats)
		if zone.Active {
			dates, err := app.Engine.UnavailableDates(ctx, zone, now)
			if err != nil {
				return nil, err
			}
			view = view.WithUnavailableDates(dates)
		}
		views = append(views, view)
	}
	return views, nil
}

func (app *App) contractor(ctx context.Context, zone *zones.Zone) (*zones.Person, error) {
	contractors, err := app.Users.Contractors(ctx, zone.ID)
	if err != nil || len(contractors) == 0 {
		return nil, err
	}
	c := contractors[0]
	return &zones.Person{FirstName: c.FirstName, LastName: c.LastName, Email: c.Email}, nil
}
