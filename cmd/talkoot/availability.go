package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/harava/talkoot/internal/app"
	"github.com/harava/talkoot/internal/events"
	"github.com/harava/talkoot/internal/export"
	"github.com/harava/talkoot/internal/zones"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	lat     float64
	lon     float64
	icsPath string
)

var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Show the contract zone of a location and its unavailable dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			zone, dates, err := a.Availability(ctx, lon, lat)
			if err != nil {
				return err
			}
			if zone == nil {
				return events.ErrLocationOutsideAnyZone
			}

			view := zones.NewView(zone, false, nil, nil).WithUnavailableDates(events.FormatDates(dates))
			out, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if icsPath != "" {
				calendar := export.UnavailableCalendar(zone, dates, a.Now())
				if err := os.WriteFile(icsPath, []byte(calendar), 0644); err != nil {
					return err
				}
				log.Info().Str("path", icsPath).Msg("wrote calendar")
			}
			return nil
		})
	},
}

func init() {
	availabilityCmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of the event location.")
	availabilityCmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of the event location.")
	availabilityCmd.Flags().StringVar(&icsPath, "ics", "", "Write the unavailable dates as an iCalendar file.")
	availabilityCmd.MarkFlagRequired("lat")
	availabilityCmd.MarkFlagRequired("lon")
}
