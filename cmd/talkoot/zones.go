package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/harava/talkoot/internal/app"
	"github.com/harava/talkoot/internal/users"
	"github.com/spf13/cobra"
)

var (
	year   int
	userID string
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List contract zones with their unavailable dates",
	Long: `List every contract zone. With --user set to an official's UUID the contact
details and the event statistics of --year are included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			var user *users.User
			if userID != "" {
				id, err := uuid.Parse(userID)
				if err != nil {
					return err
				}
				user, err = a.Users.GetByUUID(ctx, id)
				if err != nil {
					return err
				}
				if user == nil {
					return fmt.Errorf("user %s not found", id)
				}
			}

			if year == 0 {
				year = a.Now().Year()
			}

			views, err := a.ZoneViews(ctx, user, year)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(views, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		})
	},
}

func init() {
	zonesCmd.Flags().IntVar(&year, "year", 0, "The year of the statistics. Defaults to the current year.")
	zonesCmd.Flags().StringVar(&userID, "user", "", "UUID of the user viewing the zones.")
}
