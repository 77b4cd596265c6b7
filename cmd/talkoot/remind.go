package main

import (
	"context"

	"github.com/harava/talkoot/internal/app"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminders for upcoming events",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			sent, err := a.Reminder.Run(ctx)
			if err != nil {
				return err
			}
			log.Info().Int("sent", sent).Msg("reminders sent")
			return nil
		})
	},
}
