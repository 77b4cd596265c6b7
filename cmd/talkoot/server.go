package main

import (
	"context"

	"github.com/harava/talkoot/internal/app"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the proposal consumer and the scheduled jobs",
	Long: `Consume event proposals from RabbitMQ, import contract zones and send reminders
on their schedules, and expose Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return a.Serve(ctx)
		})
	},
}
