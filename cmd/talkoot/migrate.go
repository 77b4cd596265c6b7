package main

import (
	"context"

	"github.com/harava/talkoot/internal/app"
	"github.com/harava/talkoot/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return db.Migrate(ctx, a.DB())
		})
	},
}
