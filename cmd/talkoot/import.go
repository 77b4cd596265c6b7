package main

import (
	"context"

	"github.com/harava/talkoot/internal/app"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import contract zones from the WFS feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			importer, err := a.Importer(ctx)
			if err != nil {
				return err
			}
			report, err := importer.Run(ctx)
			if err != nil {
				return err
			}
			for _, message := range report.Messages(zerolog.WarnLevel) {
				log.Warn().Msg(message)
			}
			for _, message := range report.Messages(zerolog.ErrorLevel) {
				log.Error().Msg(message)
			}
			return nil
		})
	},
}
