package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/harava/talkoot/internal/intake"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Jobs are the periodic tasks of the server.
func (app *App) Jobs() []Job {
	return []Job{
		{
			Name:     "import",
			Schedule: app.Config.ImportCron,
			Run: func(ctx context.Context) error {
				importer, err := app.Importer(ctx)
				if err != nil {
					return err
				}
				if _, err := importer.Run(ctx); err != nil {
					return err
				}
				return app.Index.Refresh(ctx, app.Zones)
			},
		},
		{
			Name:     "reminders",
			Schedule: app.Config.ReminderCron,
			Run: func(ctx context.Context) error {
				_, err := app.Reminder.Run(ctx)
				return err
			},
		},
	}
}

// Serve runs the scheduler, the metrics endpoint and, with RabbitMQ
// configured, the proposal consumer until ctx is cancelled.
func (app *App) Serve(ctx context.Context) error {
	scheduler, err := NewScheduler(ctx, app.Config.TimeZone, app.Jobs()...)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metrics := &http.Server{Addr: app.Config.MetricsAddr, Handler: mux}
	go func() {
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	defer func() {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metrics.Shutdown(shutdown)
	}()

	if app.channel != nil {
		handler := intake.NewHandler(app.Service, app.Users)
		server := intake.NewServer(app.channel, handler, app.Health)
		go func() {
			if err := server.Run(ctx); err != nil {
				log.Error().Err(err).Msg("proposal consumer stopped")
			}
		}()
	}

	log.Info().Str("metrics", app.Config.MetricsAddr).Msg("server started")
	<-ctx.Done()
	log.Warn().Msg("shutting down")
	return nil
}
