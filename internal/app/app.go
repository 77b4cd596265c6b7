package app

import (
	"context"
	"fmt"
	"time"

	"github.com/harava/talkoot/internal/archive"
	"github.com/harava/talkoot/internal/config"
	"github.com/harava/talkoot/internal/db"
	"github.com/harava/talkoot/internal/events"
	"github.com/harava/talkoot/internal/health"
	"github.com/harava/talkoot/internal/importer"
	"github.com/harava/talkoot/internal/notify"
	"github.com/harava/talkoot/internal/stream"
	"github.com/harava/talkoot/internal/streaming"
	"github.com/harava/talkoot/internal/users"
	"github.com/harava/talkoot/internal/wfs"
	"github.com/harava/talkoot/internal/zones"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
)

// App holds the connections and services shared by the commands.
type App struct {
	Config *config.Config
	Health *health.Health

	db      *pgxpool.Pool
	conn    *amqp.Connection
	channel *amqp.Channel
	kafka   *kgo.Client

	Zones  *zones.Store
	Index  *zones.Index
	Users  *users.Store
	Events *events.PostgresStore

	Engine   *events.Engine
	Notifier *events.Notifier
	Service  *events.Service
	Reminder *events.Reminder
}

// New connects to the database and, when configured, to RabbitMQ and Kafka.
// Without RabbitMQ notifications are only logged.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Health: health.NewHealth(nil),
	}

	var err error
	app.db, err = db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise database: %w", err)
	}

	var sender notify.Sender = notify.LogSender{}
	if cfg.RabbitURL != "" {
		app.conn, app.channel, err = streaming.Dial(cfg.RabbitURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialise rabbit channel: %w", err)
		}
		sender, err = notify.NewRabbitSender(app.channel)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialise rabbit declarations: %w", err)
		}
	} else {
		log.Warn().Msg("RABBIT_URL not set, notifications are only logged")
	}

	var recorder events.Recorder
	if cfg.KafkaBrokers != "" {
		app.kafka, err = stream.NewClient(cfg.KafkaBrokers)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialise kafka client: %w", err)
		}
		recorder = stream.NewPublisher(app.kafka, stream.TopicEvents, "event")
	}

	policy := cfg.Policy()

	app.Zones = zones.NewStore(app.db)
	app.Index = zones.NewIndex(nil)
	app.Users = users.NewStore(app.db)
	app.Events = events.NewPostgresStore(app.db)

	app.Engine = events.NewEngine(app.Events, policy)
	app.Notifier = events.NewNotifier(notify.NewDispatcher(sender, app.Health), app.Users)
	app.Service = events.NewService(app.Events, app.Zones, app.Users, policy, events.Options{
		Notifier: app.Notifier,
		Recorder: recorder,
		Health:   app.Health,
	})
	app.Reminder = events.NewReminder(app.Events, app.Zones, app.Notifier, policy, app.Health, nil)

	return app, nil
}

// Importer builds the contract zone importer, archiving the feed when a
// bucket is configured.
func (app *App) Importer(ctx context.Context) (*importer.Importer, error) {
	var archiver importer.Archiver
	if app.Config.ArchiveBucket != "" {
		s3, err := archive.NewS3(ctx, app.Config.ArchiveBucket)
		if err != nil {
			return nil, err
		}
		archiver = s3
	}

	feed := wfs.NewClient(app.Config.WFSBaseURL, app.Config.WFSTypeName, app.Config.WFSFilter)

	return importer.New(feed, archiver, app.Zones, app.Health), nil
}

// Channel is the RabbitMQ channel, nil when RabbitMQ is not configured.
func (app *App) Channel() *amqp.Channel {
	return app.channel
}

func (app *App) DB() *pgxpool.Pool {
	return app.db
}

func (app *App) Close() {
	if app.kafka != nil {
		app.kafka.Close()
	}
	if app.channel != nil {
		if err := app.channel.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close rabbit channel")
		}
	}
	if app.conn != nil {
		if err := app.conn.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close rabbit connection")
		}
	}
	if app.db != nil {
		app.db.Close()
	}
}

// Now is the current time in the configured time zone.
func (app *App) Now() time.Time {
	return time.Now().In(app.Config.TimeZone)
}
