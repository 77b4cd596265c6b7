package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Health struct {
	EventsCreated       prometheus.Counter
	EventsApproved      prometheus.Counter
	EventsRejected      *prometheus.CounterVec
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	RemindersSent       prometheus.Counter
	ProposalsReceived   prometheus.Counter
	ZonesActive         prometheus.Gauge
	ImportsFailed       prometheus.Counter
}

// NewHealth registers the metrics with reg. A nil reg uses the default registry.
func NewHealth(reg prometheus.Registerer) *Health {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Health{
		EventsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "talkoot_events_created",
			Help: "Total number of events created",
		}),
		EventsApproved: factory.NewCounter(prometheus.CounterOpts{
			Name: "talkoot_events_approved",
			Help: "Total number of events approved",
		}),
		EventsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "talkoot_events_rejected",
			Help: "Total number of event writes rejected by validation",
		}, []string{"code"}),
		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "talkoot_notifications_sent",
			Help: "Total number of notifications handed to the sender",
		}),
		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "talkoot_notifications_failed",
			Help: "Total number of notifications the sender failed to accept",
		}),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "talkoot_reminders_sent",
			Help: "Total number of events reminded",
		}),
		ProposalsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "talkoot_proposals_received",
			Help: "Total number of event proposals received from the queue",
		}),
		ZonesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "talkoot_zones_active",
			Help: "Number of active contract zones after the last import",
		}),
		ImportsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "talkoot_imports_failed",
			Help: "Total number of failed contract zone imports",
		}),
	}
}
