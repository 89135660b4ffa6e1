package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weeksuntil",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	remindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "weeksuntil",
			Name:      "reminders_sent_total",
			Help:      "Reminder messages delivered.",
		},
	)

	remindersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "weeksuntil",
			Name:      "reminders_failed_total",
			Help:      "Reminder dispatches that returned an error.",
		},
	)

	sweepsRun = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "weeksuntil",
			Name:      "reminder_sweeps_total",
			Help:      "Completed reminder sweeps.",
		},
	)

	registeredUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "weeksuntil",
			Name:      "registered_users",
			Help:      "Active users known to the store.",
		},
	)

	botCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weeksuntil",
			Name:      "bot_commands_total",
			Help:      "Telegram bot commands by name.",
		},
		[]string{"command"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			remindersSent,
			remindersFailed,
			sweepsRun,
			registeredUsers,
			botCommands,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncReminderSent counts one delivered reminder.
func IncReminderSent() {
	remindersSent.Inc()
}

// IncReminderFailed counts one failed dispatch.
func IncReminderFailed() {
	remindersFailed.Inc()
}

// IncSweep counts one finished sweep.
func IncSweep() {
	sweepsRun.Inc()
}

// SetRegisteredUsers records the current active-user count.
func SetRegisteredUsers(n int) {
	registeredUsers.Set(float64(n))
}

// IncBotCommand counts one handled bot command.
func IncBotCommand(command string) {
	botCommands.WithLabelValues(command).Inc()
}
