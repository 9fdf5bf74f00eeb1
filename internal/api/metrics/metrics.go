// Package metrics defines the custom Prometheus metrics of the master server.
// It is the single source of truth for metric names, labels and help strings.
//
// Collectors are created unregistered; call MustRegister once per registry
// before the HTTP server starts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mastersession"

var factory = promauto.With(nil)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "incorrect" or "error"
var LoginsTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts account registrations.
// Label:
//   - result: "success", "rejected" or "error"
var RegistrationsTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// SessionLookupsTotal counts token validations.
// Label:
//   - result: "ok", "missing", "invalid", "expired" or "error"
var SessionLookupsTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_lookups_total",
		Help:      "Total number of session lookups, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts token revocations.
// Label:
//   - result: "ok", "missing", "invalid" or "error"
var LogoutsTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logout requests, by result.",
	},
	[]string{"result"},
)

// LevelChangesTotal counts privilege tier changes made by administrators.
// Label:
//   - level: the tier label applied (e.g. "moderator")
var LevelChangesTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "level_changes_total",
		Help:      "Total number of privilege tier changes, by new tier.",
	},
	[]string{"level"},
)

// ServerAnnouncementsTotal counts game server registrations and heartbeats.
// Labels:
//   - kind:   "register" or "heartbeat"
//   - result: "ok", "rejected", "unknown" or "error"
var ServerAnnouncementsTotal = factory.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "server_announcements_total",
		Help:      "Total number of game server announcements, by kind and result.",
	},
	[]string{"kind", "result"},
)

// ListedServers is the number of live game servers at the last listing.
var ListedServers = factory.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "listed_servers",
		Help:      "Number of game servers returned by the last server list request.",
	},
)

// MustRegister adds every collector to reg. A collector may be registered with
// several registries.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		LoginsTotal,
		RegistrationsTotal,
		SessionLookupsTotal,
		LogoutsTotal,
		LevelChangesTotal,
		ServerAnnouncementsTotal,
		ListedServers,
	)
}
