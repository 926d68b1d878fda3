package router

import "github.com/prometheus/client_golang/prometheus"

// routerMetrics mirrors the dittofs pkg/metrics convention of one struct
// bundling a component's collectors, registered once at construction
// rather than through package-level globals.
type routerMetrics struct {
	messagesDispatched *prometheus.CounterVec
	isolatesJoined     prometheus.Counter
	isolatesExited     prometheus.Counter
	pendingReplies     prometheus.Gauge
	sendOutcomes       *prometheus.CounterVec
}

func newRouterMetrics(reg prometheus.Registerer) routerMetrics {
	m := routerMetrics{
		messagesDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nativebridge",
			Subsystem: "router",
			Name:      "messages_dispatched_total",
			Help:      "Inbound control-verb frames dispatched, by verb.",
		}, []string{"verb"}),
		isolatesJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nativebridge",
			Subsystem: "router",
			Name:      "isolates_joined_total",
			Help:      "Isolates registered since startup.",
		}),
		isolatesExited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nativebridge",
			Subsystem: "router",
			Name:      "isolates_exited_total",
			Help:      "Isolates that have exited since startup.",
		}),
		pendingReplies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nativebridge",
			Subsystem: "router",
			Name:      "pending_replies",
			Help:      "Pending-reply table entries outstanding right now.",
		}),
		sendOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nativebridge",
			Subsystem: "router",
			Name:      "send_outcomes_total",
			Help:      "Outcomes of outbound send() calls, by kind.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.messagesDispatched, m.isolatesJoined, m.isolatesExited, m.pendingReplies, m.sendOutcomes)
	}
	return m
}
