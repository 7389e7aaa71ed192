package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "ridehail", Name: "ws_connections_active", Help: "Currently connected websocket clients"},
		[]string{"role"},
	)
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "ws_messages_total", Help: "Inbound websocket messages processed"},
		[]string{"role"},
	)
	BroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "broadcasts_total", Help: "Group publishes fanned out"},
	)
	SubscribersPruned = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "subscribers_pruned_total", Help: "Subscribers evicted after a failed delivery"},
	)
	TripsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "ridehail", Name: "trips_created_total", Help: "Trips created over the websocket channel"},
	)
)
