package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grievance_signups_total",
		Help: "Number of user registrations.",
	})

	GrievancesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grievance_created_total",
		Help: "Number of grievances filed.",
	})

	PushDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_push_deliveries_total",
		Help: "Push delivery attempts by result.",
	}, []string{"result"})

	SSEConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "grievance_sse_connections",
		Help: "Currently open SSE event streams.",
	})
)
