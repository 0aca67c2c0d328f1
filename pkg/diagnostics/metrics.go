package diagnostics

import "github.com/prometheus/client_golang/prometheus"

var (
	failureEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oliviabot_failure_events_total",
			Help: "Failure events received by the diagnostics handler",
		},
		[]string{"kind", "severity"},
	)

	reportsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oliviabot_reports_delivered_total",
			Help: "Diagnostic report deliveries by outcome",
		},
		[]string{"outcome"},
	)
)

// RegisterMetrics registers the diagnostics collectors
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{failureEvents, reportsDelivered} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
