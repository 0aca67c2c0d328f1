package command

import "github.com/prometheus/client_golang/prometheus"

var commandsInvoked = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "oliviabot_commands_invoked_total",
		Help: "Total number of command invocations that reached a handler",
	},
	[]string{"command"},
)

// RegisterMetrics registers the framework collectors
func RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(commandsInvoked)
}
