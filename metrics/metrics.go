package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle counts what the connection cycle does. One instance per server.
type Cycle struct {
	Accepted     prometheus.Counter
	Responses    prometheus.Counter
	AcceptErrors prometheus.Counter
	ReadErrors   prometheus.Counter
}

func NewCycle(reg *prometheus.Registry) *Cycle {
	factory := promauto.With(reg)

	return &Cycle{
		Accepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqhttpd_connections_accepted_total",
			Help: "Peer connections accepted by the cycle loop.",
		}),
		Responses: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqhttpd_responses_written_total",
			Help: "Fixed responses written to peers.",
		}),
		AcceptErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqhttpd_accept_errors_total",
			Help: "Transient accept failures.",
		}),
		ReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "seqhttpd_read_errors_total",
			Help: "Transient per-connection read failures.",
		}),
	}
}

// Handler serves the registry for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
