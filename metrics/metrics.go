package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RelaysStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_relays_started_total",
		Help: "Number of relay tasks admitted by the driver.",
	})
	RelaysSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_relays_succeeded_total",
		Help: "Number of relays confirmed by a side-chain receipt.",
	})
	RelaysDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_relays_duplicate_total",
		Help: "Number of relays skipped because the authority had already signed them.",
	})
	RelaysFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_relays_failed_total",
		Help: "Number of relays terminally failed (malformed event or retry budget exhausted).",
	})
	RelayRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_relay_retries_total",
		Help: "Number of full relay restarts after transient transport errors.",
	})
)
