// Package prometheus provides Prometheus implementations of the actor
// runtime and remote metrics interfaces.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// AllMetrics holds Prometheus implementations for the runtime and the
// remote extension.
type AllMetrics struct {
	Actor  *actorMetrics
	Remote *remoteMetrics
}

// NewAllMetrics creates and registers every metric on reg.
func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Actor:  NewActorMetrics(reg).(*actorMetrics),
		Remote: NewRemoteMetrics(reg).(*remoteMetrics),
	}
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
