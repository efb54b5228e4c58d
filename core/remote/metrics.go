package remote

import "github.com/codewandler/actr-go/core/metrics"

// RemoteMetrics is what a Remote reports. All methods are thread-safe.
type RemoteMetrics interface {
	// Outbound
	RequestDuration(msgType string) metrics.Timer
	RequestCompleted(msgType string, success bool)
	NotifyCompleted(msgType string, success bool)

	// Transport errors: no_subscriber, timeout, ttl_expired, closed
	TransportError(errorType string)

	// Inbound
	HandlerDuration(msgType string) metrics.Timer
	HandlerCompleted(msgType string, success bool)
	HandlersActive(address string, count int)
}

type nopRemoteMetrics struct{}

func (nopRemoteMetrics) RequestDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopRemoteMetrics) RequestCompleted(string, bool)        {}
func (nopRemoteMetrics) NotifyCompleted(string, bool)         {}

func (nopRemoteMetrics) TransportError(string) {}

func (nopRemoteMetrics) HandlerDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopRemoteMetrics) HandlerCompleted(string, bool)        {}
func (nopRemoteMetrics) HandlersActive(string, int)           {}

func NopRemoteMetrics() RemoteMetrics { return nopRemoteMetrics{} }
