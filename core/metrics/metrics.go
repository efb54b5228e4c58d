// Package metrics holds the backend-neutral instruments the runtime reports
// through. Adapters (see adapters/prometheus) implement them; the Nop
// variants are used when metrics are disabled.
package metrics

import "time"

// Counter only goes up.
type Counter interface {
	Inc()
	// Add increments by delta, which must not be negative.
	Add(delta float64)
}

// Gauge can go up and down.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
	Add(delta float64)
}

// Histogram samples observations such as latencies.
type Histogram interface {
	Observe(value float64)
}

// Timer measures one operation:
//
//	defer m.MessageDuration(msgType).ObserveDuration()
type Timer interface {
	ObserveDuration()
}

type histogramTimer struct {
	h     Histogram
	start time.Time
}

// NewTimer starts a Timer that records elapsed seconds into h.
func NewTimer(h Histogram) Timer {
	return &histogramTimer{h: h, start: time.Now()}
}

func (t *histogramTimer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}
