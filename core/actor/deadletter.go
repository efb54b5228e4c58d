package actor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codewandler/actr-go/core/masked"
)

// throttle admits at most max events per interval and reports how many
// were suppressed once a new interval begins.
type throttle struct {
	interval time.Duration
	max      int

	mu         sync.Mutex
	start      time.Time
	count      int
	suppressed int
}

func newThrottle(interval time.Duration, max int) *throttle {
	return &throttle{interval: interval, max: max}
}

func (t *throttle) allow(now time.Time) (ok bool, suppressed int) {
	if t.interval <= 0 || t.max <= 0 {
		return true, 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() || now.Sub(t.start) >= t.interval {
		suppressed = t.suppressed
		t.start, t.count, t.suppressed = now, 0, 0
	}
	if t.count < t.max {
		t.count++
		return true, suppressed
	}
	t.suppressed++
	return false, suppressed
}

// deadLetters receives every envelope that could not be delivered.
type deadLetters struct {
	log         *slog.Logger
	metrics     ActorMetrics
	throttle    *throttle
	logRequests bool
	now         func() time.Time
}

func newDeadLetters(cfg Config, log *slog.Logger, m ActorMetrics) *deadLetters {
	return &deadLetters{
		log:         log.With(slog.String("process", "deadletter")),
		metrics:     m,
		throttle:    newThrottle(cfg.DeadLetterThrottleInterval, cfg.DeadLetterThrottleCount),
		logRequests: cfg.DeadLetterRequestLogging,
		now:         time.Now,
	}
}

// post records env as undeliverable to target. A pending request is
// completed with an error wrapping cause.
func (d *deadLetters) post(target PID, env Envelope, cause error) {
	if cause == nil {
		cause = ErrDeadLetter
	}
	if !errors.Is(cause, ErrDeadLetter) {
		cause = fmt.Errorf("%w: %w", ErrDeadLetter, cause)
	}

	d.metrics.DeadLetter(env.MessageType())

	isRequest := env.ExpectsReply()
	if isRequest {
		env.Resolve(nil, fmt.Errorf("deliver to %s: %w", target, cause))
		if !d.logRequests {
			return
		}
	}

	ok, suppressed := d.throttle.allow(d.now())
	if suppressed > 0 {
		d.log.Warn("dead letters suppressed", slog.Int("count", suppressed))
	}
	if !ok {
		return
	}

	attrs := []any{
		slog.String("target", target.String()),
		slog.String("msg_type", env.MessageType()),
		slog.String("msg", masked.String(env.Message())),
		slog.Bool("request", isRequest),
		slog.Any("error", cause),
	}
	if s := env.Sender(); s != nil {
		attrs = append(attrs, slog.String("sender", s.String()))
	}
	d.log.Info("dead letter", attrs...)
}
