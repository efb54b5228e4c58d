package actor

import "github.com/codewandler/actr-go/core/metrics"

// ActorMetrics is the instrumentation surface of the runtime.
// Implementations must be safe for concurrent use.
type ActorMetrics interface {
	// Lifecycle
	ActorSpawned()
	ActorStopped(panicked bool)

	// Message handling
	MessageDuration(msgType string) metrics.Timer
	MessageProcessed(msgType string, success bool)
	MessagePanic(msgType string)
	DeadLetter(msgType string)

	// Mailbox
	MailboxDepth(actorID string, depth int)

	// Scheduler
	SchedulerInflight(actorID string, count int)
	SchedulerTaskDuration() metrics.Timer
	SchedulerTaskCompleted(success bool)
}

type nopActorMetrics struct{}

func (nopActorMetrics) ActorSpawned()     {}
func (nopActorMetrics) ActorStopped(bool) {}

func (nopActorMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) MessageProcessed(string, bool)        {}
func (nopActorMetrics) MessagePanic(string)                  {}
func (nopActorMetrics) DeadLetter(string)                    {}

func (nopActorMetrics) MailboxDepth(string, int) {}

func (nopActorMetrics) SchedulerInflight(string, int)        {}
func (nopActorMetrics) SchedulerTaskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) SchedulerTaskCompleted(bool)          {}

// NopActorMetrics returns an ActorMetrics that records nothing.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }
