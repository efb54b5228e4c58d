package actor

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Context is what a running actor sees of the world. It is also the
// context.Context of the actor: it is cancelled when the actor stops.
//
// Sender and Respond refer to the message being dispatched and must only be
// called from a handler.
type Context interface {
	context.Context

	// Self is the address of this actor.
	Self() *Ref
	// Sender is where the reply to the current message goes, nil for
	// fire-and-forget messages.
	Sender() *PID
	// Respond completes the current request with v. Without a pending
	// request it is a logged no-op. The handler's own result is dropped
	// after Respond.
	Respond(v any)
	// Stop seals the mailbox. Messages already queued are still handled.
	Stop()

	Log() *slog.Logger
	System() *ActorSystem

	// Spawn starts a child actor. Children stop before their parent.
	Spawn(props *Props) *Ref
	SpawnPrefix(prefix string, props *Props) *Ref
	SpawnNamed(name string, props *Props) (*Ref, error)

	// Send delivers msg to target without waiting.
	Send(target *Ref, msg any)
	// Schedule runs f in the background, bounded by Config.WorkerThreads.
	Schedule(f func())
}

type ctxKey struct{}

type actorContext struct {
	context.Context
	cell     *actorCell
	self     *Ref
	log      *slog.Logger
	handlers *handlerTable
	metrics  ActorMetrics
	sched    *scheduler

	// owned by the loop goroutine
	current   *messageEnvelope
	message   any
	responded bool

	inHandler atomic.Bool
}

func (c *actorContext) Value(key any) any {
	if key == (ctxKey{}) {
		return c
	}
	return c.Context.Value(key)
}

func (c *actorContext) Self() *Ref           { return c.self }
func (c *actorContext) Log() *slog.Logger    { return c.log }
func (c *actorContext) System() *ActorSystem { return c.cell.sys }
func (c *actorContext) Stop()                { c.cell.Stop() }
func (c *actorContext) Schedule(f func())    { c.sched.Schedule(f) }
func (c *actorContext) Send(target *Ref, msg any) {
	target.Tell(msg)
}

func (c *actorContext) Sender() *PID {
	if c.current == nil {
		return nil
	}
	return c.current.Sender()
}

func (c *actorContext) Respond(v any) {
	e := c.current
	if e == nil || e.reply == nil {
		c.log.Debug("respond without pending request", slog.Any("value", v))
		return
	}
	if c.responded {
		c.log.Debug("request already answered", slog.String("msg_type", e.msgType))
		return
	}
	c.responded = true
	if !e.reply.resolve(v, nil) {
		c.log.Debug("reply dropped, requester gone", slog.String("reply_to", e.sender.String()))
	}
}

func (c *actorContext) Spawn(props *Props) *Ref {
	return c.SpawnPrefix("", props)
}

func (c *actorContext) SpawnPrefix(prefix string, props *Props) *Ref {
	sys := c.cell.sys
	ref, err := sys.spawnGenerated(c.cell.pid.ID+"/"+prefix, props, c.cell)
	if err != nil {
		return sys.deadRef(err)
	}
	return ref
}

func (c *actorContext) SpawnNamed(name string, props *Props) (*Ref, error) {
	return c.cell.sys.spawn(c.cell.pid.ID+"/"+name, props, c.cell)
}

var _ Context = (*actorContext)(nil)
