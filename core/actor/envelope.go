package actor

import (
	"log/slog"

	"github.com/codewandler/actr-go/core/masked"
)

// Envelope carries one message, the address of its sender and, for
// requests, the one-shot reply sink. Mailboxes store envelopes so one queue
// can hold any message type.
//
// The interface is sealed: envelopes are built by [Ref.Tell], [Request] and
// friends, and consumed by the actor loop or by a [Process] implementation.
type Envelope interface {
	// Message returns the payload, or nil once it has been dispatched.
	Message() any
	// MessageType is the routing name of the payload.
	MessageType() string
	// Sender is the reply address for requests, nil for fire-and-forget.
	Sender() *PID
	// ExpectsReply reports whether a reply sink is attached.
	ExpectsReply() bool
	// Resolve completes the reply sink. It reports false when there is no
	// sink or it was already completed.
	Resolve(result any, err error) bool
	// ResolveDecoded completes the reply sink with a value produced by
	// decode, which receives a pointer to the typed result.
	ResolveDecoded(decode func(into any) error) bool

	dispatch(c *actorContext)
}

type messageEnvelope struct {
	msg     any
	msgType string
	sender  *PID
	reply   replySink
	taken   bool
}

func newEnvelope(msg any, reply replySink) *messageEnvelope {
	e := &messageEnvelope{msg: msg, msgType: msgTypeOf(msg), reply: reply}
	if reply != nil {
		pid := reply.replyPID()
		e.sender = &pid
	}
	return e
}

func (e *messageEnvelope) Message() any        { return e.msg }
func (e *messageEnvelope) MessageType() string { return e.msgType }
func (e *messageEnvelope) Sender() *PID        { return e.sender }
func (e *messageEnvelope) ExpectsReply() bool  { return e.reply != nil }

func (e *messageEnvelope) Resolve(result any, err error) bool {
	if e.reply == nil {
		return false
	}
	return e.reply.resolve(result, err)
}

func (e *messageEnvelope) ResolveDecoded(decode func(into any) error) bool {
	if e.reply == nil {
		return false
	}
	return e.reply.resolveDecoded(decode)
}

func (e *messageEnvelope) take() any {
	if e.taken {
		panic("actor: envelope dispatched twice")
	}
	e.taken = true
	msg := e.msg
	e.msg = nil
	return msg
}

// dispatch runs on the actor loop only. If the handler panics, c.current
// and c.message stay set for the loop's recovery.
func (e *messageEnvelope) dispatch(c *actorContext) {
	msg := e.take()

	c.current, c.message, c.responded = e, msg, false
	c.inHandler.Store(true)

	timer := c.metrics.MessageDuration(e.msgType)
	res, err := c.handlers.handle(c, e.msgType, msg)
	timer.ObserveDuration()
	c.metrics.MessageProcessed(e.msgType, err == nil)

	c.inHandler.Store(false)
	responded := c.responded
	c.current, c.message, c.responded = nil, nil, false

	if e.reply == nil {
		if err != nil {
			c.log.Warn(
				"handler failed",
				slog.String("msg_type", e.msgType),
				slog.String("msg", masked.String(msg)),
				slog.Any("error", err),
			)
		}
		return
	}

	if responded {
		if err != nil {
			c.log.Warn("handler failed after respond", slog.String("msg_type", e.msgType), slog.Any("error", err))
		}
		return
	}

	if !e.reply.resolve(res, err) {
		c.log.Debug(
			"reply dropped, requester gone",
			slog.String("msg_type", e.msgType),
			slog.String("reply_to", e.sender.String()),
		)
	}
}
