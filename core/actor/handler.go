package actor

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type (
	// HandlerFunc is the type-erased form of a registered handler. The
	// message it receives already has the concrete type it was registered
	// for.
	HandlerFunc func(c Context, msg any) (any, error)

	// InitFunc runs once when the actor starts, before any message.
	InitFunc func(c Context) error

	// HandlerRegistrar collects the handlers of one actor instance.
	HandlerRegistrar interface {
		// Register adds a handler for msgType and/or an init function.
		// Either may be empty.
		Register(msgType string, handle HandlerFunc, init InitFunc)
		// Handle applies registrations.
		Handle(regs ...HandlerRegistration)
	}

	// HandlerRegistration registers handlers with a registrar. Create them
	// with [HandleMsg], [HandleRequest], [HandleEvery], [DefaultHandler]
	// and [Init].
	HandlerRegistration func(r HandlerRegistrar)
)

// Handlers is an [Actor] made of registrations only.
type Handlers []HandlerRegistration

// TypedHandlers bundles registrations into an actor.
//
//	props := actor.PropsFromProducer(func() actor.Actor {
//	    return actor.TypedHandlers(
//	        actor.HandleMsg(func(c actor.Context, m Greet) error { ... }),
//	        actor.HandleRequest(func(c actor.Context, q GetCount) (int, error) { ... }),
//	    )
//	})
func TypedHandlers(regs ...HandlerRegistration) Handlers { return regs }

func (h Handlers) Register(r HandlerRegistrar) { r.Handle(h...) }

// handlerTable is the per-instance dispatch table built when a cell starts.
type handlerTable struct {
	inits          []InitFunc
	handlers       map[string]HandlerFunc
	defaultHandler HandlerFunc
}

func newHandlerTable() *handlerTable {
	return &handlerTable{handlers: make(map[string]HandlerFunc)}
}

func (t *handlerTable) Register(msgType string, handle HandlerFunc, init InitFunc) {
	if handle != nil {
		if msgType == defaultMsgType {
			t.defaultHandler = handle
		} else if msgType != "" {
			t.handlers[msgType] = handle
		}
	}
	if init != nil {
		t.inits = append(t.inits, init)
	}
}

func (t *handlerTable) Handle(regs ...HandlerRegistration) {
	for _, reg := range regs {
		reg(t)
	}
}

func (t *handlerTable) init(c Context) error {
	for _, i := range t.inits {
		if err := i(c); err != nil {
			return fmt.Errorf("failed to init handler: %w", err)
		}
	}
	return nil
}

func (t *handlerTable) handle(c Context, msgType string, msg any) (any, error) {
	if h, ok := t.handlers[msgType]; ok {
		return h(c, msg)
	}
	if t.defaultHandler != nil {
		return t.defaultHandler(c, msg)
	}
	return nil, fmt.Errorf("%w: msg_type=%s go_type=%T", ErrNoHandler, msgType, msg)
}

const defaultMsgType = "*"

// DefaultHandler registers the fallback for messages without a handler.
func DefaultHandler(h func(c Context, msg any) (any, error)) HandlerRegistration {
	return func(r HandlerRegistrar) {
		r.Register(defaultMsgType, h, nil)
	}
}

// Init registers a function run when the actor starts.
func Init(f InitFunc) HandlerRegistration {
	return func(r HandlerRegistrar) {
		r.Register("", nil, f)
	}
}

// HandleMsg registers a handler for messages of type IN that produce no
// result. A request for IN resolves to the zero value of the requested type.
func HandleMsg[IN any](h func(c Context, msg IN) error, opts ...HandleOption) HandlerRegistration {
	return handle(func(c Context, msg IN) (any, error) {
		return nil, h(c, msg)
	}, opts)
}

// HandleRequest registers a handler for messages of type IN whose result
// is delivered to the asker.
func HandleRequest[IN, OUT any](h func(c Context, msg IN) (OUT, error), opts ...HandleOption) HandlerRegistration {
	return handle(func(c Context, msg IN) (any, error) {
		out, err := h(c, msg)
		if err != nil {
			return nil, err
		}
		return out, nil
	}, opts)
}

func handle[IN any](h func(c Context, msg IN) (any, error), opts []HandleOption) HandlerRegistration {
	o := HandleOpts{MessageType: msgTypeFor[IN]()}
	for _, opt := range opts {
		opt(&o)
	}
	return func(r HandlerRegistrar) {
		r.Register(
			o.MessageType,
			func(c Context, msg any) (any, error) {
				in, ok := msg.(IN)
				if !ok {
					return nil, fmt.Errorf("invalid message for %s: %T", o.MessageType, msg)
				}
				return h(c, in)
			},
			o.InitFunc,
		)
	}
}

// HandleOpts configures a registration.
type HandleOpts struct {
	// MessageType overrides the routing name derived from the Go type.
	MessageType string
	// InitFunc runs when the actor starts.
	InitFunc InitFunc
}

type HandleOption func(*HandleOpts)

// WithMessageType overrides the routing name of the handled type.
func WithMessageType(msgType string) HandleOption {
	return func(o *HandleOpts) { o.MessageType = msgType }
}

// WithInitFunc adds an init function to the registration.
func WithInitFunc(f InitFunc) HandleOption {
	return func(o *HandleOpts) { o.InitFunc = f }
}

type tickMsg struct{ mt string }

func (m tickMsg) MsgType() string { return m.mt }

// HandleEvery runs h every interval. Ticks travel through the mailbox, so h
// never overlaps with other handlers of the actor. Ticks stop with the actor.
func HandleEvery(interval time.Duration, h func(c Context) error) HandlerRegistration {
	tick := tickMsg{mt: "tick/" + gonanoid.Must()}

	return HandleMsg(
		func(c Context, _ tickMsg) error { return h(c) },
		WithMessageType(tick.MsgType()),
		WithInitFunc(func(c Context) error {
			self := c.Self()
			go func() {
				t := time.NewTicker(interval)
				defer t.Stop()
				for {
					select {
					case <-c.Done():
						return
					case <-t.C:
						// a sealed mailbox only means the actor is stopping
						_ = self.proc.Post(newEnvelope(tick, nil))
					}
				}
			}()
			return nil
		}),
	)
}
