package actor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

type lifecycle int32

const (
	stateCreated lifecycle = iota
	stateStarted
	stateRunning
	stateStopping
	stateStopped
)

func (s lifecycle) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateStarted:
		return "started"
	case stateRunning:
		return "running"
	case stateStopping:
		return "stopping"
	case stateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("lifecycle(%d)", int32(s))
	}
}

// actorCell owns one actor instance and drives its loop. It is the
// [Process] local PIDs resolve to.
type actorCell struct {
	sys     *ActorSystem
	pid     PID
	parent  *actorCell
	props   *Props
	mb      Mailbox
	log     *slog.Logger
	metrics ActorMetrics

	self   *Ref
	actx   *actorContext
	cancel context.CancelFunc
	actor  Actor

	state atomic.Int32
	done  chan struct{}

	mu           sync.Mutex
	children     map[string]*actorCell
	childrenDone bool
}

func newActorCell(sys *ActorSystem, pid PID, props *Props, parent *actorCell) *actorCell {
	ctx, cancel := context.WithCancel(sys.ctx)
	log := sys.log.With(slog.String("actor", pid.String()))

	c := &actorCell{
		sys:      sys,
		pid:      pid,
		parent:   parent,
		props:    props,
		mb:       props.mailbox.NewMailbox(),
		log:      log,
		metrics:  sys.metrics,
		cancel:   cancel,
		done:     make(chan struct{}),
		children: make(map[string]*actorCell),
	}
	c.self = &Ref{pid: pid, proc: c, sys: sys}
	c.actx = &actorContext{
		Context:  ctx,
		cell:     c,
		self:     c.self,
		log:      log,
		handlers: newHandlerTable(),
		metrics:  sys.metrics,
		sched:    newScheduler(ctx, sys.cfg.WorkerThreads, log, pid.ID, sys.metrics),
	}
	return c
}

// ---- Process ----

func (c *actorCell) Post(env Envelope) error {
	if err := c.mb.Post(env); err != nil {
		return err
	}
	c.metrics.MailboxDepth(c.pid.ID, c.mb.Len())
	return nil
}

func (c *actorCell) Stop()                 { c.mb.Close() }
func (c *actorCell) Done() <-chan struct{} { return c.done }

// ---- loop ----

func (c *actorCell) run() {
	defer close(c.done)

	if !c.start() {
		c.abort()
		return
	}
	c.transition(stateRunning)

	for {
		env, ok := c.mb.Receive()
		if !ok {
			break
		}
		if !c.invoke(env) {
			c.abort()
			return
		}
	}

	c.finish()
}

func (c *actorCell) start() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.panicked(r, nil)
			ok = false
		}
	}()

	c.actor = c.props.producer()
	c.actor.Register(c.actx.handlers)
	c.transition(stateStarted)

	if err := c.actx.handlers.init(c.actx); err != nil {
		c.log.Error("actor init failed", slog.Any("error", err))
		return false
	}
	if s, ok := c.actor.(Starter); ok {
		s.Started(c.actx)
	}
	return true
}

// invoke dispatches one envelope. It returns false if the handler panicked.
func (c *actorCell) invoke(env Envelope) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			msg := c.actx.message
			c.actx.current, c.actx.message, c.actx.responded = nil, nil, false
			c.actx.inHandler.Store(false)

			c.metrics.MessagePanic(env.MessageType())
			env.Resolve(nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r))
			c.panicked(r, msg)
			ok = false
		}
	}()

	env.dispatch(c.actx)
	return true
}

func (c *actorCell) panicked(r any, msg any) {
	c.sys.onPanic(c.pid, r, debug.Stack(), msg)
}

// finish is the orderly path: every accepted message was handled.
func (c *actorCell) finish() {
	c.transition(stateStopping)
	c.stopChildren()

	if s, ok := c.actor.(Stopper); ok {
		c.stopped(s)
	}

	c.release()
	c.metrics.ActorStopped(false)
}

// abort terminates after a fault. The stop hook is skipped and queued
// requests fail.
func (c *actorCell) abort() {
	c.transition(stateStopping)
	c.mb.Close()
	for {
		env, ok := c.mb.Receive()
		if !ok {
			break
		}
		c.sys.deadLetters.post(c.pid, env, ErrActorStopped)
	}
	c.stopChildren()

	c.release()
	c.metrics.ActorStopped(true)
}

func (c *actorCell) stopped(s Stopper) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("stop hook panicked", slog.Any("recovered", r))
		}
	}()
	s.Stopped(c.actx)
}

func (c *actorCell) release() {
	c.cancel()
	c.actx.sched.Wait()
	c.sys.registry.removeProcess(c.pid.ID, c)
	if c.parent != nil {
		c.parent.removeChild(c)
	}
	c.transition(stateStopped)
}

func (c *actorCell) transition(to lifecycle) {
	from := lifecycle(c.state.Swap(int32(to)))
	level := slog.LevelDebug
	if c.sys.cfg.DeveloperSupervisionLogging {
		level = slog.LevelInfo
	}
	c.log.Log(c.actx, level, "actor "+to.String(), slog.String("from", from.String()))
}

// ---- children ----

func (c *actorCell) addChild(child *actorCell) {
	c.mu.Lock()
	if c.childrenDone {
		c.mu.Unlock()
		child.Stop()
		return
	}
	c.children[child.pid.ID] = child
	c.mu.Unlock()
}

func (c *actorCell) removeChild(child *actorCell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.children[child.pid.ID] == child {
		delete(c.children, child.pid.ID)
	}
}

func (c *actorCell) stopChildren() {
	c.mu.Lock()
	c.childrenDone = true
	kids := make([]*actorCell, 0, len(c.children))
	for _, k := range c.children {
		kids = append(kids, k)
	}
	c.mu.Unlock()

	for _, k := range kids {
		k.Stop()
	}
	for _, k := range kids {
		<-k.done
	}
}
