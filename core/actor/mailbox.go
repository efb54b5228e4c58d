package actor

import (
	"sync"
)

// Mailbox is the single-consumer, multi-producer queue of one actor.
//
// Close seals the mailbox: later Post calls fail with [ErrMailboxClosed]
// while Receive keeps returning what was accepted before the seal, then
// reports end of stream.
type Mailbox interface {
	// Post enqueues env without blocking.
	Post(env Envelope) error
	// Receive blocks until an envelope is available. ok is false once the
	// mailbox is closed and empty.
	Receive() (env Envelope, ok bool)
	Close()
	Closed() bool
	Len() int
}

// MailboxPolicy selects the mailbox implementation of an actor.
type MailboxPolicy struct {
	capacity int
}

// Unbounded mailboxes never reject a message while open. This is the default.
func Unbounded() MailboxPolicy { return MailboxPolicy{} }

// Bounded mailboxes hold at most capacity envelopes; posting to a full
// mailbox fails with [ErrMailboxFull].
func Bounded(capacity int) MailboxPolicy {
	if capacity <= 0 {
		panic("actor: bounded mailbox capacity must be positive")
	}
	return MailboxPolicy{capacity: capacity}
}

func (p MailboxPolicy) IsBounded() bool { return p.capacity > 0 }
func (p MailboxPolicy) Capacity() int   { return p.capacity }

// NewMailbox creates an empty mailbox for the policy.
func (p MailboxPolicy) NewMailbox() Mailbox {
	if p.capacity > 0 {
		return newBoundedMailbox(p.capacity)
	}
	return newUnboundedMailbox()
}

// ---- unbounded ----

type unboundedMailbox struct {
	mu     sync.Mutex
	queue  []Envelope
	closed bool
	signal chan struct{}
}

func newUnboundedMailbox() *unboundedMailbox {
	return &unboundedMailbox{signal: make(chan struct{}, 1)}
}

func (m *unboundedMailbox) Post(env Envelope) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrMailboxClosed
	}
	m.queue = append(m.queue, env)
	m.mu.Unlock()
	m.wake()
	return nil
}

func (m *unboundedMailbox) Receive() (Envelope, bool) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			env := m.queue[0]
			m.queue[0] = nil
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return env, true
		}
		if m.closed {
			m.mu.Unlock()
			return nil, false
		}
		m.mu.Unlock()
		<-m.signal
	}
}

func (m *unboundedMailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
}

func (m *unboundedMailbox) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *unboundedMailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *unboundedMailbox) wake() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// ---- bounded ----

type boundedMailbox struct {
	mu     sync.RWMutex
	ch     chan Envelope
	closed bool
}

func newBoundedMailbox(capacity int) *boundedMailbox {
	return &boundedMailbox{ch: make(chan Envelope, capacity)}
}

func (m *boundedMailbox) Post(env Envelope) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrMailboxClosed
	}
	select {
	case m.ch <- env:
		return nil
	default:
		return ErrMailboxFull
	}
}

func (m *boundedMailbox) Receive() (Envelope, bool) {
	env, ok := <-m.ch
	return env, ok
}

func (m *boundedMailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
}

func (m *boundedMailbox) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *boundedMailbox) Len() int { return len(m.ch) }

var (
	_ Mailbox = (*unboundedMailbox)(nil)
	_ Mailbox = (*boundedMailbox)(nil)
)
