package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type MemoryTransportOpts struct {
	Log *slog.Logger
	// HandlerTimeout bounds each handler invocation. Defaults to 30s.
	HandlerTimeout time.Duration
	// MaxConcurrentHandlers caps handlers running at once, unlimited if 0.
	MaxConcurrentHandlers int
}

// MemoryTransport connects actor systems living in the same process.
// Publishes to one subscription are handled in order; requests run
// concurrently.
type MemoryTransport struct {
	mu  sync.RWMutex
	log *slog.Logger

	closed bool

	// address -> subID -> subscription
	subs map[string]map[string]*subscription

	// replyTo -> chan response bytes
	inboxes map[string]chan []byte

	seq atomic.Uint64

	handlerTimeout time.Duration
	sem            chan struct{}
	handlers       sync.WaitGroup
}

func NewInMemoryTransport(opts ...MemoryTransportOpts) *MemoryTransport {
	var o MemoryTransportOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Log == nil {
		o.Log = slog.New(slog.DiscardHandler)
	}
	if o.HandlerTimeout <= 0 {
		o.HandlerTimeout = 30 * time.Second
	}

	t := &MemoryTransport{
		log:            o.Log.With(slog.String("transport", "mem")),
		subs:           make(map[string]map[string]*subscription),
		inboxes:        make(map[string]chan []byte),
		handlerTimeout: o.HandlerTimeout,
	}
	if o.MaxConcurrentHandlers > 0 {
		t.sem = make(chan struct{}, o.MaxConcurrentHandlers)
	}
	return t
}

func (t *MemoryTransport) WithLog(log *slog.Logger) *MemoryTransport {
	t.log = log.With(slog.String("transport", "mem"))
	return t
}

func (t *MemoryTransport) deliver(ctx context.Context, env Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	env.Stamp(time.Now())
	if env.Expired() {
		return ErrEnvelopeExpired
	}

	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return ErrTransportClosed
	}

	// copy subscriptions so user code runs without the lock
	subs := make([]*subscription, 0, len(t.subs[env.Target.Address]))
	for _, s := range t.subs[env.Target.Address] {
		subs = append(subs, s)
	}
	if len(subs) > 0 {
		t.handlers.Add(len(subs))
	}
	t.mu.RUnlock()

	if len(subs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSubscriber, env.Target.Address)
	}

	for _, s := range subs {
		if env.ReplyTo == "" {
			s.enqueue(ctx, env)
		} else {
			go t.invokeHandler(ctx, s.h, env)
		}
	}
	return nil
}

func (t *MemoryTransport) Publish(ctx context.Context, env Envelope) error {
	env.ReplyTo = ""
	// the handler outlives the publisher
	return t.deliver(context.WithoutCancel(ctx), env)
}

func (t *MemoryTransport) Request(ctx context.Context, env Envelope) ([]byte, error) {
	replyTo := t.newInboxID()
	replyCh, err := t.registerInbox(replyTo)
	if err != nil {
		return nil, err
	}
	defer t.unregisterInbox(replyTo)

	env.ReplyTo = replyTo
	if err := t.deliver(ctx, env); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case b, ok := <-replyCh:
		if !ok {
			return nil, ErrTransportClosed
		}
		return DecodeResponse(b)
	}
}

func (t *MemoryTransport) Subscribe(ctx context.Context, address string, h HandlerFunc) (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if t.subs[address] == nil {
		t.subs[address] = make(map[string]*subscription)
	}

	subID := t.newSubID(address)
	s := &subscription{
		t:       t,
		log:     t.log.With(slog.String("subscription", subID)),
		address: address,
		subID:   subID,
		h:       h,
	}
	t.subs[address][subID] = s
	s.log.Debug("subscribed", slog.String("address", address))

	context.AfterFunc(ctx, func() {
		_ = s.Unsubscribe()
	})

	return s, nil
}

// Close stops accepting envelopes, waits for running handlers and unblocks
// pending requests.
func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	clear(t.subs)
	t.mu.Unlock()

	t.handlers.Wait()

	t.mu.Lock()
	for k, ch := range t.inboxes {
		close(ch)
		delete(t.inboxes, k)
	}
	t.mu.Unlock()

	t.log.Debug("closed")
	return nil
}

/* ---------------------- internals ---------------------- */

type subscription struct {
	t       *MemoryTransport
	log     *slog.Logger
	address string
	subID   string
	h       HandlerFunc
	once    sync.Once

	qmu      sync.Mutex
	queue    []published
	draining bool
}

type published struct {
	ctx context.Context
	env Envelope
}

func (s *subscription) enqueue(ctx context.Context, env Envelope) {
	s.qmu.Lock()
	s.queue = append(s.queue, published{ctx: ctx, env: env})
	if s.draining {
		s.qmu.Unlock()
		return
	}
	s.draining = true
	s.qmu.Unlock()

	go s.drain()
}

func (s *subscription) drain() {
	for {
		s.qmu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.qmu.Unlock()
			return
		}
		p := s.queue[0]
		s.queue[0] = published{}
		s.queue = s.queue[1:]
		s.qmu.Unlock()

		s.t.invokeHandler(p.ctx, s.h, p.env)
	}
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.t.mu.Lock()
		defer s.t.mu.Unlock()
		if subs := s.t.subs[s.address]; subs != nil {
			delete(subs, s.subID)
			if len(subs) == 0 {
				delete(s.t.subs, s.address)
			}
		}
		s.log.Debug("unsubscribed")
	})
	return nil
}

func (t *MemoryTransport) invokeHandler(ctx context.Context, h HandlerFunc, env Envelope) {
	defer t.handlers.Done()

	if t.sem != nil {
		select {
		case t.sem <- struct{}{}:
			defer func() { <-t.sem }()
		case <-ctx.Done():
			t.reply(env, nil, ctx.Err())
			return
		}
	}

	hctx, cancel := context.WithTimeout(ctx, t.handlerTimeout)
	defer cancel()

	resp, err := h(hctx, env)
	if err != nil && errors.Is(hctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%w: %w", ErrHandlerTimeout, err)
	}

	if env.ReplyTo == "" {
		if err != nil {
			t.log.Error(
				"publish handler failed",
				slog.String("type", env.Type),
				slog.String("target", env.Target.String()),
				slog.Any("error", err),
			)
		}
		return
	}
	t.reply(env, resp, err)
}

func (t *MemoryTransport) reply(env Envelope, resp []byte, err error) {
	b := EncodeResponse(resp, err)

	t.mu.RLock()
	defer t.mu.RUnlock()
	ch := t.inboxes[env.ReplyTo]
	if ch == nil {
		t.log.Debug("dropping response", slog.String("reply_to", env.ReplyTo))
		return
	}
	// buffered; a second reply is dropped
	select {
	case ch <- b:
	default:
	}
}

func (t *MemoryTransport) newInboxID() string {
	return fmt.Sprintf("inbox.%d", t.seq.Add(1))
}

func (t *MemoryTransport) newSubID(address string) string {
	return fmt.Sprintf("sub.%s.%d", address, t.seq.Add(1))
}

func (t *MemoryTransport) registerInbox(replyTo string) (<-chan []byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	ch := make(chan []byte, 1)
	t.inboxes[replyTo] = ch
	return ch, nil
}

func (t *MemoryTransport) unregisterInbox(replyTo string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch := t.inboxes[replyTo]; ch != nil {
		close(ch)
		delete(t.inboxes, replyTo)
	}
}

var _ Transport = (*MemoryTransport)(nil)
