package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/actr-go/core/remote"
)

type TransportConfig struct {
	Connect       Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log           *slog.Logger // Log for diagnostics (optional)
	SubjectPrefix string       // SubjectPrefix for system subjects, e.g. "actr" -> actr.system.<address>
	// HandlerTimeout bounds each handler invocation. Defaults to 30s.
	HandlerTimeout time.Duration
}

// Transport implements remote.Transport over NATS. Requests use NATS
// request/reply, so a request to an address nobody serves fails fast with
// remote.ErrNoSubscriber. Publishes to one subscription are handled in
// order.
type Transport struct {
	nc             *natsgo.Conn
	closeNc        closeFunc
	log            *slog.Logger
	prefix         string
	handlerTimeout time.Duration

	mu   sync.Mutex
	subs map[*natsgo.Subscription]struct{}

	handlers sync.WaitGroup
	closed   atomic.Bool
}

func NewTransport(cfg TransportConfig) (*Transport, error) {
	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "actr"
	}

	handlerTimeout := cfg.HandlerTimeout
	if handlerTimeout <= 0 {
		handlerTimeout = 30 * time.Second
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, err
	}

	return &Transport{
		nc:             nc,
		closeNc:        closeNc,
		log:            log.With(slog.String("transport", "nats")),
		prefix:         prefix,
		handlerTimeout: handlerTimeout,
		subs:           make(map[*natsgo.Subscription]struct{}),
	}, nil
}

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// subjectFor returns the subject a system address is served on. Tokens
// NATS treats specially are replaced, so "10.0.0.1:7000" becomes
// "actr.system.10_0_0_1:7000".
func (t *Transport) subjectFor(address string) string {
	return t.prefix + ".system." + subjectReplacer.Replace(address)
}

func (t *Transport) encode(env *remote.Envelope) ([]byte, error) {
	if t.closed.Load() {
		return nil, remote.ErrTransportClosed
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	env.Stamp(time.Now())
	if env.Expired() {
		return nil, remote.ErrEnvelopeExpired
	}

	// NATS carries the reply subject itself
	env.ReplyTo = ""
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return payload, nil
}

func (t *Transport) Request(ctx context.Context, env remote.Envelope) ([]byte, error) {
	payload, err := t.encode(&env)
	if err != nil {
		return nil, err
	}

	msg, err := t.nc.RequestWithContext(ctx, t.subjectFor(env.Target.Address), payload)
	switch {
	case errors.Is(err, natsgo.ErrNoResponders):
		return nil, fmt.Errorf("%w: %s", remote.ErrNoSubscriber, env.Target.Address)
	case errors.Is(err, natsgo.ErrConnectionClosed), errors.Is(err, natsgo.ErrConnectionDraining):
		return nil, remote.ErrTransportClosed
	case err != nil:
		return nil, fmt.Errorf("nats: request: %w", err)
	}

	return remote.DecodeResponse(msg.Data)
}

func (t *Transport) Publish(_ context.Context, env remote.Envelope) error {
	payload, err := t.encode(&env)
	if err != nil {
		return err
	}
	if err := t.nc.Publish(t.subjectFor(env.Target.Address), payload); err != nil {
		return fmt.Errorf("nats: publish: %w", err)
	}
	return nil
}

// Close unsubscribes everything, waits for running handlers and releases
// the connection.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return remote.ErrTransportClosed
	}
	t.mu.Lock()
	for s := range t.subs {
		_ = s.Unsubscribe()
	}
	t.subs = map[*natsgo.Subscription]struct{}{}
	t.mu.Unlock()

	t.handlers.Wait()

	// the connection may be shared, see ReuseConnection
	if t.nc != nil {
		_ = t.nc.Flush()
		t.closeNc()
	}
	return nil
}

// Subscribe serves envelopes addressed to address.
func (t *Transport) Subscribe(ctx context.Context, address string, h remote.HandlerFunc) (remote.Subscription, error) {
	if t.closed.Load() {
		return nil, remote.ErrTransportClosed
	}
	subj := t.subjectFor(address)

	sub, err := t.nc.Subscribe(subj, func(msg *natsgo.Msg) {
		var env remote.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			t.log.Error("failed to decode envelope", slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		env.ReplyTo = msg.Reply

		t.mu.Lock()
		if t.closed.Load() {
			t.mu.Unlock()
			return
		}
		t.handlers.Add(1)
		t.mu.Unlock()

		if env.ReplyTo == "" {
			// NATS calls back serially per subscription, which keeps
			// publishes in order
			t.invokeHandler(ctx, h, msg, env)
			return
		}
		go t.invokeHandler(ctx, h, msg, env)
	})
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe %s: %w", subj, err)
	}

	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()

	t.log.Debug("subscribed", slog.String("address", address), slog.String("subject", subj))

	// Handle context cancellation by auto-unsubscribing
	context.AfterFunc(ctx, func() {
		_ = sub.Unsubscribe()
		t.mu.Lock()
		delete(t.subs, sub)
		t.mu.Unlock()
	})

	return &subscription{sub: sub, t: t}, nil
}

func (t *Transport) invokeHandler(ctx context.Context, h remote.HandlerFunc, msg *natsgo.Msg, env remote.Envelope) {
	defer t.handlers.Done()

	var (
		data []byte
		err  error
	)
	if env.Expired() {
		err = remote.ErrEnvelopeExpired
	} else {
		hctx, cancel := context.WithTimeout(ctx, t.handlerTimeout)
		data, err = h(hctx, env)
		if err != nil && errors.Is(hctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", remote.ErrHandlerTimeout, err)
		}
		cancel()
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

	if err := msg.Respond(remote.EncodeResponse(data, err)); err != nil {
		t.log.Error("failed to publish reply", slog.Any("error", err))
	}
}

type subscription struct {
	sub *natsgo.Subscription
	t   *Transport
}

func (s *subscription) Unsubscribe() error {
	if s.sub == nil {
		return nil
	}
	err := s.sub.Unsubscribe()
	s.t.mu.Lock()
	delete(s.t.subs, s.sub)
	s.t.mu.Unlock()
	if errors.Is(err, natsgo.ErrBadSubscription) || errors.Is(err, natsgo.ErrConnectionClosed) {
		return nil
	}
	return err
}

var _ remote.Transport = &Transport{}
