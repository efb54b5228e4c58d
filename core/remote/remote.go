package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/actr-go/core/actor"
	"github.com/codewandler/actr-go/internal/codec"
)

// Codec encodes message payloads. Both systems must use the same one.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type Options struct {
	Transport Transport
	// Codec defaults to JSON.
	Codec Codec
	Log   *slog.Logger
	// Metrics defaults to NopRemoteMetrics.
	Metrics RemoteMetrics
	// RequestTimeout bounds one outbound request. Defaults to 30s.
	RequestTimeout time.Duration
	// EnvelopeOptions are applied to every outbound envelope.
	EnvelopeOptions []EnvelopeOption
}

// Remote connects an actor system to others through a Transport. It serves
// the system's address and resolves PIDs of other addresses to proxies that
// forward over the transport.
type Remote struct {
	id      string
	sys     *actor.ActorSystem
	t       Transport
	codec   Codec
	log     *slog.Logger
	metrics RemoteMetrics
	timeout time.Duration
	envOpts []EnvelopeOption
	types   *typeRegistry

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	started  bool
	stopped  bool
	sub      Subscription
	inflight sync.WaitGroup
	active   atomic.Int64
}

// New creates a Remote for sys. The system needs a network address, see
// [actor.Config.Host].
func New(sys *actor.ActorSystem, opts Options) (*Remote, error) {
	if sys.Address() == actor.NoHost {
		return nil, ErrNoAddress
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("remote: Options.Transport is required")
	}
	if opts.Codec == nil {
		opts.Codec = codec.JSONCodec{}
	}
	if opts.Log == nil {
		opts.Log = sys.Logger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopRemoteMetrics()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	id := fmt.Sprintf("remote-%s", gonanoid.Must(6))
	ctx, cancel := context.WithCancel(context.Background())

	return &Remote{
		id:      id,
		sys:     sys,
		t:       opts.Transport,
		codec:   opts.Codec,
		log:     opts.Log.With(slog.String("remote", id)),
		metrics: opts.Metrics,
		timeout: opts.RequestTimeout,
		envOpts: opts.EnvelopeOptions,
		types:   newTypeRegistry(),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (r *Remote) ID() string                 { return r.id }
func (r *Remote) System() *actor.ActorSystem { return r.sys }

// RefOf returns a Ref for the actor id hosted at address.
func (r *Remote) RefOf(address, id string) *actor.Ref {
	return r.sys.RefOf(actor.NewPID(address, id))
}

// Start subscribes the system address and installs the resolver for PIDs
// of other addresses. Register message types before calling it.
func (r *Remote) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrStopped
	}
	if r.started {
		return fmt.Errorf("remote: already started")
	}

	sub, err := r.t.Subscribe(ctx, r.sys.Address(), r.handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.sys.Address(), err)
	}
	r.sub = sub
	r.started = true

	r.sys.RegisterResolver(r.resolve)

	r.log.Info(
		"remote started",
		slog.String("address", r.sys.Address()),
		slog.Any("types", r.types.names()),
	)
	return nil
}

// Stop unsubscribes, cancels outbound requests and waits for them. Later
// sends to remote PIDs become dead letters. The transport is left open.
func (r *Remote) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	sub := r.sub
	r.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			r.log.Warn("unsubscribe failed", slog.Any("error", err))
		}
	}
	r.cancel()
	r.inflight.Wait()
	r.log.Info("remote stopped")
}

func (r *Remote) resolve(pid actor.PID) (actor.Process, bool) {
	if pid.Address == "" || pid.Address == actor.NoHost {
		return nil, false
	}
	return &remoteProcess{r: r, pid: pid}, true
}

func (r *Remote) acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.inflight.Add(1)
	return true
}

func (r *Remote) newEnvelope(target actor.PID, sender *actor.PID, msgType string, data []byte) (Envelope, error) {
	e := Envelope{
		Target: target,
		Sender: sender,
		Type:   msgType,
		Data:   data,
	}
	for _, opt := range r.envOpts {
		opt(&e)
	}
	if err := e.Validate(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// send forwards env to target. Requests complete asynchronously; the reply
// or the failure resolves env.
func (r *Remote) send(target actor.PID, env actor.Envelope) error {
	if !r.acquire() {
		return ErrStopped
	}

	data, err := r.codec.Marshal(env.Message())
	if err != nil {
		r.inflight.Done()
		return fmt.Errorf("encode %s: %w", env.MessageType(), err)
	}
	wire, err := r.newEnvelope(target, env.Sender(), env.MessageType(), data)
	if err != nil {
		r.inflight.Done()
		return err
	}

	if !env.ExpectsReply() {
		defer r.inflight.Done()
		return r.notify(wire)
	}

	go func() {
		defer r.inflight.Done()
		r.request(wire, env)
	}()
	return nil
}

func (r *Remote) notify(wire Envelope) error {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	err := r.t.Publish(ctx, wire)
	r.metrics.NotifyCompleted(wire.Type, err == nil)
	if err != nil {
		r.recordTransportError(err)
		return fmt.Errorf("remote %s: %w", wire.Target, err)
	}
	return nil
}

func (r *Remote) request(wire Envelope, env actor.Envelope) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	timer := r.metrics.RequestDuration(wire.Type)
	b, err := r.t.Request(ctx, wire)
	timer.ObserveDuration()
	if err != nil {
		r.metrics.RequestCompleted(wire.Type, false)
		r.recordTransportError(err)
		env.Resolve(nil, fmt.Errorf("remote %s: %w", wire.Target, err))
		return
	}

	data, err := decodeReply(wire.Target.Address, b)
	r.metrics.RequestCompleted(wire.Type, err == nil)
	if err != nil {
		env.Resolve(nil, err)
		return
	}
	env.ResolveDecoded(func(into any) error {
		return r.codec.Unmarshal(data, into)
	})
}

// recordTransportError maps known transport errors to metric labels.
func (r *Remote) recordTransportError(err error) {
	switch {
	case errors.Is(err, ErrNoSubscriber):
		r.metrics.TransportError("no_subscriber")
	case errors.Is(err, ErrHandlerTimeout), errors.Is(err, context.DeadlineExceeded):
		r.metrics.TransportError("timeout")
	case errors.Is(err, ErrEnvelopeExpired):
		r.metrics.TransportError("ttl_expired")
	case errors.Is(err, ErrTransportClosed):
		r.metrics.TransportError("closed")
	}
}

func (r *Remote) stopRemote(target actor.PID) {
	if !r.acquire() {
		return
	}
	defer r.inflight.Done()

	wire, err := r.newEnvelope(target, nil, stopMsgType, nil)
	if err == nil {
		err = r.notify(wire)
	}
	if err != nil {
		r.log.Warn("remote stop failed", slog.String("target", target.String()), slog.Any("error", err))
	}
}

// handle serves envelopes addressed to this system.
func (r *Remote) handle(ctx context.Context, env Envelope) ([]byte, error) {
	r.log.Debug(
		"handle",
		slog.Group(
			"envelope",
			slog.String("target", env.Target.String()),
			slog.String("type", env.Type),
			slog.Any("headers", env.Headers),
		),
	)

	r.metrics.HandlersActive(r.sys.Address(), int(r.active.Add(1)))
	defer func() { r.metrics.HandlersActive(r.sys.Address(), int(r.active.Add(-1))) }()

	timer := r.metrics.HandlerDuration(env.Type)
	data, err := r.deliver(ctx, env)
	timer.ObserveDuration()
	r.metrics.HandlerCompleted(env.Type, err == nil)

	if err != nil && env.ReplyTo == "" {
		r.log.Warn(
			"failed to deliver message",
			slog.String("target", env.Target.String()),
			slog.String("type", env.Type),
			slog.Any("error", err),
		)
	}
	return encodeReply(data, err), nil
}

func (r *Remote) deliver(ctx context.Context, env Envelope) ([]byte, error) {
	if env.Target.Address != r.sys.Address() {
		return nil, fmt.Errorf("%w: %s", ErrMisrouted, env.Target)
	}

	ref := r.sys.RefOf(env.Target)

	if env.Type == stopMsgType {
		ref.Stop()
		return nil, nil
	}

	msg, err := r.types.decode(r.codec, env.Type, env.Data)
	if err != nil {
		return nil, err
	}

	if env.ReplyTo == "" {
		ref.Tell(msg)
		return nil, nil
	}

	res, err := actor.Request[any, any](ctx, ref, msg)
	if err != nil {
		return nil, err
	}
	return r.codec.Marshal(res)
}
