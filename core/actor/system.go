package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ActorSystem hosts actors. It owns the registry, the dead-letter sink and
// the executor actor loops run on. Systems are independent of each other;
// there is no process-wide state.
type ActorSystem struct {
	cfg     Config
	address string
	log     *slog.Logger
	metrics ActorMetrics
	exec    Executor
	onPanic OnPanic

	registry    *Registry
	requestSeq  atomic.Uint64
	deadLetters *deadLetters

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	stopping  bool
	resolvers []AddressResolver

	loops sync.WaitGroup
	done  chan struct{}
}

// NewActorSystem creates a running system. An empty Name or Host and a
// non-positive WorkerThreads fall back to [DefaultConfig]; every other field
// is used as given, so start from DefaultConfig to keep dead letter
// throttling and request logging on.
func NewActorSystem(cfg Config, opts ...Option) *ActorSystem {
	cfg = cfg.withDefaults()

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	if o.metrics == nil || !cfg.MetricsEnabled {
		o.metrics = NopActorMetrics()
	}
	if o.executor == nil {
		o.executor = goExecutor{}
	}

	address := cfg.Address()
	log := o.log.With(slog.String("system", cfg.Name), slog.String("address", address))

	if o.onPanic == nil {
		o.onPanic = func(pid PID, recovered any, stack []byte, msg any) {
			log.Error(
				"actor panicked",
				slog.String("actor", pid.String()),
				slog.Any("recovered", recovered),
				slog.String("stack", string(stack)),
				slog.String("msg_type", msgTypeOf(msg)),
			)
		}
	}

	ctx, cancel := context.WithCancel(o.ctx)

	return &ActorSystem{
		cfg:         cfg,
		address:     address,
		log:         log,
		metrics:     o.metrics,
		exec:        o.executor,
		onPanic:     o.onPanic,
		registry:    newRegistry(address),
		deadLetters: newDeadLetters(cfg, log, o.metrics),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

func (s *ActorSystem) Config() Config       { return s.cfg }
func (s *ActorSystem) Address() string      { return s.address }
func (s *ActorSystem) Logger() *slog.Logger { return s.log }
func (s *ActorSystem) Registry() *Registry  { return s.registry }

// Root returns the context for code running outside of any actor.
func (s *ActorSystem) Root() RootContext { return RootContext{sys: s} }

// Done is closed after Shutdown once every actor loop has exited.
func (s *ActorSystem) Done() <-chan struct{} { return s.done }

// IsLocal reports whether pid belongs to this system.
func (s *ActorSystem) IsLocal(pid PID) bool {
	return pid.Address == s.address || pid.Address == NoHost || pid.Address == ""
}

// RegisterResolver installs r for PIDs of other systems. Resolvers are
// asked in registration order.
func (s *ActorSystem) RegisterResolver(r AddressResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvers = append(s.resolvers, r)
}

// RefOf returns a Ref for pid. PIDs that resolve to nothing yield a Ref
// whose messages become dead letters.
func (s *ActorSystem) RefOf(pid PID) *Ref {
	if s.IsLocal(pid) {
		if p, ok := s.registry.Get(pid.ID); ok {
			return &Ref{pid: pid, proc: p, sys: s}
		}
		return &Ref{pid: pid, proc: deadProcess{pid: pid}, sys: s}
	}

	s.mu.RLock()
	resolvers := s.resolvers
	s.mu.RUnlock()

	for _, r := range resolvers {
		if p, ok := r(pid); ok {
			return &Ref{pid: pid, proc: p, sys: s}
		}
	}
	return &Ref{pid: pid, proc: deadProcess{pid: pid}, sys: s}
}

// DeadLetter records env as undeliverable to target. Extensions call it
// for envelopes they accepted but could not forward.
func (s *ActorSystem) DeadLetter(target PID, env Envelope, cause error) {
	s.deadLetters.post(target, env, cause)
}

func (s *ActorSystem) spawn(id string, props *Props, parent *actorCell) (*Ref, error) {
	if props == nil {
		panic("actor: nil props")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopping {
		return nil, ErrSystemStopped
	}

	cell := newActorCell(s, NewPID(s.address, id), props, parent)
	if _, ok := s.registry.Add(id, cell); !ok {
		cell.cancel()
		return nil, fmt.Errorf("%q: %w", id, ErrNameExists)
	}
	if parent != nil {
		parent.addChild(cell)
	}

	s.metrics.ActorSpawned()
	s.loops.Add(1)
	s.exec.Execute(func() {
		defer s.loops.Done()
		cell.run()
	})
	return cell.self, nil
}

// spawnGenerated retries on the rare collision of a generated name with a
// name chosen by the user.
func (s *ActorSystem) spawnGenerated(prefix string, props *Props, parent *actorCell) (*Ref, error) {
	for {
		ref, err := s.spawn(s.registry.NextID(prefix), props, parent)
		if !errors.Is(err, ErrNameExists) {
			return ref, err
		}
	}
}

func (s *ActorSystem) deadRef(err error) *Ref {
	pid := NewPID(s.address, "$dead")
	s.log.Warn("spawn failed", slog.Any("error", err))
	return &Ref{pid: pid, proc: deadProcess{pid: pid}, sys: s}
}

// Shutdown stops every actor, letting each drain the messages it already
// accepted, and waits until all loops have exited or ctx ends. Spawning
// fails with [ErrSystemStopped] afterwards.
func (s *ActorSystem) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	first := !s.stopping
	s.stopping = true
	s.mu.Unlock()

	if first {
		s.log.Info("actor system stopping", slog.Int("processes", s.registry.Len()))
		go func() {
			s.loops.Wait()
			s.cancel()
			close(s.done)
			s.log.Info("actor system stopped")
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range s.registry.processes() {
		cell, ok := p.(*actorCell)
		if !ok {
			continue
		}
		g.Go(func() error {
			cell.Stop()
			select {
			case <-cell.Done():
				return nil
			case <-gctx.Done():
				return fmt.Errorf("stop %s: %w", cell.pid, gctx.Err())
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
