package actor

import (
	"context"
	"fmt"
	"sync"
)

// replySink is the one-shot reply side of a request.
type replySink interface {
	resolve(result any, err error) bool
	resolveDecoded(decode func(into any) error) bool
	replyPID() PID
}

// Future is the pending result of a request. Exactly one result is ever
// stored; later resolutions are rejected.
type Future[R any] struct {
	sys  *ActorSystem
	pid  PID
	done chan struct{}
	once sync.Once
	res  R
	err  error
}

func newFuture[R any](sys *ActorSystem) *Future[R] {
	f := &Future[R]{sys: sys, done: make(chan struct{})}
	proc := &futureProcess[R]{f: f}
	for {
		pid, ok := sys.registry.Add(sys.registry.NextID(ClientPrefix+"/"), proc)
		if ok {
			f.pid = pid
			break
		}
	}
	f.pid.RequestID = uint32(sys.requestSeq.Add(1))
	return f
}

// PID is the address replies for this future are sent to.
func (f *Future[R]) PID() PID { return f.pid }

// Done is closed once the future holds a result.
func (f *Future[R]) Done() <-chan struct{} { return f.done }

// Result waits for the reply. If ctx ends first the future is abandoned and
// any later reply is dropped.
func (f *Future[R]) Result(ctx context.Context) (R, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero R
		f.complete(zero, ctx.Err())
	}
	return f.res, f.err
}

func (f *Future[R]) complete(res R, err error) bool {
	won := false
	f.once.Do(func() {
		f.res, f.err = res, err
		won = true
		close(f.done)
		f.sys.registry.Remove(f.pid.ID)
	})
	return won
}

func (f *Future[R]) resolve(result any, err error) bool {
	var zero R
	if err != nil {
		return f.complete(zero, err)
	}
	if result == nil {
		return f.complete(zero, nil)
	}
	r, ok := result.(R)
	if !ok {
		return f.complete(zero, fmt.Errorf("%w: want %s, got %T", ErrResultType, typeName[R](), result))
	}
	return f.complete(r, nil)
}

func (f *Future[R]) resolveDecoded(decode func(into any) error) bool {
	var r R
	if err := decode(&r); err != nil {
		var zero R
		return f.complete(zero, err)
	}
	return f.complete(r, nil)
}

func (f *Future[R]) replyPID() PID { return f.pid }

func typeName[T any]() string { return fmt.Sprintf("%T", *new(T)) }

// futureProcess makes a future addressable so a reply can also arrive as a
// plain message to Future.PID.
type futureProcess[R any] struct{ f *Future[R] }

func (p *futureProcess[R]) Post(env Envelope) error {
	if !p.f.resolve(env.Message(), nil) {
		return fmt.Errorf("future %s: %w", p.f.pid, ErrDeadLetter)
	}
	return nil
}

func (p *futureProcess[R]) Stop() {
	var zero R
	p.f.complete(zero, ErrActorStopped)
}

func (p *futureProcess[R]) Done() <-chan struct{} { return p.f.done }
