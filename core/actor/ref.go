package actor

import "context"

// Ref is the address of one actor instance. It can be copied freely and
// used from any goroutine. Once the actor has stopped every message sent
// through the Ref becomes a dead letter.
type Ref struct {
	pid  PID
	proc Process
	sys  *ActorSystem
}

func (r *Ref) PID() PID       { return r.pid }
func (r *Ref) String() string { return r.pid.String() }

// Equal reports whether both refs address the same actor.
func (r *Ref) Equal(o *Ref) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.pid.Equal(o.pid)
}

// Tell sends msg without waiting. Delivery failures are dead letters and
// never reported to the caller.
func (r *Ref) Tell(msg any) {
	r.post(newEnvelope(msg, nil))
}

// Stop asks the actor to stop after it has processed every message
// accepted so far.
func (r *Ref) Stop() { r.proc.Stop() }

// Done is closed once the actor has stopped.
func (r *Ref) Done() <-chan struct{} { return r.proc.Done() }

func (r *Ref) post(env Envelope) {
	if err := r.proc.Post(env); err != nil {
		r.sys.deadLetters.post(r.pid, env, err)
	}
}

// Request sends msg to target and waits for the handler result. It returns
// early with ctx.Err() when ctx ends first.
//
//	n, err := actor.Request[Increment, int](ctx, counter, Increment{})
func Request[IN, OUT any](ctx context.Context, target *Ref, msg IN) (OUT, error) {
	f, err := RequestFuture[IN, OUT](ctx, target, msg)
	if err != nil {
		var zero OUT
		return zero, err
	}
	return f.Result(ctx)
}

// RequestFuture sends msg to target and returns the pending reply.
//
// Calling it from a handler with the handler Context as ctx and the actor
// itself as target fails with [ErrSelfRequest], since the actor could never
// answer while it waits.
func RequestFuture[IN, OUT any](ctx context.Context, target *Ref, msg IN) (*Future[OUT], error) {
	if c, ok := ctx.Value(ctxKey{}).(*actorContext); ok && c.inHandler.Load() && c.cell.pid.Equal(target.pid) {
		return nil, ErrSelfRequest
	}
	f := newFuture[OUT](target.sys)
	target.post(newEnvelope(msg, f))
	return f, nil
}

// Publish sends msg to target and waits until the handler has run. Unlike
// Tell, a handler error is returned.
func Publish[IN any](ctx context.Context, target *Ref, msg IN) error {
	_, err := Request[IN, any](ctx, target, msg)
	return err
}

