// Package actor is a mailbox-based actor runtime.
//
// An actor is a unit of state that is only ever touched by its own loop.
// The loop takes one [Envelope] at a time from the actor's [Mailbox] and
// dispatches it to the handler registered for the message type, so no two
// handlers of one actor ever run at the same time. Everything else talks to
// the actor through a [Ref].
//
// # Defining actors
//
// Handlers are registered per message type. The routing name of a type is
// its fully qualified Go name unless the type has a MsgType() string method.
//
//	type counter struct{ n int }
//
//	func (a *counter) Register(r actor.HandlerRegistrar) {
//	    r.Handle(
//	        actor.HandleRequest(func(c actor.Context, _ Increment) (int, error) {
//	            a.n++
//	            return a.n, nil
//	        }),
//	        actor.HandleEvery(time.Minute, a.flush),
//	    )
//	}
//
// Actors made of handlers only can use [TypedHandlers] or
// [PropsFromHandlers]. Implement [Starter] or [Stopper] for lifecycle hooks.
//
// # Spawning
//
//	sys := actor.NewActorSystem(actor.DefaultConfig())
//	root := sys.Root()
//	ref := root.Spawn(actor.PropsFromProducer(func() actor.Actor { return &counter{} }))
//	named, err := root.SpawnNamed("counter", props.WithMailbox(actor.Bounded(128)))
//
// # Messaging
//
// [Ref.Tell] is fire-and-forget: messages that cannot be delivered become
// dead letters and are logged (throttled), never returned. [Request] waits
// for the handler result:
//
//	n, err := actor.Request[Increment, int](ctx, ref, Increment{})
//
// A request always ends with a value or an error. If the target is gone,
// its mailbox is full or sealed, or the handler panics, the error says so.
//
// # Stopping
//
// [Ref.Stop] and [Context.Stop] seal the mailbox. Messages accepted before
// the seal are still handled, later ones are dead letters. Then children
// are stopped, the Stopped hook runs and the name is released.
// [ActorSystem.Shutdown] does this for every actor.
//
// A panicking handler is recovered: the asker gets [ErrHandlerPanic], the
// actor terminates without running its Stopped hook and OnPanic is called.
// There is no restart.
package actor
