package actor

// RootContext spawns and messages actors from outside any actor. It is a
// small value and may be copied.
type RootContext struct {
	sys *ActorSystem
}

func (r RootContext) System() *ActorSystem { return r.sys }

// Spawn starts an actor under a generated name.
func (r RootContext) Spawn(props *Props) *Ref {
	return r.SpawnPrefix("", props)
}

// SpawnPrefix starts an actor under a generated name beginning with prefix.
// After Shutdown the returned Ref only produces dead letters.
func (r RootContext) SpawnPrefix(prefix string, props *Props) *Ref {
	ref, err := r.sys.spawnGenerated(prefix, props, nil)
	if err != nil {
		return r.sys.deadRef(err)
	}
	return ref
}

// SpawnNamed starts an actor under name. It fails with [ErrNameExists] if
// the name is taken; the existing actor is left untouched.
func (r RootContext) SpawnNamed(name string, props *Props) (*Ref, error) {
	return r.sys.spawn(name, props, nil)
}

// Send delivers msg to target without waiting.
func (r RootContext) Send(target *Ref, msg any) { target.Tell(msg) }

// Resolve finds a registered local actor by name.
func (r RootContext) Resolve(name string) (*Ref, bool) {
	p, ok := r.sys.registry.Get(name)
	if !ok {
		return nil, false
	}
	if _, isActor := p.(*actorCell); !isActor {
		return nil, false
	}
	return &Ref{pid: NewPID(r.sys.address, name), proc: p, sys: r.sys}, true
}

// Stop asks target to stop once its queued messages are handled.
func (r RootContext) Stop(target *Ref) { target.Stop() }
