package remote

import "github.com/codewandler/actr-go/core/actor"

// remoteProcess forwards envelopes for one PID hosted by another system.
type remoteProcess struct {
	r   *Remote
	pid actor.PID
}

func (p *remoteProcess) Post(env actor.Envelope) error { return p.r.send(p.pid, env) }
func (p *remoteProcess) Stop()                         { p.r.stopRemote(p.pid) }

// Done closes when the Remote stops. The hosting system does not report
// when the actor itself terminates.
func (p *remoteProcess) Done() <-chan struct{} { return p.r.ctx.Done() }

var _ actor.Process = (*remoteProcess)(nil)
