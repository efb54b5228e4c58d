package actor

import "fmt"

// Process is anything a [PID] can resolve to: a local actor, a pending
// future, the dead-letter sink or a proxy installed by an extension such as
// the remote transport.
type Process interface {
	// Post hands env to the process. An error means the envelope was not
	// accepted; the caller turns it into a dead letter.
	Post(env Envelope) error
	// Stop asks the process to terminate. It does not wait.
	Stop()
	// Done is closed once the process has terminated.
	Done() <-chan struct{}
}

// AddressResolver maps a non-local PID to a process. Extensions register
// resolvers with [ActorSystem.RegisterResolver].
type AddressResolver func(pid PID) (Process, bool)

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// deadProcess stands in for PIDs that resolve to nothing.
type deadProcess struct{ pid PID }

func (p deadProcess) Post(Envelope) error {
	return fmt.Errorf("%s: %w", p.pid, ErrDeadLetter)
}

func (deadProcess) Stop()                 {}
func (deadProcess) Done() <-chan struct{} { return closedChan }
