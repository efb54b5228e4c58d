package actor

import "errors"

var (
	// Spawn errors
	ErrNameExists    = errors.New("actor name already exists")
	ErrSystemStopped = errors.New("actor system stopped")

	// Delivery errors
	ErrMailboxFull   = errors.New("mailbox full")
	ErrMailboxClosed = errors.New("mailbox closed")
	ErrDeadLetter    = errors.New("dead letter")
	ErrActorStopped  = errors.New("actor stopped")

	// Dispatch errors
	ErrNoHandler    = errors.New("no handler for message")
	ErrResultType   = errors.New("unexpected result type")
	ErrSelfRequest  = errors.New("actor cannot request itself")
	ErrHandlerPanic = errors.New("handler panicked")
)
