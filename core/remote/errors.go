package remote

import (
	"errors"
	"fmt"
)

var (
	// Transport errors
	ErrTransportClosed = errors.New("transport closed")
	ErrNoSubscriber    = errors.New("no subscriber for address")

	// Envelope errors
	ErrEnvelopeExpired = errors.New("envelope TTL expired")
	ErrReservedHeader  = errors.New("cannot set reserved header")
	ErrTargetRequired  = errors.New("target is required")

	// Handler errors
	ErrHandlerTimeout     = errors.New("handler exceeded deadline")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMisrouted          = errors.New("target is not hosted here")

	// Remote errors
	ErrNoAddress = errors.New("actor system has no network address")
	ErrStopped   = errors.New("remote stopped")
)

// RemoteError is a failure reported by the system hosting the target actor.
// Known runtime errors survive the trip, so errors.Is works across systems:
//
//	errors.Is(err, actor.ErrNoHandler)
type RemoteError struct {
	Address string
	Msg     string
	causes  []error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s", e.Address, e.Msg)
}

func (e *RemoteError) Unwrap() []error { return e.causes }
