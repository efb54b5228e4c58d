// Package remote lets actors of one system address actors of another.
//
// A [Remote] serves the address of its [actor.ActorSystem] on a
// [Transport] and installs a resolver, so a PID with a foreign address
// resolves to a proxy process. Tell, Request and Stop through that proxy
// travel as an [Envelope]:
//
//	r, err := remote.New(sys, remote.Options{Transport: tr})
//	remote.Register[Ping, Pong](r)
//	err = r.Start(ctx)
//
//	pong, err := actor.Request[Ping, Pong](ctx, r.RefOf("10.0.0.2:7000", "ponger"), Ping{})
//
// # Message types
//
// Payloads are encoded with the configured [Codec] (JSON by default) and
// routed by their message type name. The receiving side decodes only
// registered types ([Register], [RegisterMsg]); anything else is answered
// with [ErrUnknownMessageType].
//
// # Errors
//
// Runtime errors raised on the hosting side come back as a [RemoteError]
// that unwraps to the matching sentinel, so errors.Is(err,
// actor.ErrDeadLetter) behaves the same for local and remote targets.
// Transport failures resolve the request with the transport error
// ([ErrNoSubscriber], [ErrEnvelopeExpired], [ErrTransportClosed]).
//
// # Ordering
//
// Tells are published synchronously and keep per-sender order on an
// ordered transport. Requests run concurrently, so two pipelined requests
// may be delivered in either order.
//
// # Transports
//
// [MemoryTransport] connects systems in one process. The adapters/nats
// package provides a NATS implementation.
package remote
