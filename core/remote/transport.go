package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type Subscription interface {
	Unsubscribe() error
}

// HandlerFunc handles one inbound envelope. For requests the returned bytes
// are the reply.
type HandlerFunc = func(ctx context.Context, env Envelope) ([]byte, error)

type ClientTransport interface {
	// Request delivers env to the subscriber of env.Target.Address and
	// waits for its reply.
	Request(ctx context.Context, env Envelope) ([]byte, error)
	// Publish delivers env without waiting for the handler.
	Publish(ctx context.Context, env Envelope) error

	Close() error
}

type ServerTransport interface {
	// Subscribe delivers envelopes addressed to address to h until the
	// subscription is removed or ctx ends.
	Subscribe(ctx context.Context, address string, h HandlerFunc) (Subscription, error)

	Close() error
}

// Transport moves envelopes between actor systems.
type Transport interface {
	ClientTransport
	ServerTransport
}

// ResponseFrame is how transports carry a handler result, so every
// transport answers requests the same way.
type ResponseFrame struct {
	Data []byte `json:"data,omitempty"`
	Err  string `json:"err,omitempty"`
}

// EncodeResponse builds the reply payload for a handler result.
func EncodeResponse(data []byte, err error) []byte {
	rf := ResponseFrame{Data: data}
	if err != nil {
		rf.Err = err.Error()
		rf.Data = nil
	}
	b, _ := json.Marshal(rf)
	return b
}

// DecodeResponse is the inverse of EncodeResponse.
func DecodeResponse(b []byte) ([]byte, error) {
	var rf ResponseFrame
	if err := json.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rf.Err != "" {
		return nil, errors.New(rf.Err)
	}
	return rf.Data, nil
}
