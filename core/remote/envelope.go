package remote

import (
	"fmt"
	"strings"
	"time"

	"github.com/codewandler/actr-go/core/actor"
)

// reservedHeaderPrefix is kept for the runtime; user headers may not use it.
const reservedHeaderPrefix = "x-actr-"

type EnvelopeOption func(*Envelope)

func WithHeader(key, value string) EnvelopeOption {
	return func(e *Envelope) {
		if e.Headers == nil {
			e.Headers = make(map[string]string)
		}
		e.Headers[key] = value
	}
}

// WithTTL drops the envelope if it is not delivered within ttl.
func WithTTL(ttl time.Duration) EnvelopeOption {
	return func(e *Envelope) {
		e.TTLMs = ttl.Milliseconds()
	}
}

// Envelope is one message on the wire. Transports route it by
// Target.Address.
type Envelope struct {
	Target      actor.PID         `json:"target"`
	Sender      *actor.PID        `json:"sender,omitempty"`
	Type        string            `json:"type"`
	Data        []byte            `json:"data"`
	ReplyTo     string            `json:"reply_to,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	TTLMs       int64             `json:"ttl_ms,omitempty"`
	CreatedAtMs int64             `json:"created_at_ms,omitempty"`
}

func (e Envelope) GetHeader(key string) (string, bool) {
	if e.Headers == nil {
		return "", false
	}
	v, ok := e.Headers[key]
	return v, ok
}

// Validate rejects envelopes without a target and user headers in the
// reserved namespace.
func (e Envelope) Validate() error {
	if e.Target.ID == "" {
		return ErrTargetRequired
	}
	for k := range e.Headers {
		if strings.HasPrefix(strings.ToLower(k), reservedHeaderPrefix) {
			return fmt.Errorf("%w: %s", ErrReservedHeader, k)
		}
	}
	return nil
}

// Stamp sets CreatedAtMs if a TTL is set and the envelope has no creation
// time yet.
func (e *Envelope) Stamp(now time.Time) {
	if e.TTLMs > 0 && e.CreatedAtMs == 0 {
		e.CreatedAtMs = now.UnixMilli()
	}
}

// Expired reports whether the TTL has passed. Envelopes without TTL or
// creation time never expire.
func (e Envelope) Expired() bool {
	if e.TTLMs <= 0 || e.CreatedAtMs <= 0 {
		return false
	}
	return time.Now().UnixMilli() > e.CreatedAtMs+e.TTLMs
}

// TTL returns the remaining time to live, 0 if none is set or it expired.
func (e Envelope) TTL() time.Duration {
	if e.TTLMs <= 0 || e.CreatedAtMs <= 0 {
		return 0
	}
	remaining := e.CreatedAtMs + e.TTLMs - time.Now().UnixMilli()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}
