package actor

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// NoHost is the address of a system that is not reachable from the network.
	NoHost = "nohost"
	// ClientPrefix prefixes the ids of future processes backing requests.
	ClientPrefix = "$client"
)

// PID identifies one actor instance, local or remote.
//
// Identity is defined by Address and ID only. RequestID is a correlation
// tag and is ignored by [PID.Equal] and [PID.Key].
type PID struct {
	Address   string `json:"address"`
	ID        string `json:"id"`
	RequestID uint32 `json:"request_id,omitempty"`
}

// NewPID creates a PID for id hosted at address.
func NewPID(address, id string) PID {
	if address == "" {
		address = NoHost
	}
	return PID{Address: address, ID: id}
}

// WithRequestID returns a copy of p carrying the correlation tag.
func (p PID) WithRequestID(id uint32) PID {
	p.RequestID = id
	return p
}

// Equal reports whether p and o name the same actor.
func (p PID) Equal(o PID) bool { return p.Address == o.Address && p.ID == o.ID }

// Key is a map key for p that ignores the correlation tag.
func (p PID) Key() string { return p.Address + "/" + p.ID }

// IsZero reports whether p is unset.
func (p PID) IsZero() bool { return p.Address == "" && p.ID == "" }

func (p PID) String() string {
	if p.RequestID != 0 {
		return fmt.Sprintf("%s/%s#%d", p.Address, p.ID, p.RequestID)
	}
	return p.Key()
}

// protobuf field numbers of the PID message
const (
	pidFieldAddress   protowire.Number = 1
	pidFieldID        protowire.Number = 2
	pidFieldRequestID protowire.Number = 3
)

// MarshalBinary encodes p in protobuf wire format. Zero fields are omitted.
func (p PID) MarshalBinary() ([]byte, error) {
	var b []byte
	if p.Address != "" {
		b = protowire.AppendTag(b, pidFieldAddress, protowire.BytesType)
		b = protowire.AppendString(b, p.Address)
	}
	if p.ID != "" {
		b = protowire.AppendTag(b, pidFieldID, protowire.BytesType)
		b = protowire.AppendString(b, p.ID)
	}
	if p.RequestID != 0 {
		b = protowire.AppendTag(b, pidFieldRequestID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.RequestID))
	}
	return b, nil
}

// UnmarshalBinary decodes the protobuf wire format. Unknown fields are skipped.
func (p *PID) UnmarshalBinary(b []byte) error {
	*p = PID{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("pid: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == pidFieldAddress && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("pid: address: %w", protowire.ParseError(n))
			}
			p.Address, b = v, b[n:]
		case num == pidFieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("pid: id: %w", protowire.ParseError(n))
			}
			p.ID, b = v, b[n:]
		case num == pidFieldRequestID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("pid: request_id: %w", protowire.ParseError(n))
			}
			p.RequestID, b = uint32(v), b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("pid: field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}
