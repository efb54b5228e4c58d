// Package codec encodes message payloads for the remote transport.
package codec

import (
	"encoding"
	"encoding/json"
	"fmt"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default payload codec.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// BinaryCodec uses encoding.BinaryMarshaler / BinaryUnmarshaler where a value
// implements them and Fallback (JSON if nil) otherwise. Both ends must use
// the same codec.
type BinaryCodec struct {
	Fallback Codec
}

func (c BinaryCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(encoding.BinaryMarshaler); ok {
		b, err := m.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("codec: marshal %T: %w", v, err)
		}
		return b, nil
	}
	return c.fallback().Marshal(v)
}

func (c BinaryCodec) Unmarshal(b []byte, v any) error {
	if u, ok := v.(encoding.BinaryUnmarshaler); ok {
		if err := u.UnmarshalBinary(b); err != nil {
			return fmt.Errorf("codec: unmarshal %T: %w", v, err)
		}
		return nil
	}
	return c.fallback().Unmarshal(b, v)
}

func (c BinaryCodec) fallback() Codec {
	if c.Fallback == nil {
		return JSONCodec{}
	}
	return c.Fallback
}
