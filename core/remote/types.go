package remote

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/codewandler/actr-go/core/actor"
)

// stopMsgType asks the hosting system to stop the target actor.
const stopMsgType = "$stop"

type decodeFunc = func(c Codec, data []byte) (any, error)

// typeRegistry maps message type names to decoders producing the Go value
// the local handler expects.
type typeRegistry struct {
	mu    sync.RWMutex
	types map[string]decodeFunc
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{types: make(map[string]decodeFunc)}
}

func (r *typeRegistry) add(name string, d decodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = d
}

func (r *typeRegistry) decode(c Codec, name string, data []byte) (any, error) {
	r.mu.RLock()
	d, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, name)
	}
	return d(c, data)
}

func (r *typeRegistry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	return names
}

func registerType[M any](r *Remote) bool {
	if reflect.TypeFor[M]().Kind() == reflect.Interface {
		return false
	}
	r.types.add(actor.MsgTypeFor[M](), func(c Codec, data []byte) (any, error) {
		var m M
		if err := c.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode %T: %w", m, err)
		}
		return m, nil
	})
	return true
}

// RegisterMsg makes messages of type M deliverable to actors of the system
// r serves. Both systems must route M by the same name.
func RegisterMsg[M any](r *Remote) {
	if !registerType[M](r) {
		panic(fmt.Sprintf("remote: cannot register interface type %s", actor.MsgTypeFor[M]()))
	}
}

// Register registers request type M and its reply type R. R is registered
// as a message too, so an R told to a future PID of this system decodes.
func Register[M, R any](r *Remote) {
	RegisterMsg[M](r)
	registerType[R](r)
}
