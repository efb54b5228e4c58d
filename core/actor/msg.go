package actor

import (
	"reflect"

	"github.com/codewandler/actr-go/core/reflector"
)

// msgTyper lets a message choose the name it is routed by. Without it the
// fully qualified Go type name is used.
type msgTyper interface{ MsgType() string }

func msgTypeFor[T any]() string {
	t := reflect.TypeFor[T]()
	switch t.Kind() {
	case reflect.Interface:
		return reflector.TypeInfoFor[T]().Name
	case reflect.Pointer:
		// never call MsgType on a nil pointer
		return msgTypeOf(reflect.New(t.Elem()).Interface())
	default:
		var z T
		return msgTypeOf(z)
	}
}

func msgTypeOf(x any) string {
	if mt, ok := x.(msgTyper); ok {
		return mt.MsgType()
	}
	return reflector.TypeInfoOf(x).Name
}

// MsgTypeOf returns the routing name of a message value.
func MsgTypeOf(x any) string { return msgTypeOf(x) }

// MsgTypeFor returns the routing name of message type T.
func MsgTypeFor[T any]() string { return msgTypeFor[T]() }
