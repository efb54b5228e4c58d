// Package reflector derives stable routing names for Go types and caches
// them, since message dispatch looks a name up for every envelope.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize bounds the cache. Programs rarely route more distinct types
// than this; when they do the cache starts over.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo describes a message type.
type TypeInfo struct {
	// Name is "pkg/path.TypeName" for named types and the Go spelling
	// ("string", "[]int") for predeclared and unnamed ones.
	Name string
	// Type is the reflected type with one pointer level removed.
	Type reflect.Type
}

// TypeInfoOf returns TypeInfo for the dynamic type of x. A nil x yields the
// zero TypeInfo.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeInfoForType returns TypeInfo for t. *T and T share one name so a
// message routes the same whether it is sent by value or by pointer.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = TypeInfo{Name: nameOf(t), Type: t}

	muCache.Lock()
	defer muCache.Unlock()
	if existing, ok := cache[t]; ok {
		return existing
	}
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	return ti
}

func nameOf(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
