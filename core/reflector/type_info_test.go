package reflector

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pkg = "github.com/codewandler/actr-go/core/reflector"

type ping struct {
	Seq int
}

type pong struct {
	Seq int
}

type box[T any] struct{ V T }

func TestTypeInfoOf(t *testing.T) {
	ti := TypeInfoOf(ping{Seq: 1})
	require.Equal(t, pkg+".ping", ti.Name)
	require.Equal(t, "ping", ti.Type.Name())
}

func TestTypeInfo_pointer_shares_name(t *testing.T) {
	require.Equal(t, TypeInfoOf(ping{}), TypeInfoOf(&ping{}))
	require.Equal(t, TypeInfoFor[ping](), TypeInfoFor[*ping]())
	require.Equal(t, reflect.Struct, TypeInfoFor[*ping]().Type.Kind())
}

func TestTypeInfoForType(t *testing.T) {
	rt := reflect.TypeFor[pong]()
	ti := TypeInfoForType(rt)
	require.Equal(t, pkg+".pong", ti.Name)
	require.Equal(t, rt, ti.Type)
}

func TestTypeInfo_unnamed_and_predeclared(t *testing.T) {
	assert.Equal(t, "string", TypeInfoOf("x").Name)
	assert.Equal(t, "int", TypeInfoFor[int]().Name)
	assert.Equal(t, "[]int", TypeInfoOf([]int{1}).Name)
	assert.Equal(t, "map[string]int", TypeInfoFor[map[string]int]().Name)
	assert.Equal(t, "struct { A int }", TypeInfoOf(struct{ A int }{}).Name)
}

func TestTypeInfo_generic(t *testing.T) {
	a := TypeInfoFor[box[int]]().Name
	b := TypeInfoFor[box[string]]().Name
	require.NotEqual(t, a, b)
	require.Contains(t, a, pkg+".box[")
}

func TestTypeInfoForType_nil(t *testing.T) {
	require.Equal(t, TypeInfo{}, TypeInfoForType(nil))
	require.Equal(t, TypeInfo{}, TypeInfoOf(nil))
}

func TestTypeInfo_concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = TypeInfoOf(ping{})
				_ = TypeInfoFor[pong]()
				_ = TypeInfoForType(reflect.TypeFor[string]())
			}
		}()
	}
	wg.Wait()
}

func TestTypeInfo_cached(t *testing.T) {
	muCache.Lock()
	cache = make(map[reflect.Type]TypeInfo)
	muCache.Unlock()

	ti := TypeInfoOf(ping{})

	muCache.RLock()
	cached, ok := cache[reflect.TypeFor[ping]()]
	muCache.RUnlock()

	require.True(t, ok)
	require.Equal(t, ti, cached)
}
