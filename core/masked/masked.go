// Package masked renders values for logs without leaking sensitive fields.
//
// Struct fields tagged `actor:"obfuscated"` are printed as <obfuscated>,
// fields tagged `actor:"hidden"` are left out. Types implementing [Masker]
// render themselves.
package masked

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const (
	TagKey        = "actor"
	TagObfuscated = "obfuscated"
	TagHidden     = "hidden"

	// Obfuscated replaces the value of an obfuscated field.
	Obfuscated = "<obfuscated>"
)

const maxDepth = 8

// Masker is implemented by types that provide their own masked form.
type Masker interface {
	Masked() string
}

var maskerType = reflect.TypeFor[Masker]()

// String renders v with masking applied.
func String(v any) string {
	if v == nil {
		return "<nil>"
	}
	var sb strings.Builder
	write(&sb, reflect.ValueOf(v), 0)
	return sb.String()
}

func write(sb *strings.Builder, v reflect.Value, depth int) {
	if !v.IsValid() {
		sb.WriteString("<nil>")
		return
	}
	if depth > maxDepth {
		sb.WriteString("...")
		return
	}

	if v.CanInterface() && v.Type().Implements(maskerType) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			sb.WriteString("<nil>")
			return
		}
		sb.WriteString(v.Interface().(Masker).Masked())
		return
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			sb.WriteString("<nil>")
			return
		}
		write(sb, v.Elem(), depth+1)

	case reflect.Struct:
		writeStruct(sb, v, depth)

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			fmt.Fprintf(sb, "[%d bytes]", v.Len())
			return
		}
		sb.WriteByte('[')
		for i := range v.Len() {
			if i > 0 {
				sb.WriteString(", ")
			}
			write(sb, v.Index(i), depth+1)
		}
		sb.WriteByte(']')

	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
		})
		sb.WriteString("map[")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprint(sb, k)
			sb.WriteString(": ")
			write(sb, v.MapIndex(k), depth+1)
		}
		sb.WriteByte(']')

	case reflect.String:
		fmt.Fprintf(sb, "%q", v.String())

	default:
		fmt.Fprint(sb, v)
	}
}

func writeStruct(sb *strings.Builder, v reflect.Value, depth int) {
	t := v.Type()
	sb.WriteString(t.Name())
	sb.WriteByte('{')

	first := true
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(TagKey)
		if tag == TagHidden {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false

		sb.WriteString(f.Name)
		sb.WriteString(": ")
		if tag == TagObfuscated {
			sb.WriteString(Obfuscated)
			continue
		}
		write(sb, v.Field(i), depth+1)
	}
	sb.WriteByte('}')
}
