package masked

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type login struct {
	User     string
	Password string `actor:"obfuscated"`
	Token    string `actor:"hidden"`
	Attempts int
}

type wrapper struct {
	Login *login
	Tags  []string
	Raw   []byte
}

type custom struct{ secret string }

func (c custom) Masked() string { return "custom" }

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "<nil>"},
		{"int", 42, "42"},
		{"string", "hi", `"hi"`},
		{
			"struct",
			login{User: "ann", Password: "s3cret", Token: "t", Attempts: 2},
			`login{User: "ann", Password: <obfuscated>, Attempts: 2}`,
		},
		{
			"pointer",
			&login{User: "bob"},
			`login{User: "bob", Password: <obfuscated>, Attempts: 0}`,
		},
		{
			"nested",
			wrapper{Login: &login{User: "c"}, Tags: []string{"a", "b"}, Raw: []byte("xyz")},
			`wrapper{Login: login{User: "c", Password: <obfuscated>, Attempts: 0}, Tags: ["a", "b"], Raw: [3 bytes]}`,
		},
		{"nil pointer field", wrapper{}, `wrapper{Login: <nil>, Tags: [], Raw: [0 bytes]}`},
		{"masker", custom{secret: "x"}, "custom"},
		{"map", map[string]int{"b": 2, "a": 1}, "map[a: 1, b: 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestString_never_leaks(t *testing.T) {
	s := String(login{Password: "hunter2", Token: "tok-123"})
	require.NotContains(t, s, "hunter2")
	require.NotContains(t, s, "tok-123")
}
