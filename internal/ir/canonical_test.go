package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/ir"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"string", "hello", `"hello"`},
		{"integer", 42, `42`},
		{"float", 1.5, `1.5`},
		{"bool", true, `true`},
		{"null", nil, `null`},
		{"empty object", map[string]any{}, `{}`},
		{"empty array", []any{}, `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ir.MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	type inner struct {
		Zeta  int `json:"zeta"`
		Alpha int `json:"alpha"`
	}
	type outer struct {
		Nested inner  `json:"nested"`
		Beta   string `json:"beta"`
	}

	got, err := ir.MarshalCanonical(outer{Nested: inner{Zeta: 1, Alpha: 2}, Beta: "b"})
	require.NoError(t, err)
	assert.Equal(t, `{"beta":"b","nested":{"alpha":2,"zeta":1}}`, string(got))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	got, err := ir.MarshalCanonical(map[string]string{"text": "a < b && c > d"})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"a < b && c > d"}`, string(got))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	a, err := ir.MarshalCanonical(map[string]string{decomposed: decomposed})
	require.NoError(t, err)
	b, err := ir.MarshalCanonical(map[string]string{composed: composed})
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalUnsupported(t *testing.T) {
	_, err := ir.MarshalCanonical(make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canonical: marshal")
}
