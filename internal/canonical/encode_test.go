package canonical

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeKeyOrderIndependence(t *testing.T) {
	a := Map(map[string]Value{
		"a": Int(1),
		"b": Seq(Int(2), Int(3)),
	})
	b := Map(map[string]Value{
		"b": Seq(Int(2), Int(3)),
		"a": Int(1),
	})
	require.Equal(t, Encode(a), Encode(b))
}

func TestEncodeIntFloatEquivalence(t *testing.T) {
	require.Equal(t, Encode(Int(1)), Encode(Float(1.0)))
	require.Equal(t, string(Encode(Int(1))), "1")
}

func TestEncodeNonIntegerNumber(t *testing.T) {
	require.Equal(t, "1.5", string(Encode(Float(1.5))))
}

func TestMarshalStructUsesJSONTags(t *testing.T) {
	type inner struct {
		Name string `json:"name"`
	}
	type outer struct {
		B int    `json:"b"`
		A string `json:"a"`
		C inner  `json:"c"`
	}
	got, err := Marshal(outer{B: 2, A: "x", C: inner{Name: "y"}})
	require.NoError(t, err)
	require.Equal(t, `{"a":"x","b":2,"c":{"name":"y"}}`, string(got))
}

func TestMarshalOmitsOmitemptyZeroValues(t *testing.T) {
	type payload struct {
		Keep string `json:"keep"`
		Drop int    `json:"drop,omitempty"`
	}
	got, err := Marshal(payload{Keep: "x"})
	require.NoError(t, err)
	require.Equal(t, `{"keep":"x"}`, string(got))
}

func TestMarshalDetectsCycles(t *testing.T) {
	type node struct {
		Next map[string]any `json:"next"`
	}
	m := map[string]any{}
	n := node{Next: m}
	m["self"] = n
	_, err := Marshal(m)
	require.Error(t, err)
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
}

func TestMarshalRejectsFunctions(t *testing.T) {
	_, err := Marshal(map[string]any{"f": func() {}})
	require.Error(t, err)
}

func TestMarshalOrderPreservedForSequences(t *testing.T) {
	got, err := Marshal([]int{3, 1, 2})
	require.NoError(t, err)
	require.Equal(t, "[3,1,2]", string(got))
}
