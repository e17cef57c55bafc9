package orderid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected Identifier
	}{
		{"#1001", Identifier{Prefix: "#", Value: 1001}},
		{"#A1001", Identifier{Prefix: "#A", Value: 1001}},
		{"1001", Identifier{Prefix: "", Value: 1001}},
		{"SO 42", Identifier{Prefix: "SO ", Value: 42}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, err := ParseIdentifier(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestIdentifier_String(t *testing.T) {
	assert.Equal(t, "#1001", Identifier{Prefix: "#", Value: 1001}.String())
	assert.Equal(t, "7", Identifier{Value: 7}.String())
}

func TestIdentifier_Compare(t *testing.T) {
	a := Identifier{Prefix: "#", Value: 2}
	b := Identifier{Prefix: "#", Value: 10}
	c := Identifier{Prefix: "#A", Value: 1}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, b.Compare(c), "prefix is compared first")
}
