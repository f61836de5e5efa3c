package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"int", 3, 3},
		{"int64", int64(16), 16},
		{"float64", float64(7), 7},
		{"string", " 42 ", 42},
		{"bad string", "many", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Int(tt.in))
		})
	}
}

func TestFloat(t *testing.T) {
	assert.InDelta(t, 0.8, Float(0.8), 1e-9)
	assert.InDelta(t, 1.0, Float(int64(1)), 1e-9)
	assert.InDelta(t, 0.5, Float("0.5"), 1e-9)
	assert.Zero(t, Float("half"))
	assert.Zero(t, Float(nil))
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(true))
	assert.True(t, Bool("true"))
	assert.False(t, Bool("nope"))
	assert.False(t, Bool(1))
}

func TestString(t *testing.T) {
	assert.Equal(t, "ollama", String("ollama"))
	assert.Equal(t, "32", String(int64(32)))
	assert.Equal(t, "0.8", String(0.8))
	assert.Empty(t, String(nil))
	assert.Empty(t, String([]any{"a"}))
}

func TestStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, StringSlice([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "c"}, StringSlice([]any{"a", 1, "c"}))
	assert.Equal(t, []string{"требования", "тт"}, StringSlice("требования, тт,"))
	assert.Nil(t, StringSlice(""))
	assert.Nil(t, StringSlice(5))
}
