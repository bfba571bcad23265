package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"exact", 250.00, 250.00},
		{"round up", 166.666, 166.67},
		{"round down", 166.664, 166.66},
		{"half rounds away", 0.125, 0.13},
		{"negative", -166.666, -166.67},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Round2(tt.input), 1e-9)
		})
	}
}

func TestRoundWhole(t *testing.T) {
	assert.Equal(t, 5800.0, RoundWhole(5800.0))
	assert.Equal(t, 5800.0, RoundWhole(5800.49))
	assert.Equal(t, 5801.0, RoundWhole(5800.5))
	assert.Equal(t, 5700.0, RoundWhole(5700.00))
	assert.Equal(t, -50.0, RoundWhole(-50.4))
}

func TestCovers(t *testing.T) {
	assert.True(t, Covers(5800, 5800))
	assert.True(t, Covers(5799.996, 5800), "within half-cent tolerance")
	assert.False(t, Covers(5799.99, 5800))
	assert.False(t, Covers(3000, 5800))
	assert.True(t, Covers(6000, 5800), "overpayment covers")
}
