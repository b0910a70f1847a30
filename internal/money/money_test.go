package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{350, "$3.50"},
		{123450, "$1,234.50"},
		{-275, "-$2.75"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.cents), "cents=%d", tt.cents)
	}
}

func TestNew(t *testing.T) {
	f, err := New("EUR")
	require.NoError(t, err)
	assert.Equal(t, "EUR", f.Code())
	assert.Equal(t, "€3.50", f.Format(350))

	_, err = New("XXQ")
	assert.Error(t, err)
}
