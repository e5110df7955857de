package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytesPerSecond(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"100", 100},
		{"512k", 512 << 10},
		{"10MBps", 10 << 20},
		{"2mb/s", 2 << 20},
		{"1g", 1 << 30},
		{" 3KB ", 3 << 10},
	}
	for _, tt := range tests {
		got, err := parseBytesPerSecond(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "fast", "0", "-5k", "mb"} {
		_, err := parseBytesPerSecond(bad)
		assert.Error(t, err, bad)
	}
}
