package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetReps(t *testing.T) {
	tests := []struct {
		in   string
		want TargetReps
		avg  float64
	}{
		{"10", TargetReps{Kind: RepsCount, Min: 10, Max: 10}, 10},
		{" 8-12 ", TargetReps{Kind: RepsRange, Min: 8, Max: 12}, 10},
		{"8 – 11", TargetReps{Kind: RepsRange, Min: 8, Max: 11}, 9.5},
		{"30s", TargetReps{Kind: RepsDuration, Duration: 30 * time.Second}, 0},
		{"45 sec", TargetReps{Kind: RepsDuration, Duration: 45 * time.Second}, 0},
		{"2 Min", TargetReps{Kind: RepsDuration, Duration: 2 * time.Minute}, 0},
	}
	for _, tt := range tests {
		got, err := ParseTargetReps(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.avg, got.Average(), tt.in)
	}

	for _, bad := range []string{"", "ten", "12-8", "8-", "-3", "30h", "1.5"} {
		_, err := ParseTargetReps(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}
