package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeAdd(t *testing.T) {
	got, err := SafeAdd(10, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(30), got)

	_, err = SafeAdd(math.MaxUint64, 1)
	require.Error(t, err)
}

func TestSafeMultiply(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr bool
	}{
		{"normal", 10, 20, 200, false},
		{"zero", 0, 100, 0, false},
		{"overflow", math.MaxUint64, 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeMultiply(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidateBufferSize(t *testing.T) {
	require.NoError(t, ValidateBufferSize(100, 200, "block"))
	require.NoError(t, ValidateBufferSize(200, 200, "block"))
	require.Error(t, ValidateBufferSize(201, 200, "block"))
}
