package workers

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaleFromWei(t *testing.T) {
	four, _ := new(big.Int).SetString("4000000000000000000", 10)
	require.Equal(t, int64(40000), scaleFromWei(four, 4))

	// Dust below the precision truncates away.
	dust, _ := new(big.Int).SetString("4000099999999999999", 10)
	require.Equal(t, int64(40000), scaleFromWei(dust, 4))

	require.Equal(t, int64(0), scaleFromWei(big.NewInt(1), 4))
}

func TestScaleFromLamports(t *testing.T) {
	require.Equal(t, int64(15000), scaleFromLamports(1_500_000_000, 4))
	require.Equal(t, int64(0), scaleFromLamports(99_999, 4))
	require.Equal(t, int64(2_000_000_000), scaleFromLamports(2_000_000_000, 9))
}
