package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAsset(t *testing.T) {
	t.Run("fractional amount", func(t *testing.T) {
		asset, err := ParseAsset("4.0000 XYZ")
		require.NoError(t, err)
		require.Equal(t, Asset{Symbol: "XYZ", Precision: 4, Amount: 40000}, asset)
		require.Equal(t, "4.0000 XYZ", asset.String())
	})

	t.Run("whole amount", func(t *testing.T) {
		asset, err := ParseAsset("100 SOL")
		require.NoError(t, err)
		require.Equal(t, Asset{Symbol: "SOL", Precision: 0, Amount: 100}, asset)
		require.Equal(t, "100 SOL", asset.String())
	})

	t.Run("missing symbol", func(t *testing.T) {
		_, err := ParseAsset("4.0000")
		require.ErrorIs(t, err, ErrInvalidAsset)
	})

	t.Run("bad amount", func(t *testing.T) {
		_, err := ParseAsset("four XYZ")
		require.ErrorIs(t, err, ErrInvalidAsset)
	})

	t.Run("precision out of range", func(t *testing.T) {
		_, err := ParseAsset("0.0000000000000000001 XYZ")
		require.ErrorIs(t, err, ErrInvalidAsset)
	})
}

func TestAssetValidate(t *testing.T) {
	valid := Asset{Symbol: "XYZ", Precision: 4, Amount: 40000}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name  string
		asset Asset
	}{
		{"empty symbol", Asset{Symbol: "", Precision: 4, Amount: 1}},
		{"lowercase symbol", Asset{Symbol: "xyz", Precision: 4, Amount: 1}},
		{"symbol too long", Asset{Symbol: "ABCDEFGH", Precision: 4, Amount: 1}},
		{"precision out of range", Asset{Symbol: "XYZ", Precision: 19, Amount: 1}},
		{"zero amount", Asset{Symbol: "XYZ", Precision: 4, Amount: 0}},
		{"negative amount", Asset{Symbol: "XYZ", Precision: 4, Amount: -5}},
		{"amount over maximum", Asset{Symbol: "XYZ", Precision: 4, Amount: MaxAssetAmount + 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.asset.Validate(), ErrInvalidAsset)
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	require.Equal(t, "xyz", NormalizeSymbol("XYZ"))
	require.Equal(t, "xyz", NormalizeSymbol("xyz"))
}

func TestAssetStringNegative(t *testing.T) {
	asset := Asset{Symbol: "XYZ", Precision: 2, Amount: -150}
	require.Equal(t, "-1.50 XYZ", asset.String())
}
