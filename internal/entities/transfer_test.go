package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitMemo(t *testing.T) {
	cases := []struct {
		name        string
		memo        string
		action      string
		destination string
	}{
		{"bridge request", "bridge|0xabc123", "bridge", "0xabc123"},
		{"no separator", "just a note", "", ""},
		{"empty memo", "", "", ""},
		{"empty destination", "bridge|", "bridge", ""},
		{"other action", "nobridge|0xabc123", "nobridge", "0xabc123"},
		{"separator in destination", "bridge|addr|extra", "bridge", "addr|extra"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, destination := SplitMemo(tc.memo)
			require.Equal(t, tc.action, action)
			require.Equal(t, tc.destination, destination)
		})
	}
}

func TestOrderStatusRoundTrip(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusNew, OrderStatusInProgress, OrderStatusCompleted} {
		parsed, ok := ParseOrderStatus(status.String())
		require.True(t, ok)
		require.Equal(t, status, parsed)
	}

	_, ok := ParseOrderStatus("cancelled")
	require.False(t, ok)
}
