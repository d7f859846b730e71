package entities

import "strings"

// BridgeAction is the memo action that requests bridging; anything else makes
// the deposit an ordinary, non-bridging transfer.
const BridgeAction = "bridge"

// TransferEvent is a typed "asset received" notification delivered by a chain
// watcher into the deposit intake, inside the same transaction that journals
// the transfer.
type TransferEvent struct {
	Chain     string
	TxID      string
	Sender    string
	Recipient string
	Asset     Asset
	Memo      string
}

// SplitMemo parses a transfer memo as "<action>|<destination>" on the first
// '|'. A memo without '|' yields an empty action, which never matches
// BridgeAction. "bridge|" yields an empty destination, accepted as-is.
func SplitMemo(memo string) (action, destination string) {
	action, destination, found := strings.Cut(memo, "|")
	if !found {
		return "", ""
	}
	return action, destination
}
