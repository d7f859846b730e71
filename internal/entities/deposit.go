package entities

import "time"

// Deposit is the journal record of an inbound custody transfer. Bridged says
// whether intake created an order for it; non-bridging deposits are kept for
// visibility, they are not errors.
type Deposit struct {
	ID        int64     `json:"id" db:"id"`
	Chain     string    `json:"chain" db:"chain"`
	TxID      string    `json:"tx_id" db:"tx_id"`
	Sender    string    `json:"sender" db:"sender"`
	Recipient string    `json:"recipient" db:"recipient"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Precision uint8     `json:"precision" db:"precision"`
	Amount    int64     `json:"amount" db:"amount"`
	Memo      string    `json:"memo" db:"memo"`
	Bridged   bool      `json:"bridged" db:"bridged"`
	OrderID   *int64    `json:"order_id,omitempty" db:"order_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
