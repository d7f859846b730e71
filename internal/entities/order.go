package entities

// OrderStatus is stored as an ordinal so that the status index stays cheap.
type OrderStatus int16

const (
	OrderStatusNew        OrderStatus = 0
	OrderStatusInProgress OrderStatus = 1
	OrderStatusCompleted  OrderStatus = 2
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return "new"
	case OrderStatusInProgress:
		return "in_progress"
	case OrderStatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ParseOrderStatus maps the textual form back to the ordinal. The bool result
// is false for unknown names.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch s {
	case "new":
		return OrderStatusNew, true
	case "in_progress":
		return OrderStatusInProgress, true
	case "completed":
		return OrderStatusCompleted, true
	default:
		return 0, false
	}
}

// Order is a single bridging request: funds held in custody waiting for the
// relayer to deliver them to DestinationAddress on the destination ledger.
type Order struct {
	ID                 int64       `json:"id" db:"id"`
	Owner              string      `json:"owner" db:"owner"`
	Symbol             string      `json:"symbol" db:"symbol"`
	Precision          uint8       `json:"precision" db:"precision"`
	Amount             int64       `json:"amount" db:"amount"`
	DestinationAddress string      `json:"destination_address" db:"destination_address"`
	Status             OrderStatus `json:"status" db:"status"`
	CreatedAt          int64       `json:"created_at" db:"created_at"`
	UpdatedAt          int64       `json:"updated_at" db:"updated_at"`
}

// Asset returns the bridged value as a triple.
func (o Order) Asset() Asset {
	return Asset{Symbol: o.Symbol, Precision: o.Precision, Amount: o.Amount}
}
