package entities

// Event kinds published on the bridge event stream. DepositReceived doubles as
// the depositor's receipt; OrderLogged is the informational record emitted by
// the log-order action and carries no table mutation.
const (
	EventDepositReceived    = "deposit_received"
	EventOrderCreated       = "order_created"
	EventOrderLogged        = "order_logged"
	EventOrderStatusChanged = "order_status_changed"
)

// BridgeEvent is the wire form pushed to websocket subscribers.
type BridgeEvent struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Timestamp int64    `json:"timestamp"`
	Order     *Order   `json:"order,omitempty"`
	Deposit   *Deposit `json:"deposit,omitempty"`
}
