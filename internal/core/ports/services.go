package ports

import (
	"context"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

// WhitelistService manages the set of symbols eligible for bridging.
type WhitelistService interface {
	AddToken(ctx context.Context, actor entities.Actor, symbol string) (entities.WhitelistEntry, error)
	RemoveToken(ctx context.Context, actor entities.Actor, symbol string) error
	ListTokens(ctx context.Context) ([]entities.WhitelistEntry, error)
	IsWhitelisted(ctx context.Context, symbol string) (bool, error)
}

// OrderService owns the order ledger and its lifecycle transitions.
type OrderService interface {
	PlaceOrder(ctx context.Context, actor entities.Actor, owner, destinationAddress string, asset entities.Asset) (entities.Order, error)
	MarkInProgress(ctx context.Context, actor entities.Actor, orderID int64) (entities.Order, error)
	MarkCompleted(ctx context.Context, actor entities.Actor, orderID int64) (entities.Order, error)
	LogOrder(ctx context.Context, actor entities.Actor, orderID int64, owner, destinationAddress string, asset entities.Asset) error
	GetOrder(ctx context.Context, orderID int64) (entities.Order, error)
	ListOrders(ctx context.Context, owner *string, status *entities.OrderStatus) ([]entities.Order, error)
}

// DepositIntake receives typed "asset received" notifications from the chain
// watchers and turns qualifying ones into orders.
type DepositIntake interface {
	HandleTransfer(ctx context.Context, event entities.TransferEvent) error
	ListDeposits(ctx context.Context) ([]entities.Deposit, error)
}

// EventPublisher pushes informational records to off-ledger observers. A
// publish is fire-and-forget; it never affects the outcome of the call that
// produced the event.
type EventPublisher interface {
	Publish(event entities.BridgeEvent)
}

// Deliverer performs the off-ledger side of a bridging order and returns the
// destination transaction id.
type Deliverer interface {
	Deliver(ctx context.Context, order entities.Order) (string, error)
}
