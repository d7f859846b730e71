package handlers

import (
	"context"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, actor entities.Actor, owner, destinationAddress string, asset entities.Asset) (entities.Order, error)
	MarkInProgress(ctx context.Context, actor entities.Actor, orderID int64) (entities.Order, error)
	MarkCompleted(ctx context.Context, actor entities.Actor, orderID int64) (entities.Order, error)
	LogOrder(ctx context.Context, actor entities.Actor, orderID int64, owner, destinationAddress string, asset entities.Asset) error
	GetOrder(ctx context.Context, orderID int64) (entities.Order, error)
	ListOrders(ctx context.Context, owner *string, status *entities.OrderStatus) ([]entities.Order, error)
}
