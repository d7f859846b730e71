package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rebuslabs/tokenbridge/internal/core/ports"
	"github.com/rebuslabs/tokenbridge/internal/entities"
)

// OrdersRepository is the storage the order service talks to.
type OrdersRepository interface {
	InsertOrder(ctx context.Context, order *entities.Order) error
	FindOrderByID(ctx context.Context, id int64) (entities.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status entities.OrderStatus, updatedAt int64) (entities.Order, error)
	FindOrders(ctx context.Context, owner *string, status *entities.OrderStatus) ([]entities.Order, error)
}

// OrderService owns the order ledger. Lifecycle transitions only check that
// the order exists; there is no prior-state guard, so re-issuing a transition
// succeeds and bumps updated_at (last write wins).
type OrderService struct {
	logger *slog.Logger
	guard  *Guard
	repo   OrdersRepository
	events ports.EventPublisher

	now func() int64
}

func NewOrderService(logger *slog.Logger, guard *Guard, repo OrdersRepository, events ports.EventPublisher) *OrderService {
	return &OrderService{
		logger: logger,
		guard:  guard,
		repo:   repo,
		events: events,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// PlaceOrder creates a new order with the next available id and status New.
// The whitelist is deliberately not consulted here: this entry point is for
// privileged placement, deposit-triggered placement gates on the whitelist
// before calling in.
func (s *OrderService) PlaceOrder(ctx context.Context, actor entities.Actor, owner, destinationAddress string, asset entities.Asset) (entities.Order, error) {
	if err := s.guard.Authorize(actor); err != nil {
		return entities.Order{}, err
	}

	if err := asset.Validate(); err != nil {
		return entities.Order{}, err
	}

	creationTime := s.now()
	order := entities.Order{
		Owner:              owner,
		Symbol:             asset.Symbol,
		Precision:          asset.Precision,
		Amount:             asset.Amount,
		DestinationAddress: destinationAddress,
		Status:             entities.OrderStatusNew,
		CreatedAt:          creationTime,
		UpdatedAt:          creationTime,
	}

	if err := s.repo.InsertOrder(ctx, &order); err != nil {
		return entities.Order{}, err
	}

	s.publish(entities.EventOrderCreated, &order)
	return order, nil
}

// MarkInProgress sets the order's status to in-progress. Existence is the
// only precondition.
func (s *OrderService) MarkInProgress(ctx context.Context, actor entities.Actor, orderID int64) (entities.Order, error) {
	return s.setStatus(ctx, actor, orderID, entities.OrderStatusInProgress)
}

// MarkCompleted sets the order's status to completed. Existence is the only
// precondition.
func (s *OrderService) MarkCompleted(ctx context.Context, actor entities.Actor, orderID int64) (entities.Order, error) {
	return s.setStatus(ctx, actor, orderID, entities.OrderStatusCompleted)
}

func (s *OrderService) setStatus(ctx context.Context, actor entities.Actor, orderID int64, status entities.OrderStatus) (entities.Order, error) {
	if err := s.guard.Authorize(actor); err != nil {
		return entities.Order{}, err
	}

	order, err := s.repo.UpdateOrderStatus(ctx, orderID, status, s.now())
	if err != nil {
		return entities.Order{}, err
	}

	s.logger.Info("Order status changed", "order_id", order.ID, "status", status.String())
	s.publish(entities.EventOrderStatusChanged, &order)
	return order, nil
}

// LogOrder performs only the authorization check and emits an informational
// record of the supplied order data for off-ledger observers. Nothing is
// written to the ledger.
func (s *OrderService) LogOrder(ctx context.Context, actor entities.Actor, orderID int64, owner, destinationAddress string, asset entities.Asset) error {
	if err := s.guard.Authorize(actor); err != nil {
		return err
	}

	record := entities.Order{
		ID:                 orderID,
		Owner:              owner,
		Symbol:             asset.Symbol,
		Precision:          asset.Precision,
		Amount:             asset.Amount,
		DestinationAddress: destinationAddress,
		Status:             entities.OrderStatusNew,
	}
	s.publish(entities.EventOrderLogged, &record)
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (entities.Order, error) {
	return s.repo.FindOrderByID(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, owner *string, status *entities.OrderStatus) ([]entities.Order, error) {
	return s.repo.FindOrders(ctx, owner, status)
}

func (s *OrderService) publish(kind string, order *entities.Order) {
	if s.events == nil {
		return
	}
	s.events.Publish(entities.BridgeEvent{
		ID:        uuid.New().String(),
		Kind:      kind,
		Timestamp: s.now(),
		Order:     order,
	})
}
