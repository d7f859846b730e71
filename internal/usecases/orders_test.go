package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

type fakeOrdersRepo struct {
	nextID int64
	orders map[int64]entities.Order
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{orders: make(map[int64]entities.Order)}
}

func (f *fakeOrdersRepo) InsertOrder(_ context.Context, order *entities.Order) error {
	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = *order
	return nil
}

func (f *fakeOrdersRepo) FindOrderByID(_ context.Context, id int64) (entities.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return entities.Order{}, fmt.Errorf("order with that id does not exist: %w", entities.ErrNotFound)
	}
	return order, nil
}

func (f *fakeOrdersRepo) UpdateOrderStatus(_ context.Context, id int64, status entities.OrderStatus, updatedAt int64) (entities.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return entities.Order{}, fmt.Errorf("order with that id does not exist: %w", entities.ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	f.orders[id] = order
	return order, nil
}

func (f *fakeOrdersRepo) FindOrders(_ context.Context, owner *string, status *entities.OrderStatus) ([]entities.Order, error) {
	var result []entities.Order
	for id := int64(1); id <= f.nextID; id++ {
		order, ok := f.orders[id]
		if !ok {
			continue
		}
		if owner != nil && order.Owner != *owner {
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		result = append(result, order)
	}
	return result, nil
}

type fakePublisher struct {
	events []entities.BridgeEvent
}

func (f *fakePublisher) Publish(event entities.BridgeEvent) {
	f.events = append(f.events, event)
}

func (f *fakePublisher) kinds() []string {
	kinds := make([]string, 0, len(f.events))
	for _, e := range f.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func newTestOrderService(now int64) (*OrderService, *fakeOrdersRepo, *fakePublisher) {
	repo := newFakeOrdersRepo()
	publisher := &fakePublisher{}
	guard := NewGuard(operatorActor.Name, operatorActor.Key)
	service := NewOrderService(slog.Default(), guard, repo, publisher)
	service.now = func() int64 { return now }
	return service, repo, publisher
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	service, _, publisher := newTestOrderService(1700000000)

	asset := entities.Asset{Symbol: "XYZ", Precision: 4, Amount: 40000}

	first, err := service.PlaceOrder(ctx, operatorActor, "alice", "dest-1", asset)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.ID)
	require.Equal(t, entities.OrderStatusNew, first.Status)
	require.Equal(t, first.CreatedAt, first.UpdatedAt)
	require.Equal(t, asset, first.Asset())

	second, err := service.PlaceOrder(ctx, operatorActor, "bob", "dest-2", asset)
	require.NoError(t, err)
	require.Equal(t, int64(2), second.ID)

	require.Equal(t, []string{entities.EventOrderCreated, entities.EventOrderCreated}, publisher.kinds())
}

func TestPlaceOrderRejections(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestOrderService(1700000000)

	asset := entities.Asset{Symbol: "XYZ", Precision: 4, Amount: 40000}

	t.Run("unauthorized actor", func(t *testing.T) {
		_, err := service.PlaceOrder(ctx, strangerActor, "alice", "dest", asset)
		require.ErrorIs(t, err, entities.ErrUnauthorized)
		require.Empty(t, repo.orders)
	})

	t.Run("invalid asset", func(t *testing.T) {
		bad := entities.Asset{Symbol: "XYZ", Precision: 4, Amount: 0}
		_, err := service.PlaceOrder(ctx, operatorActor, "alice", "dest", bad)
		require.ErrorIs(t, err, entities.ErrInvalidAsset)
		require.Empty(t, repo.orders)
	})
}

func TestOrderStatusTransitions(t *testing.T) {
	ctx := context.Background()
	service, _, publisher := newTestOrderService(100)

	asset := entities.Asset{Symbol: "XYZ", Precision: 4, Amount: 40000}
	order, err := service.PlaceOrder(ctx, operatorActor, "alice", "dest", asset)
	require.NoError(t, err)

	service.now = func() int64 { return 200 }
	inProgress, err := service.MarkInProgress(ctx, operatorActor, order.ID)
	require.NoError(t, err)
	require.Equal(t, entities.OrderStatusInProgress, inProgress.Status)
	require.Equal(t, int64(200), inProgress.UpdatedAt)
	require.Equal(t, int64(100), inProgress.CreatedAt)

	service.now = func() int64 { return 300 }
	completed, err := service.MarkCompleted(ctx, operatorActor, order.ID)
	require.NoError(t, err)
	require.Equal(t, entities.OrderStatusCompleted, completed.Status)
	require.Equal(t, int64(300), completed.UpdatedAt)

	// Transitions have no prior-state guard: a completed order can move back
	// to in progress, last write wins.
	service.now = func() int64 { return 400 }
	regressed, err := service.MarkInProgress(ctx, operatorActor, order.ID)
	require.NoError(t, err)
	require.Equal(t, entities.OrderStatusInProgress, regressed.Status)
	require.Equal(t, int64(400), regressed.UpdatedAt)

	require.Equal(t, []string{
		entities.EventOrderCreated,
		entities.EventOrderStatusChanged,
		entities.EventOrderStatusChanged,
		entities.EventOrderStatusChanged,
	}, publisher.kinds())
}

func TestOrderTransitionErrors(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestOrderService(100)

	t.Run("unknown order", func(t *testing.T) {
		_, err := service.MarkInProgress(ctx, operatorActor, 42)
		require.ErrorIs(t, err, entities.ErrNotFound)

		_, err = service.MarkCompleted(ctx, operatorActor, 42)
		require.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("unauthorized actor", func(t *testing.T) {
		_, err := service.MarkInProgress(ctx, strangerActor, 1)
		require.ErrorIs(t, err, entities.ErrUnauthorized)
	})
}

func TestLogOrder(t *testing.T) {
	ctx := context.Background()
	service, repo, publisher := newTestOrderService(100)

	asset := entities.Asset{Symbol: "XYZ", Precision: 4, Amount: 40000}

	err := service.LogOrder(ctx, operatorActor, 7, "alice", "dest", asset)
	require.NoError(t, err)

	// Informational only: nothing lands in the ledger.
	require.Empty(t, repo.orders)
	require.Equal(t, []string{entities.EventOrderLogged}, publisher.kinds())
	require.Equal(t, int64(7), publisher.events[0].Order.ID)

	require.ErrorIs(t, service.LogOrder(ctx, strangerActor, 7, "alice", "dest", asset), entities.ErrUnauthorized)
}

func TestListOrdersFilters(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestOrderService(100)

	asset := entities.Asset{Symbol: "XYZ", Precision: 4, Amount: 40000}

	_, err := service.PlaceOrder(ctx, operatorActor, "alice", "dest-1", asset)
	require.NoError(t, err)
	second, err := service.PlaceOrder(ctx, operatorActor, "bob", "dest-2", asset)
	require.NoError(t, err)
	_, err = service.MarkInProgress(ctx, operatorActor, second.ID)
	require.NoError(t, err)

	all, err := service.ListOrders(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	owner := "alice"
	byOwner, err := service.ListOrders(ctx, &owner, nil)
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	require.Equal(t, "alice", byOwner[0].Owner)

	status := entities.OrderStatusInProgress
	byStatus, err := service.ListOrders(ctx, nil, &status)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.Equal(t, second.ID, byStatus[0].ID)
}
