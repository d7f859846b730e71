package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	tx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"

	"github.com/rebuslabs/tokenbridge/internal/entities"
	"github.com/rebuslabs/tokenbridge/pkg/database"
)

// OrdersRepository owns the orders table. Order ids come from a sequence, so
// they are strictly increasing and never reused.
type OrdersRepository struct {
	logger *slog.Logger

	db         tx.DBGetter
	transactor *tx.Transactor
}

func NewOrdersRepository(logger *slog.Logger, pg *database.Postgres) *OrdersRepository {
	return &OrdersRepository{logger: logger, db: pg.DBGetter, transactor: pg.Transactor}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// InsertOrder stores a new order and fills in its assigned id.
func (r *OrdersRepository) InsertOrder(ctx context.Context, order *entities.Order) error {
	query, args, err := psql.Insert("orders").
		Columns("owner", "symbol", "precision", "amount", "destination_address", "status", "created_at", "updated_at").
		Values(order.Owner, order.Symbol, order.Precision, order.Amount, order.DestinationAddress, order.Status, order.CreatedAt, order.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert order query: %w", err)
	}

	if err = r.db(ctx).QueryRow(ctx, query, args...).Scan(&order.ID); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	r.logger.Info("Order stored", "order_id", order.ID, "owner", order.Owner, "status", order.Status.String())
	return nil
}

// FindOrderByID returns entities.ErrNotFound when no order has that id.
func (r *OrdersRepository) FindOrderByID(ctx context.Context, id int64) (entities.Order, error) {
	query, args, err := psql.Select("id", "owner", "symbol", "precision", "amount", "destination_address", "status", "created_at", "updated_at").
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to build select order query: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return entities.Order{}, err
	}

	order, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entities.Order])
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Order{}, fmt.Errorf("order with that id does not exist: %w", entities.ErrNotFound)
	}
	if err != nil {
		return entities.Order{}, err
	}

	return order, nil
}

// UpdateOrderStatus sets the status and bumps updated_at. There is no
// prior-state check; any existing order accepts any target status.
func (r *OrdersRepository) UpdateOrderStatus(ctx context.Context, id int64, status entities.OrderStatus, updatedAt int64) (entities.Order, error) {
	query, args, err := psql.Update("orders").
		Set("status", status).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, owner, symbol, precision, amount, destination_address, status, created_at, updated_at").
		ToSql()
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to build update order query: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return entities.Order{}, err
	}

	order, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[entities.Order])
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Order{}, fmt.Errorf("order with that id does not exist: %w", entities.ErrNotFound)
	}
	if err != nil {
		return entities.Order{}, err
	}

	return order, nil
}

// FindOrders lists orders, optionally narrowed by owner and/or status. Both
// filters ride the table's secondary indexes.
func (r *OrdersRepository) FindOrders(ctx context.Context, owner *string, status *entities.OrderStatus) ([]entities.Order, error) {
	builder := psql.Select("id", "owner", "symbol", "precision", "amount", "destination_address", "status", "created_at", "updated_at").
		From("orders").
		OrderBy("id")

	if owner != nil {
		builder = builder.Where(sq.Eq{"owner": *owner})
	}
	if status != nil {
		builder = builder.Where(sq.Eq{"status": *status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list orders query: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[entities.Order])
	if err != nil {
		r.logger.Error("failed to collect orders rows", "error", err)
		return nil, err
	}

	return orders, nil
}
