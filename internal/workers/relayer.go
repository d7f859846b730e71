package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/rebuslabs/tokenbridge/internal/core/ports"
	"github.com/rebuslabs/tokenbridge/internal/entities"
)

// Relayer drains the order ledger: it picks up orders in status New, marks
// them in progress, performs the payout through the deliverer and marks them
// completed. A failed payout leaves the order in progress for the next pass of
// an operator or a restarted relayer.
type Relayer struct {
	logger *slog.Logger

	orders    ports.OrderService
	deliverer ports.Deliverer
	actor     entities.Actor

	pollInterval time.Duration
}

func NewRelayer(
	logger *slog.Logger,
	orders ports.OrderService,
	deliverer ports.Deliverer,
	actor entities.Actor,
	pollInterval time.Duration,
) *Relayer {
	return &Relayer{
		logger:       logger,
		orders:       orders,
		deliverer:    deliverer,
		actor:        actor,
		pollInterval: pollInterval,
	}
}

// Start begins the periodic processing of new orders.
func (r *Relayer) Start(ctx context.Context) {
	r.logger.Info("Starting relayer worker", "poll_interval", r.pollInterval.String())

	if err := r.processNewOrders(ctx); err != nil {
		r.logger.Error("Initial order processing failed", "error", err)
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Relayer worker stopped")
			return
		case <-ticker.C:
			if err := r.processNewOrders(ctx); err != nil {
				r.logger.Error("Order processing failed", "error", err)
			}
		}
	}
}

func (r *Relayer) processNewOrders(ctx context.Context) error {
	status := entities.OrderStatusNew
	orders, err := r.orders.ListOrders(ctx, nil, &status)
	if err != nil {
		return err
	}

	for _, order := range orders {
		if _, err = r.orders.MarkInProgress(ctx, r.actor, order.ID); err != nil {
			r.logger.Error("Failed to mark order in progress", "order_id", order.ID, "error", err)
			continue
		}

		txHash, err := r.deliverer.Deliver(ctx, order)
		if err != nil {
			r.logger.Error("Payout failed, order stays in progress",
				"order_id", order.ID, "destination", order.DestinationAddress, "error", err)
			continue
		}

		if _, err = r.orders.MarkCompleted(ctx, r.actor, order.ID); err != nil {
			r.logger.Error("Failed to mark order completed",
				"order_id", order.ID, "tx_hash", txHash, "error", err)
			continue
		}

		r.logger.Info("Order bridged",
			"order_id", order.ID,
			"owner", order.Owner,
			"asset", order.Asset().String(),
			"tx_hash", txHash)
	}

	return nil
}
