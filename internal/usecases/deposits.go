package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rebuslabs/tokenbridge/internal/core/ports"
	"github.com/rebuslabs/tokenbridge/internal/entities"
)

// Transactor runs a function inside one database transaction; any error rolls
// the whole transaction back.
type Transactor interface {
	WithinTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error
}

// DepositsRepository is the storage the deposit intake talks to.
type DepositsRepository interface {
	InsertDeposit(ctx context.Context, d *entities.Deposit) error
	MarkDepositBridged(ctx context.Context, depositID, orderID int64) error
	FindDeposits(ctx context.Context) ([]entities.Deposit, error)
}

// DepositService is the deposit intake: it reacts to inbound custody
// transfers, journals them, and creates an order for those that pass the
// whitelist and carry a bridge memo. The whole intake of one transfer runs in
// a single database transaction; a validation failure rolls everything back,
// rejecting the deposit itself.
type DepositService struct {
	logger     *slog.Logger
	transactor Transactor

	deposits  DepositsRepository
	whitelist ports.WhitelistService
	orders    ports.OrderService
	guard     *Guard
	events    ports.EventPublisher

	// custody account per chain; transfers not addressed to it are ignored
	custody map[string]string
}

func NewDepositService(
	logger *slog.Logger,
	transactor Transactor,
	deposits DepositsRepository,
	whitelist ports.WhitelistService,
	orders ports.OrderService,
	guard *Guard,
	events ports.EventPublisher,
	custody map[string]string,
) *DepositService {
	return &DepositService{
		logger:     logger,
		transactor: transactor,
		deposits:   deposits,
		whitelist:  whitelist,
		orders:     orders,
		guard:      guard,
		events:     events,
		custody:    custody,
	}
}

// HandleTransfer processes one inbound transfer notification. Skip conditions
// (unlisted token, non-bridge memo) are not errors: the deposit is journaled
// as a plain transfer and the call succeeds. Validation failures abort the
// whole call and nothing is journaled.
func (s *DepositService) HandleTransfer(ctx context.Context, event entities.TransferEvent) error {
	custodyAccount := s.custody[event.Chain]

	// Guards against notification echoes from multi-party transfers.
	if event.Sender == custodyAccount || event.Recipient != custodyAccount {
		return nil
	}

	symbol := entities.NormalizeSymbol(event.Asset.Symbol)

	var deposit entities.Deposit
	var order *entities.Order

	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := event.Asset.Validate(); err != nil {
			return err
		}

		deposit = entities.Deposit{
			Chain:     event.Chain,
			TxID:      event.TxID,
			Sender:    event.Sender,
			Recipient: event.Recipient,
			Symbol:    event.Asset.Symbol,
			Precision: event.Asset.Precision,
			Amount:    event.Asset.Amount,
			Memo:      event.Memo,
		}
		if err := s.deposits.InsertDeposit(ctx, &deposit); err != nil {
			return err
		}

		whitelisted, err := s.whitelist.IsWhitelisted(ctx, symbol)
		if err != nil {
			return err
		}
		if !whitelisted {
			s.logger.Info("token not in list, skip bridging", "symbol", symbol, "tx_id", event.TxID)
			return nil
		}

		action, destination := entities.SplitMemo(event.Memo)
		if action != entities.BridgeAction {
			return nil
		}

		placed, err := s.orders.PlaceOrder(ctx, s.guard.Self(), event.Sender, destination, event.Asset)
		if err != nil {
			return err
		}
		order = &placed

		return s.deposits.MarkDepositBridged(ctx, deposit.ID, placed.ID)
	})

	if errors.Is(err, entities.ErrDuplicateKey) {
		// Already journaled: the watcher replayed a transfer we processed.
		s.logger.Info("Deposit already processed", "chain", event.Chain, "tx_id", event.TxID)
		return nil
	}
	if err != nil {
		return err
	}

	if order != nil {
		deposit.Bridged = true
		deposit.OrderID = &order.ID
	}

	// Receipt-visibility signal for the depositing party.
	if s.events != nil {
		s.events.Publish(entities.BridgeEvent{
			ID:        uuid.New().String(),
			Kind:      entities.EventDepositReceived,
			Timestamp: time.Now().Unix(),
			Deposit:   &deposit,
		})
	}

	if order != nil {
		s.logger.Info("Bridging order created from deposit",
			"order_id", order.ID, "owner", order.Owner, "asset", order.Asset().String(), "tx_id", event.TxID)
	}

	return nil
}

func (s *DepositService) ListDeposits(ctx context.Context) ([]entities.Deposit, error) {
	return s.deposits.FindDeposits(ctx)
}
