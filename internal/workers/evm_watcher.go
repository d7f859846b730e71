package workers

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/rebuslabs/tokenbridge/config"
	"github.com/rebuslabs/tokenbridge/internal/core/ports"
	"github.com/rebuslabs/tokenbridge/internal/entities"
)

const (
	// ChainEVM is the chain tag journaled with every EVM deposit.
	ChainEVM = "evm"

	evmNativeDecimals = 18

	blockPollInterval         = 5 * time.Second
	confirmationCheckInterval = 30 * time.Second
)

// EVMWatcher monitors the custody address for inbound native transfers. The
// transfer's calldata doubles as the memo: depositors attach
// "bridge|<destination>" as UTF-8 bytes to request bridging.
type EVMWatcher struct {
	logger *slog.Logger
	config *config.Config

	intake         ports.DepositIntake
	custodyAddress common.Address

	confirmationSemaphore chan struct{}
}

func NewEVMWatcher(
	logger *slog.Logger,
	config *config.Config,
	intake ports.DepositIntake,
	custodyAddress string,
) *EVMWatcher {
	return &EVMWatcher{
		logger:                logger,
		config:                config,
		intake:                intake,
		custodyAddress:        common.HexToAddress(custodyAddress),
		confirmationSemaphore: make(chan struct{}, ports.MaxConcurrentChecks),
	}
}

// SubscribeToTransfers monitors incoming transfers via Web3. The watcher polls
// for new blocks and feeds qualifying transactions into the deposit intake.
func (w *EVMWatcher) SubscribeToTransfers(ctx context.Context, rpcURL string) {
	for {
		w.logger.InfoContext(ctx, "Starting EVM deposit monitoring...", "rpc_url", rpcURL)

		if err := w.pollAndProcess(ctx, rpcURL); err != nil {
			w.logger.InfoContext(ctx, "EVM deposit monitoring error, retrying...",
				"delay", ports.BlockchainSubscriptionRetryDelay, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(ports.BlockchainSubscriptionRetryDelay):
				continue
			}
		}

		return
	}
}

func (w *EVMWatcher) pollAndProcess(ctx context.Context, rpcURL string) error {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}
	defer client.Close()

	pollTicker := time.NewTicker(blockPollInterval)
	defer pollTicker.Stop()

	currentBlock, err := client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current block number: %w", err)
	}

	lastProcessedBlock := currentBlock
	w.logger.InfoContext(ctx, "Starting EVM deposit monitoring from block",
		"block", currentBlock, "custody", w.custodyAddress.Hex())

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("pollAndProcess done with %w", ctx.Err())
		case <-pollTicker.C:
			latestBlock, e := client.BlockNumber(ctx)
			if e != nil {
				w.logger.ErrorContext(ctx, "Failed to get latest block number", "error", e)
				continue
			}

			if latestBlock > lastProcessedBlock {
				for blockNum := lastProcessedBlock + 1; blockNum <= latestBlock; blockNum++ {
					block, err := client.BlockByNumber(ctx, big.NewInt(int64(blockNum)))
					if err != nil {
						w.logger.ErrorContext(ctx, "Failed to get block", "block", blockNum, "error", err)
						continue
					}

					w.processBlock(ctx, client, block)
				}

				lastProcessedBlock = latestBlock
			}
		}
	}
}

func (w *EVMWatcher) processBlock(ctx context.Context, client *ethclient.Client, block *types.Block) {
	blockNumber := block.NumberU64()

	w.logger.DebugContext(ctx, "Processing new block",
		"block_number", blockNumber,
		"block_hash", block.Hash().Hex(),
		"tx_count", len(block.Transactions()))

	for i, tx := range block.Transactions() {
		if tx.To() == nil || *tx.To() != w.custodyAddress || tx.Value().Sign() <= 0 {
			continue
		}

		txHash := tx.Hash().Hex()

		sender, err := client.TransactionSender(ctx, tx, block.Hash(), uint(i))
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to get transaction sender",
				"error", err, "tx_hash", txHash)
			continue
		}

		// Calldata attached to a plain value transfer carries the memo.
		var memo string
		if data := tx.Data(); utf8.Valid(data) {
			memo = string(data)
		}

		event := entities.TransferEvent{
			Chain:     ChainEVM,
			TxID:      txHash,
			Sender:    sender.Hex(),
			Recipient: w.custodyAddress.Hex(),
			Asset: entities.Asset{
				Symbol:    w.config.EVM.Symbol,
				Precision: w.config.EVM.Precision,
				Amount:    scaleFromWei(tx.Value(), w.config.EVM.Precision),
			},
			Memo: memo,
		}

		w.logger.InfoContext(ctx, "Custody deposit detected",
			"tx_hash", txHash,
			"from", event.Sender,
			"amount_wei", tx.Value().String(),
			"block_number", blockNumber)

		go w.waitConfirmationsAndIntake(ctx, client, event, blockNumber)
	}
}

// waitConfirmationsAndIntake holds the transfer back until it has enough
// confirmations, then hands it to the deposit intake.
func (w *EVMWatcher) waitConfirmationsAndIntake(
	ctx context.Context,
	client *ethclient.Client,
	event entities.TransferEvent,
	blockNumber uint64,
) {
	select {
	case w.confirmationSemaphore <- struct{}{}:
		defer func() { <-w.confirmationSemaphore }()
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(confirmationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Confirmation check cancelled",
				"tx_id", event.TxID, "reason", ctx.Err().Error())
			return
		case <-ticker.C:
			currentBlock, err := client.BlockNumber(ctx)
			if err != nil {
				w.logger.ErrorContext(ctx, "Failed to get current block number",
					"error", err, "tx_id", event.TxID)
				continue
			}

			confirmations := currentBlock - blockNumber
			if confirmations < w.config.EVM.RequiredConfirmations {
				w.logger.DebugContext(ctx, "Waiting for confirmations",
					"tx_id", event.TxID,
					"current", confirmations,
					"required", w.config.EVM.RequiredConfirmations)
				continue
			}

			if err = w.intake.HandleTransfer(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "Deposit intake rejected transfer",
					"error", err, "tx_id", event.TxID)
			}
			return
		}
	}
}

// scaleFromWei converts a native wei value into ledger units at the symbol's
// precision. Dust below the precision truncates away.
func scaleFromWei(wei *big.Int, precision uint8) int64 {
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(evmNativeDecimals-precision)), nil)
	return new(big.Int).Div(wei, divisor).Int64()
}
