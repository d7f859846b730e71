package workers

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.openly.dev/pointy"

	"github.com/rebuslabs/tokenbridge/config"
	"github.com/rebuslabs/tokenbridge/internal/core/ports"
	"github.com/rebuslabs/tokenbridge/internal/entities"
	"github.com/rebuslabs/tokenbridge/internal/shared"
)

const (
	// ChainSolana is the chain tag journaled with every Solana deposit.
	ChainSolana = "solana"

	solanaNativeDecimals = 9

	// System program transfer instruction index.
	systemTransferInstruction = 2
)

// GetSolanaWebSocketEndpoints returns the WebSocket endpoints to try, the
// configured one first.
func GetSolanaWebSocketEndpoints(cfg *config.Config) []string {
	endpoints := make([]string, 0, 2)
	if cfg.Solana.WSURL != "" {
		endpoints = append(endpoints, cfg.Solana.WSURL)
	}
	if shared.IsChainDebugMode() {
		return append(endpoints, rpc.DevNet_WS)
	}
	return append(endpoints, rpc.MainNetBeta_WS)
}

// GetSolanaHTTPEndpoints returns the HTTP endpoints to try, the configured one
// first.
func GetSolanaHTTPEndpoints(cfg *config.Config) []string {
	endpoints := make([]string, 0, 2)
	if cfg.Solana.RPCURL != "" {
		endpoints = append(endpoints, cfg.Solana.RPCURL)
	}
	if shared.IsChainDebugMode() {
		return append(endpoints, rpc.DevNet_RPC)
	}
	return append(endpoints, rpc.MainNetBeta_RPC)
}

// SolanaWatcher monitors the custody account for inbound native transfers. A
// memo program instruction in the same transaction carries the bridging memo.
type SolanaWatcher struct {
	logger *slog.Logger
	config *config.Config

	intake         ports.DepositIntake
	custodyAccount solana.PublicKey

	mu                sync.Mutex
	lastProcessedSlot uint64
}

func NewSolanaWatcher(
	logger *slog.Logger,
	config *config.Config,
	intake ports.DepositIntake,
	custodyAccount string,
) (*SolanaWatcher, error) {
	account, err := solana.PublicKeyFromBase58(custodyAccount)
	if err != nil {
		return nil, fmt.Errorf("invalid Solana custody account: %w", err)
	}

	networkName := "Mainnet"
	if shared.IsChainDebugMode() {
		networkName = "Devnet"
	}

	logger.Info("Initializing Solana deposit monitoring",
		"network", networkName,
		"custody_account", account.String())

	return &SolanaWatcher{
		logger:         logger,
		config:         config,
		intake:         intake,
		custodyAccount: account,
	}, nil
}

// SubscribeToTransfers monitors incoming transfers via a slot subscription.
func (s *SolanaWatcher) SubscribeToTransfers(ctx context.Context) {
	for {
		s.logger.InfoContext(ctx, "Starting Solana deposit monitoring via WebSocket...")

		if err := s.subscribeViaWebsocket(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Solana WebSocket subscription failed, retrying...",
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

func (s *SolanaWatcher) subscribeViaWebsocket(ctx context.Context) error {
	var wsClient *ws.Client
	var wsEndpoint string
	var err error

	for _, endpoint := range GetSolanaWebSocketEndpoints(s.config) {
		s.logger.InfoContext(ctx, "Trying Solana WebSocket endpoint", "endpoint", endpoint)
		wsClient, err = ws.Connect(ctx, endpoint)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to connect to Solana WebSocket endpoint",
				"endpoint", endpoint, "error", err)
			continue
		}
		wsEndpoint = endpoint
		break
	}

	if wsClient == nil {
		return fmt.Errorf("failed to connect to any Solana WebSocket endpoint")
	}
	defer wsClient.Close()

	httpClient, err := getSolanaHTTPClient(ctx, s.logger, s.config)
	if err != nil {
		return fmt.Errorf("failed to create Solana HTTP client: %w", err)
	}
	defer httpClient.Close()

	currentSlot, err := httpClient.GetSlot(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return fmt.Errorf("failed to get current slot number: %w", err)
	}

	s.mu.Lock()
	s.lastProcessedSlot = currentSlot
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Starting Solana monitoring from slot",
		"slot", currentSlot, "endpoint", wsEndpoint)

	sub, err := wsClient.SlotSubscribe()
	if err != nil {
		return fmt.Errorf("failed to subscribe to new slots: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("Solana WebSocket subscription context cancelled: %w", ctx.Err())
		case err := <-sub.Err():
			return fmt.Errorf("Solana WebSocket subscription error: %w", err)
		default:
		}

		slotInfo, err := sub.Recv(ctx)
		if err != nil {
			return fmt.Errorf("WebSocket Recv error from endpoint %s: %w", wsEndpoint, err)
		}
		if slotInfo == nil {
			continue
		}

		slotNumber := slotInfo.Slot

		s.mu.Lock()
		lastProcessed := s.lastProcessedSlot
		s.mu.Unlock()

		if slotNumber > lastProcessed+1 {
			s.logger.WarnContext(ctx, "Missed Solana slots detected, fetching missing slots",
				"from", lastProcessed+1, "to", slotNumber-1)
			for missedSlot := lastProcessed + 1; missedSlot < slotNumber; missedSlot++ {
				if err := s.processSlot(ctx, httpClient, missedSlot); err != nil {
					s.logger.ErrorContext(ctx, "Failed to process missed Solana slot",
						"slot", missedSlot, "error", err)
				}
			}
		}

		if err := s.processSlot(ctx, httpClient, slotNumber); err != nil {
			s.logger.ErrorContext(ctx, "Failed to process Solana slot",
				"slot", slotNumber, "error", err)
		}

		s.mu.Lock()
		if slotNumber > s.lastProcessedSlot {
			s.lastProcessedSlot = slotNumber
		}
		s.mu.Unlock()
	}
}

func getSolanaHTTPClient(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*rpc.Client, error) {
	var lastErr error

	for _, endpoint := range GetSolanaHTTPEndpoints(cfg) {
		logger.InfoContext(ctx, "Trying to connect to Solana HTTP endpoint", "endpoint", endpoint)
		client := rpc.New(endpoint)
		if _, err := client.GetVersion(ctx); err == nil {
			return client, nil
		} else {
			lastErr = err
			logger.WarnContext(ctx, "Failed to connect to Solana HTTP endpoint",
				"endpoint", endpoint, "error", err)
		}
	}
	return nil, fmt.Errorf("failed to connect to any Solana HTTP endpoint: %w", lastErr)
}

func (s *SolanaWatcher) processSlot(ctx context.Context, rpcClient *rpc.Client, slotNumber uint64) error {
	block, err := rpcClient.GetBlockWithOpts(ctx, slotNumber, &rpc.GetBlockOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: pointy.Uint8(0),
		TransactionDetails:             rpc.TransactionDetailsFull,
		Commitment:                     rpc.CommitmentConfirmed,
		Rewards:                        pointy.Bool(false),
	})
	if err != nil {
		return err
	}

	if block == nil || len(block.Transactions) == 0 {
		return nil
	}

	s.logger.DebugContext(ctx, "Processing Solana slot",
		"slot_number", slotNumber, "tx_count", len(block.Transactions))

	for _, txWithMeta := range block.Transactions {
		if txWithMeta.Transaction == nil {
			continue
		}

		binaryTxData, err := txWithMeta.Transaction.GetBinary()
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to get binary transaction data in slot",
				"slot_number", slotNumber, "error", err)
			continue
		}

		decodedTx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(binaryTxData))
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to decode binary transaction from slot",
				"slot_number", slotNumber, "error", err)
			continue
		}

		if decodedTx == nil || len(decodedTx.Signatures) == 0 {
			continue
		}

		// Failed transactions never reach the intake.
		if txWithMeta.Meta == nil || txWithMeta.Meta.Err != nil {
			continue
		}

		if err := s.processTransaction(ctx, decodedTx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to process Solana transaction",
				"tx_signature", decodedTx.Signatures[0].String(), "slot_number", slotNumber, "error", err)
		}
	}

	return nil
}

// processTransaction scans a confirmed transaction for a system transfer into
// the custody account, picking up the memo instruction alongside it.
func (s *SolanaWatcher) processTransaction(ctx context.Context, decodedTx *solana.Transaction) error {
	message := decodedTx.Message

	var memo string
	var sender, recipient solana.PublicKey
	var lamports uint64
	var found bool

	for _, ix := range message.Instructions {
		programID, err := message.Program(ix.ProgramIDIndex)
		if err != nil {
			continue
		}

		switch {
		case programID.Equals(solana.MemoProgramID):
			memo = string(ix.Data)
		case programID.Equals(solana.SystemProgramID):
			decoder := bin.NewBinDecoder(ix.Data)
			instruction, err := decoder.ReadUint32(bin.LE)
			if err != nil || instruction != systemTransferInstruction {
				continue
			}
			amount, err := decoder.ReadUint64(bin.LE)
			if err != nil || len(ix.Accounts) < 2 {
				continue
			}

			from, err := message.Account(ix.Accounts[0])
			if err != nil {
				continue
			}
			to, err := message.Account(ix.Accounts[1])
			if err != nil {
				continue
			}

			if to.Equals(s.custodyAccount) {
				sender, recipient, lamports = from, to, amount
				found = true
			}
		}
	}

	if !found {
		return nil
	}

	txSignature := decodedTx.Signatures[0].String()
	event := entities.TransferEvent{
		Chain:     ChainSolana,
		TxID:      txSignature,
		Sender:    sender.String(),
		Recipient: recipient.String(),
		Asset: entities.Asset{
			Symbol:    s.config.Solana.Symbol,
			Precision: s.config.Solana.Precision,
			Amount:    scaleFromLamports(lamports, s.config.Solana.Precision),
		},
		Memo: memo,
	}

	s.logger.InfoContext(ctx, "Custody deposit detected",
		"tx_signature", txSignature,
		"from", event.Sender,
		"lamports", lamports)

	return s.intake.HandleTransfer(ctx, event)
}

// scaleFromLamports converts lamports into ledger units at the symbol's
// precision. Dust below the precision truncates away.
func scaleFromLamports(lamports uint64, precision uint8) int64 {
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(solanaNativeDecimals-precision)), nil)
	return new(big.Int).Div(new(big.Int).SetUint64(lamports), divisor).Int64()
}
