package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/rebuslabs/tokenbridge/internal/entities"
)

// onChainDecimals is the decimal count of the wrapped token contract.
const onChainDecimals = 18

// Define the ERC-20 transfer method signature.
var (
	transferSig = []byte{0xa9, 0x05, 0x9c, 0xbb} // keccak256("transfer(address,uint256)")[0:4]
)

// EVMDeliverer pays out bridging orders by sending the wrapped token from the
// custody account to the order's destination address.
type EVMDeliverer struct {
	logger *slog.Logger

	rpcURL        string
	tokenContract common.Address
	custody       *CustodyService
}

func NewEVMDeliverer(logger *slog.Logger, rpcURL, tokenContract string, custody *CustodyService) *EVMDeliverer {
	return &EVMDeliverer{
		logger:        logger,
		rpcURL:        rpcURL,
		tokenContract: common.HexToAddress(tokenContract),
		custody:       custody,
	}
}

// Deliver sends the order's amount to its destination address and returns the
// transaction hash.
func (d *EVMDeliverer) Deliver(ctx context.Context, order entities.Order) (string, error) {
	if !common.IsHexAddress(order.DestinationAddress) {
		return "", fmt.Errorf("destination %q is not a valid address", order.DestinationAddress)
	}
	toAddress := common.HexToAddress(order.DestinationAddress)

	client, err := ethclient.DialContext(ctx, d.rpcURL)
	if err != nil {
		return "", fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}
	defer client.Close()

	nonce, err := client.PendingNonceAt(ctx, d.custody.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	amount := scaleToChain(order.Amount, order.Precision)
	data := erc20TransferData(toAddress, amount)

	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  d.custody.address,
		To:    &d.tokenContract,
		Value: big.NewInt(0),
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}

	// 20% buffer on the gas limit.
	gasLimit = gasLimit * 12 / 10

	tx := types.NewTransaction(nonce, d.tokenContract, big.NewInt(0), gasLimit, gasPrice, data)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get chain ID: %w", err)
	}

	signedTx, err := d.custody.SignTransaction(tx, chainID)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err = client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	txHash := signedTx.Hash().Hex()
	d.logger.Info("Payout transaction sent",
		"order_id", order.ID,
		"to", toAddress.Hex(),
		"amount", amount.String(),
		"tx_hash", txHash)

	return txHash, nil
}

func erc20TransferData(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, transferSig...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

// scaleToChain converts a ledger amount in symbol precision to the token's
// on-chain decimals.
func scaleToChain(amount int64, precision uint8) *big.Int {
	scaled := big.NewInt(amount)
	if precision < onChainDecimals {
		exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(onChainDecimals-precision)), nil)
		scaled.Mul(scaled, exp)
	}
	return scaled
}
