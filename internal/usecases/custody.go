package usecases

import (
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// CustodyService derives the bridge's custody account from a BIP39 seed
// phrase. The EVM watcher watches the derived address for deposits and the
// relayer signs payout transactions with its key.
type CustodyService struct {
	logger *slog.Logger

	masterKey *bip32.Key
	privKey   *ecdsa.PrivateKey
	address   common.Address
}

func NewCustodyService(logger *slog.Logger, seed string) (*CustodyService, error) {
	seedBytes := bip39.NewSeed(seed, "")
	masterKey, err := bip32.NewMasterKey(seedBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to derive master key: %w", err)
	}

	// Child 0 is the custody account.
	childKey, err := masterKey.NewChildKey(0)
	if err != nil {
		return nil, fmt.Errorf("failed to derive custody key: %w", err)
	}

	privKey, err := crypto.ToECDSA(childKey.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to convert custody key: %w", err)
	}

	address := crypto.PubkeyToAddress(privKey.PublicKey)
	logger.Info("Custody account derived", "address", address.Hex())

	return &CustodyService{
		logger:    logger,
		masterKey: masterKey,
		privKey:   privKey,
		address:   address,
	}, nil
}

// EVMAddress returns the custody address in checksummed hex form.
func (cs *CustodyService) EVMAddress() string {
	return cs.address.Hex()
}

// SignTransaction signs an outbound payout transaction with the custody key.
func (cs *CustodyService) SignTransaction(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.NewEIP155Signer(chainID), cs.privKey)
}

// GenerateSeedPhrase creates a fresh mnemonic for provisioning a custody
// account. Valid entropy sizes are 128-256 bits in 32-bit steps.
func (cs *CustodyService) GenerateSeedPhrase(entropyBits int) (string, error) {
	if entropyBits < 128 || entropyBits > 256 || entropyBits%32 != 0 {
		return "", fmt.Errorf("invalid entropy bits: %d", entropyBits)
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", err
	}

	return bip39.NewMnemonic(entropy)
}
