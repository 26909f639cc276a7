package onchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

// ChainIDReader returns the chain ID of a backend. *ethclient.Client satisfies it.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// ParsePrivateKey parses a hex secp256k1 key, with or without 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// NewTransactor builds transaction options for key on the backend's chain.
// If expectedChainID is non-zero it must match the backend.
func NewTransactor(ctx context.Context, backend ChainIDReader, key *ecdsa.PrivateKey, expectedChainID uint64) (*bind.TransactOpts, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not query chain id: %w", err)
	}
	if expectedChainID != 0 && chainID.Uint64() != expectedChainID {
		return nil, fmt.Errorf("rpc serves chain %s, expected %d", chainID, expectedChainID)
	}
	return bind.NewKeyedTransactorWithChainID(key, chainID)
}
