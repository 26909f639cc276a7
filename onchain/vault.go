package onchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// VaultABI is the subset of the vault interface the registry calls.
const VaultABI = `[{"type":"function","name":"setPoolPaused","stateMutability":"nonpayable","inputs":[{"name":"pool","type":"address"},{"name":"paused","type":"bool"}],"outputs":[]}]`

// ErrNoTransactOpts is returned when a transaction is attempted without first setting transaction options.
var ErrNoTransactOpts = errors.New("no authorized transactor available")

// VaultClient sends pause transactions to a vault contract.
type VaultClient struct {
	abi     abi.ABI
	backend bind.ContractBackend

	mu   sync.Mutex
	auth *bind.TransactOpts
}

func NewVaultClient(backend bind.ContractBackend) (*VaultClient, error) {
	parsed, err := abi.JSON(strings.NewReader(VaultABI))
	if err != nil {
		return nil, err
	}

	return &VaultClient{
		abi:     parsed,
		backend: backend,
	}, nil
}

// SetTransactOpts sets the signer used for pause transactions.
func (c *VaultClient) SetTransactOpts(auth *bind.TransactOpts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
}

// PausePools sends one setPoolPaused(pool, true) transaction per pool and
// returns the transactions sent before the first failure.
func (c *VaultClient) PausePools(ctx context.Context, vault interfaces.ContractAddress, pools []interfaces.ContractAddress) ([]*types.Transaction, error) {
	// Transactions share the nonce sequence of one signer.
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.auth == nil {
		return nil, ErrNoTransactOpts
	}
	if vault.IsZero() {
		return nil, fmt.Errorf("%w: vault", interfaces.ErrZeroAddress)
	}

	contract := bind.NewBoundContract(common.Address(vault), c.abi, c.backend, c.backend, c.backend)

	opts := *c.auth
	opts.Context = ctx

	txs := make([]*types.Transaction, 0, len(pools))
	for _, pool := range pools {
		tx, err := contract.Transact(&opts, "setPoolPaused", common.Address(pool), true)
		if err != nil {
			return txs, fmt.Errorf("setPoolPaused(%s): %w", pool, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// NotifyPaused implements interfaces.VaultNotifier.
func (c *VaultClient) NotifyPaused(ctx context.Context, vault interfaces.ContractAddress, pools []interfaces.ContractAddress) error {
	_, err := c.PausePools(ctx, vault, pools)
	return err
}
