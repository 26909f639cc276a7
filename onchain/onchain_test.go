package onchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/ruteri/balancer-helper-registry/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubInitCode deploys a contract whose runtime code is a single STOP.
// Any call to it succeeds.
var stubInitCode = common.FromHex("60016000f3")

// SetupTestChain creates a simulated chain with one funded account.
func SetupTestChain() (*simulated.Backend, *bind.TransactOpts, *ecdsa.PrivateKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, nil, nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(1337))
	if err != nil {
		return nil, nil, nil, err
	}

	balance := new(big.Int)
	balance.SetString("10000000000000000000", 10) // 10 ETH

	genesisAlloc := map[common.Address]types.Account{
		auth.From: {
			Balance: balance,
		},
	}

	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(8000000))
	return backend, auth, privateKey, nil
}

// DeployStub deploys the stub contract and waits for it to be mined.
func DeployStub(backend *simulated.Backend, auth *bind.TransactOpts) (common.Address, error) {
	addr, tx, _, err := bind.DeployContract(auth, abi.ABI{}, stubInitCode, backend.Client())
	if err != nil {
		return common.Address{}, err
	}

	backend.Commit()

	receipt, err := backend.Client().TransactionReceipt(context.Background(), tx.Hash())
	if err != nil {
		return common.Address{}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, fmt.Errorf("contract deployment failed")
	}
	return addr, nil
}

func TestCodeInspector(t *testing.T) {
	backend, auth, _, err := SetupTestChain()
	require.NoError(t, err)
	defer backend.Close()

	stub, err := DeployStub(backend, auth)
	require.NoError(t, err)

	inspector := NewCodeInspector(backend.Client())
	ctx := context.Background()

	hasCode, err := inspector.HasCode(ctx, interfaces.ContractAddress(stub))
	require.NoError(t, err)
	assert.True(t, hasCode)

	hasCode, err = inspector.HasCode(ctx, interfaces.ContractAddress(auth.From))
	require.NoError(t, err)
	assert.False(t, hasCode, "externally owned account has no code")
}

func TestCodeInspector_UpdateVault(t *testing.T) {
	backend, auth, _, err := SetupTestChain()
	require.NoError(t, err)
	defer backend.Close()

	stub, err := DeployStub(backend, auth)
	require.NoError(t, err)

	keeper := interfaces.ContractAddress{0x01}
	safe := interfaces.ContractAddress{0x02}
	reg, err := registry.NewRegistry(keeper, safe, interfaces.ZeroAddress, registry.WithCodeInspector(NewCodeInspector(backend.Client())))
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, reg.UpdateVault(ctx, safe, interfaces.ContractAddress(auth.From)), interfaces.ErrNotAContract)
	require.NoError(t, reg.UpdateVault(ctx, safe, interfaces.ContractAddress(stub)))
	assert.Equal(t, interfaces.ContractAddress(stub), reg.Config().Vault)
}

func TestVaultClient_PausePools(t *testing.T) {
	backend, auth, _, err := SetupTestChain()
	require.NoError(t, err)
	defer backend.Close()

	vault, err := DeployStub(backend, auth)
	require.NoError(t, err)

	client, err := NewVaultClient(backend.Client())
	require.NoError(t, err)

	pools := []interfaces.ContractAddress{{0xa1}, {0xa2}}
	ctx := context.Background()

	_, err = client.PausePools(ctx, interfaces.ContractAddress(vault), pools)
	assert.ErrorIs(t, err, ErrNoTransactOpts)

	client.SetTransactOpts(auth)

	_, err = client.PausePools(ctx, interfaces.ZeroAddress, pools)
	assert.ErrorIs(t, err, interfaces.ErrZeroAddress)

	txs, err := client.PausePools(ctx, interfaces.ContractAddress(vault), pools)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	backend.Commit()

	parsed, err := abi.JSON(strings.NewReader(VaultABI))
	require.NoError(t, err)

	for i, tx := range txs {
		receipt, err := backend.Client().TransactionReceipt(ctx, tx.Hash())
		require.NoError(t, err)
		assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

		require.NotNil(t, tx.To())
		assert.Equal(t, vault, *tx.To())

		expected, err := parsed.Pack("setPoolPaused", common.Address(pools[i]), true)
		require.NoError(t, err)
		assert.Equal(t, expected, tx.Data())
	}
}

func TestVaultRelay(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	vault := interfaces.ContractAddress{0x56}
	pools := []interfaces.ContractAddress{{0xa1}, {0xa2}}

	notifier := &registry.MockVaultNotifier{}
	notifier.On("NotifyPaused", mock.Anything, vault, pools).Return(nil).Once()
	notifier.On("NotifyPaused", mock.Anything, vault, []interfaces.ContractAddress{{0xa3}}).Return(errors.New("reverted")).Once()

	events := make(chan interfaces.Event, 4)
	events <- interfaces.Event{Type: interfaces.EventPoolsAdded, Pools: pools}
	events <- interfaces.Event{Type: interfaces.EventPoolsPaused, Pools: pools}
	events <- interfaces.Event{Type: interfaces.EventPoolsPaused, Pools: pools, Vault: vault}
	events <- interfaces.Event{Type: interfaces.EventPoolsPaused, Pools: []interfaces.ContractAddress{{0xa3}}, Vault: vault}
	close(events)

	relay := NewVaultRelay(notifier, logger, time.Second)

	done := make(chan struct{})
	go func() {
		relay.Run(context.Background(), events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop on closed channel")
	}

	notifier.AssertExpectations(t)
	notifier.AssertNumberOfCalls(t, "NotifyPaused", 2)
}

func TestVaultRelay_StopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	relay := NewVaultRelay(&registry.MockVaultNotifier{}, logger, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx, make(chan interfaces.Event))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop on cancel")
	}
}

func TestNewTransactor(t *testing.T) {
	backend, _, key, err := SetupTestChain()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	opts, err := NewTransactor(ctx, backend.Client(), key, 0)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), opts.From)

	_, err = NewTransactor(ctx, backend.Client(), key, 1337)
	assert.NoError(t, err)

	_, err = NewTransactor(ctx, backend.Client(), key, 1)
	assert.Error(t, err)
}

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	parsed, err := ParsePrivateKey("0x" + hexKey)
	require.NoError(t, err)
	assert.Equal(t, key.D, parsed.D)

	_, err = ParsePrivateKey("zz")
	assert.Error(t, err)
}

func TestLookupNetwork(t *testing.T) {
	n, err := LookupNetwork("sepolia")
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), n.ChainID)

	n, err = LookupNetwork("scroll")
	require.NoError(t, err)
	assert.Equal(t, uint64(534352), n.ChainID)

	_, err = LookupNetwork("mainnet-ish")
	assert.Error(t, err)

	names := NetworkNames()
	assert.Len(t, names, 9)
	assert.Equal(t, "arbitrum", names[0])
}
