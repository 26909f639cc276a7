package clients

import (
	"context"
	"crypto/ecdsa"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/balancer-helper-registry/httpserver"
	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/ruteri/balancer-helper-registry/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	pool1 = interfaces.ContractAddress(common.HexToAddress("0x0000000000000000000000000000000000000b01"))
	pool2 = interfaces.ContractAddress(common.HexToAddress("0x0000000000000000000000000000000000000b02"))
	pool3 = interfaces.ContractAddress(common.HexToAddress("0x0000000000000000000000000000000000000b03"))
	vault = interfaces.ContractAddress(common.HexToAddress("0x0000000000000000000000000000000000000f01"))
)

type fixture struct {
	reg       *registry.Registry
	inspector *registry.MockCodeInspector
	url       string

	keeper *ecdsa.PrivateKey
	safe   *ecdsa.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	keeper, err := crypto.GenerateKey()
	require.NoError(t, err)
	safe, err := crypto.GenerateKey()
	require.NoError(t, err)

	inspector := new(registry.MockCodeInspector)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg, err := registry.NewRegistry(
		interfaces.ContractAddress(crypto.PubkeyToAddress(keeper.PublicKey)),
		interfaces.ContractAddress(crypto.PubkeyToAddress(safe.PublicKey)),
		interfaces.ZeroAddress,
		registry.WithLogger(logger),
		registry.WithCodeInspector(inspector),
	)
	require.NoError(t, err)

	mux := chi.NewRouter()
	mux.Mount("/api", httpserver.NewHandler(reg, logger, 0).Routes())
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return &fixture{reg: reg, inspector: inspector, url: ts.URL, keeper: keeper, safe: safe}
}

func TestRegistryClient_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keeper := NewRegistryClient(f.url, f.keeper)
	safe := NewRegistryClient(f.url, f.safe)

	require.NoError(t, keeper.AddPools(ctx, []interfaces.ContractAddress{pool1, pool2}))
	require.NoError(t, keeper.AddPool(ctx, pool3))

	count, err := keeper.PoolsLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	pools, err := keeper.GetPools(ctx, 0, count)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.ContractAddress{pool1, pool2, pool3}, interfaces.PoolAddresses(pools))

	require.NoError(t, safe.Pause(ctx, 1, 2))
	entry, err := keeper.GetPool(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, interfaces.PoolEntry{Address: pool2, Paused: true}, entry)

	require.NoError(t, keeper.DeletePool(ctx, 0))
	pools, err = keeper.GetPools(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.ContractAddress{pool3, pool2}, interfaces.PoolAddresses(pools))

	require.NoError(t, safe.PauseAll(ctx))
	require.NoError(t, keeper.DeletePools(ctx, 0, 1))
	require.NoError(t, keeper.DeleteAllPools(ctx))

	count, err = keeper.PoolsLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestRegistryClient_Governance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	safe := NewRegistryClient(f.url, f.safe)

	f.inspector.On("HasCode", mock.Anything, vault).Return(true, nil)
	require.NoError(t, safe.UpdateVault(ctx, vault))

	newKeeper, err := crypto.GenerateKey()
	require.NoError(t, err)
	newKeeperAddr := interfaces.ContractAddress(crypto.PubkeyToAddress(newKeeper.PublicKey))
	require.NoError(t, safe.UpdateKeeper(ctx, newKeeperAddr))

	cfg, err := NewRegistryClient(f.url, nil).Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, newKeeperAddr, cfg.Keeper)
	assert.Equal(t, vault, cfg.Vault)

	require.NoError(t, safe.UpdateSafe(ctx, newKeeperAddr))
	assert.Equal(t, newKeeperAddr, f.reg.Config().Safe)

	// the old safe has handed over governance
	assert.ErrorIs(t, safe.PauseAll(ctx), interfaces.ErrUnauthorized)
}

func TestRegistryClient_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keeper := NewRegistryClient(f.url, f.keeper)

	_, err := keeper.GetPools(ctx, 0, 1)
	assert.ErrorIs(t, err, interfaces.ErrEmptyRegistry)

	require.NoError(t, keeper.AddPool(ctx, pool1))

	_, err = keeper.GetPool(ctx, 5)
	assert.ErrorIs(t, err, interfaces.ErrOutOfRange)

	_, err = keeper.GetPools(ctx, 1, 0)
	assert.ErrorIs(t, err, interfaces.ErrFromGreaterThanTo)

	assert.ErrorIs(t, keeper.Pause(ctx, 0, 1), interfaces.ErrUnauthorized)
	assert.ErrorIs(t, keeper.UpdateSafe(ctx, pool1), interfaces.ErrUnauthorized)
	assert.ErrorIs(t, keeper.DeletePools(ctx, 0, 3), interfaces.ErrOutOfRange)

	stranger, err := crypto.GenerateKey()
	require.NoError(t, err)
	assert.ErrorIs(t, NewRegistryClient(f.url, stranger).DeleteAllPools(ctx), interfaces.ErrUnauthorized)

	assert.ErrorIs(t, NewRegistryClient(f.url, nil).AddPool(ctx, pool2), ErrNoSigningKey)

	assert.Equal(t, uint64(1), f.reg.PoolsLength())
}

func TestRegistryClient_NonRegistryError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewRegistryClient(ts.URL, nil).PoolsLength(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Nil(t, interfaces.ErrorForKind(""))
}
