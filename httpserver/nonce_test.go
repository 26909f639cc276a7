package httpserver

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceGuard(t *testing.T) {
	alice := interfaces.ContractAddress(common.HexToAddress("0x0000000000000000000000000000000000000a11"))
	bob := interfaces.ContractAddress(common.HexToAddress("0x0000000000000000000000000000000000000b0b"))
	now := time.Unix(1_700_000_000, 0)

	t.Run("pairs are scoped per caller", func(t *testing.T) {
		g := newNonceGuard(time.Minute, 10)
		require.NoError(t, g.use(alice, "n", now))
		require.NoError(t, g.use(bob, "n", now))
		assert.ErrorIs(t, g.use(alice, "n", now.Add(time.Second)), ErrReplayedNonce)
	})

	t.Run("pairs expire after the window", func(t *testing.T) {
		g := newNonceGuard(time.Minute, 10)
		require.NoError(t, g.use(alice, "n", now))
		assert.ErrorIs(t, g.use(alice, "n", now.Add(59*time.Second)), ErrReplayedNonce)
		assert.NoError(t, g.use(alice, "n", now.Add(time.Minute)))
	})

	t.Run("full guard prunes before refusing", func(t *testing.T) {
		g := newNonceGuard(time.Minute, 2)
		require.NoError(t, g.use(alice, "a", now))
		require.NoError(t, g.use(alice, "b", now))
		assert.ErrorIs(t, g.use(alice, "c", now.Add(time.Second)), ErrNonceCacheFull)

		require.NoError(t, g.use(alice, "c", now.Add(2*time.Minute)))
		assert.Equal(t, 1, g.size())
	})
}
