package api

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	expected := interfaces.ContractAddress(crypto.PubkeyToAddress(key.PublicKey))

	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"from":0,"to":4}`)

	req := httptest.NewRequest("POST", "http://registry/api/pause", bytes.NewReader(body))
	require.NoError(t, SignRequest(req, body, key, now))

	caller, err := RecoverCaller(req, body, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, expected, caller)

	// a different body recovers a different identity
	other, err := RecoverCaller(req, []byte(`{"from":0,"to":5}`), now)
	require.NoError(t, err)
	assert.NotEqual(t, expected, other)

	// the signature binds the method and path
	req.Method = "DELETE"
	other, err = RecoverCaller(req, body, now)
	require.NoError(t, err)
	assert.NotEqual(t, expected, other)
}

func TestRecoverCaller_Errors(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)

	unsigned := httptest.NewRequest("DELETE", "/api/pools", nil)
	_, err = RecoverCaller(unsigned, nil, now)
	assert.ErrorIs(t, err, ErrMissingSignature)

	stale := httptest.NewRequest("DELETE", "/api/pools", nil)
	require.NoError(t, SignRequest(stale, nil, key, now.Add(-10*time.Minute)))
	_, err = RecoverCaller(stale, nil, now)
	assert.ErrorIs(t, err, ErrStaleSignature)

	future := httptest.NewRequest("DELETE", "/api/pools", nil)
	require.NoError(t, SignRequest(future, nil, key, now.Add(10*time.Minute)))
	_, err = RecoverCaller(future, nil, now)
	assert.ErrorIs(t, err, ErrStaleSignature)

	malformed := httptest.NewRequest("DELETE", "/api/pools", nil)
	malformed.Header.Set(CallerTimestampHeader, "1700000000")
	malformed.Header.Set(CallerNonceHeader, "n1")
	malformed.Header.Set(CallerSignatureHeader, "0x1234")
	_, err = RecoverCaller(malformed, nil, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	badTimestamp := httptest.NewRequest("DELETE", "/api/pools", nil)
	badTimestamp.Header.Set(CallerTimestampHeader, "yesterday")
	badTimestamp.Header.Set(CallerNonceHeader, "n2")
	badTimestamp.Header.Set(CallerSignatureHeader, "0x00")
	_, err = RecoverCaller(badTimestamp, nil, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestRecoverCaller_LegacyRecoveryID(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)

	req := httptest.NewRequest("POST", "/api/pause/all", nil)
	require.NoError(t, SignRequest(req, nil, key, now))

	sig, err := hexutil.Decode(req.Header.Get(CallerSignatureHeader))
	require.NoError(t, err)
	sig[64] += 27
	req.Header.Set(CallerSignatureHeader, hexutil.Encode(sig))

	caller, err := RecoverCaller(req, nil, now)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ContractAddress(crypto.PubkeyToAddress(key.PublicKey)), caller)
}

func TestRecoverCaller_Nonce(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	expected := interfaces.ContractAddress(crypto.PubkeyToAddress(key.PublicKey))
	now := time.Unix(1_700_000_000, 0)

	first := httptest.NewRequest("DELETE", "/api/pools/0", nil)
	require.NoError(t, SignRequest(first, nil, key, now))
	second := httptest.NewRequest("DELETE", "/api/pools/0", nil)
	require.NoError(t, SignRequest(second, nil, key, now))

	// identical requests signed twice carry different nonces
	assert.NotEmpty(t, first.Header.Get(CallerNonceHeader))
	assert.NotEqual(t, first.Header.Get(CallerNonceHeader), second.Header.Get(CallerNonceHeader))

	// the nonce is covered by the signature
	first.Header.Set(CallerNonceHeader, second.Header.Get(CallerNonceHeader))
	caller, err := RecoverCaller(first, nil, now)
	require.NoError(t, err)
	assert.NotEqual(t, expected, caller)

	second.Header.Del(CallerNonceHeader)
	_, err = RecoverCaller(second, nil, now)
	assert.ErrorIs(t, err, ErrMissingSignature)

	second.Header.Set(CallerNonceHeader, strings.Repeat("a", MaxNonceLength+1))
	_, err = RecoverCaller(second, nil, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
