package api

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/ruteri/balancer-helper-registry/interfaces"
)

const (
	CallerTimestampHeader = "X-Caller-Timestamp"
	CallerNonceHeader     = "X-Caller-Nonce"
	CallerSignatureHeader = "X-Caller-Signature"

	// MaxNonceLength bounds the nonce header.
	MaxNonceLength = 64

	// MaxClockSkew bounds the difference between the signed timestamp and the server clock.
	MaxClockSkew = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("missing caller signature")
	ErrInvalidSignature = errors.New("invalid caller signature")
	ErrStaleSignature   = errors.New("caller signature timestamp out of range")
)

// SigningHash returns the EIP-191 hash a caller signs for a request.
func SigningHash(method, path, timestamp, nonce string, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+len(timestamp)+len(nonce)+len(body)+4)
	msg = append(msg, method...)
	msg = append(msg, ' ')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = append(msg, timestamp...)
	msg = append(msg, '\n')
	msg = append(msg, nonce...)
	msg = append(msg, '\n')
	msg = append(msg, body...)
	return accounts.TextHash(msg)
}

// SignRequest sets the caller authentication headers on req with a fresh
// random nonce. body must be the exact bytes sent as the request body.
func SignRequest(req *http.Request, body []byte, key *ecdsa.PrivateKey, now time.Time) error {
	timestamp := strconv.FormatInt(now.Unix(), 10)
	nonce := uuid.NewString()

	sig, err := crypto.Sign(SigningHash(req.Method, req.URL.Path, timestamp, nonce, body), key)
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}

	req.Header.Set(CallerTimestampHeader, timestamp)
	req.Header.Set(CallerNonceHeader, nonce)
	req.Header.Set(CallerSignatureHeader, hexutil.Encode(sig))
	return nil
}

// RecoverCaller verifies the authentication headers of req against body
// and returns the signing address.
func RecoverCaller(req *http.Request, body []byte, now time.Time) (interfaces.ContractAddress, error) {
	timestamp := req.Header.Get(CallerTimestampHeader)
	nonce := req.Header.Get(CallerNonceHeader)
	sigHex := req.Header.Get(CallerSignatureHeader)
	if timestamp == "" || nonce == "" || sigHex == "" {
		return interfaces.ContractAddress{}, ErrMissingSignature
	}
	if len(nonce) > MaxNonceLength {
		return interfaces.ContractAddress{}, fmt.Errorf("%w: nonce too long", ErrInvalidSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew > MaxClockSkew || skew < -MaxClockSkew {
		return interfaces.ContractAddress{}, ErrStaleSignature
	}

	sig, err := hexutil.Decode(sigHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return interfaces.ContractAddress{}, fmt.Errorf("%w: malformed signature", ErrInvalidSignature)
	}
	// accept legacy 27/28 recovery ids
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(SigningHash(req.Method, req.URL.Path, timestamp, nonce, body), sig)
	if err != nil {
		return interfaces.ContractAddress{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return interfaces.ContractAddress(crypto.PubkeyToAddress(*pub)), nil
}
