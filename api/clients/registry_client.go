package clients

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ruteri/balancer-helper-registry/api"
	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// ErrNoSigningKey is returned by mutating calls of a client created without a key.
var ErrNoSigningKey = errors.New("client has no signing key")

// RegistryClient talks to the pool registry API.
type RegistryClient struct {
	baseURL    string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
	now        func() time.Time
}

// NewRegistryClient creates a client for the API at baseURL
// (e.g. "http://localhost:8080"). privateKey may be nil for read-only use.
// The optional timeout defaults to 30 seconds.
func NewRegistryClient(baseURL string, privateKey *ecdsa.PrivateKey, timeout ...time.Duration) *RegistryClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &RegistryClient{
		baseURL:    baseURL,
		privateKey: privateKey,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
		now: time.Now,
	}
}

// PoolsLength returns the number of registered pools.
func (c *RegistryClient) PoolsLength(ctx context.Context) (uint64, error) {
	var resp api.PoolCountResponse
	if err := c.get(ctx, "/api/pools/count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// GetPools returns the pools in [from, to), clamped to the registry size.
func (c *RegistryClient) GetPools(ctx context.Context, from, to uint64) ([]interfaces.PoolEntry, error) {
	query := url.Values{}
	query.Set("from", fmt.Sprint(from))
	query.Set("to", fmt.Sprint(to))

	var resp api.PoolsResponse
	if err := c.get(ctx, "/api/pools", query, &resp); err != nil {
		return nil, err
	}
	return resp.Pools, nil
}

// GetPool returns the pool at index.
func (c *RegistryClient) GetPool(ctx context.Context, index uint64) (interfaces.PoolEntry, error) {
	var resp interfaces.PoolEntry
	if err := c.get(ctx, fmt.Sprintf("/api/pools/%d", index), nil, &resp); err != nil {
		return interfaces.PoolEntry{}, err
	}
	return resp, nil
}

// Config returns the keeper, safe and vault.
func (c *RegistryClient) Config(ctx context.Context) (interfaces.RegistryConfig, error) {
	var resp interfaces.RegistryConfig
	if err := c.get(ctx, "/api/config", nil, &resp); err != nil {
		return interfaces.RegistryConfig{}, err
	}
	return resp, nil
}

func (c *RegistryClient) AddPool(ctx context.Context, pool interfaces.ContractAddress) error {
	return c.AddPools(ctx, []interfaces.ContractAddress{pool})
}

func (c *RegistryClient) AddPools(ctx context.Context, pools []interfaces.ContractAddress) error {
	return c.mutate(ctx, http.MethodPost, "/api/pools", api.AddPoolsRequest{Pools: pools})
}

func (c *RegistryClient) DeletePool(ctx context.Context, index uint64) error {
	return c.mutate(ctx, http.MethodDelete, fmt.Sprintf("/api/pools/%d", index), nil)
}

func (c *RegistryClient) DeletePools(ctx context.Context, from, to uint64) error {
	return c.mutate(ctx, http.MethodPost, "/api/pools/delete", api.RangeRequest{From: from, To: to})
}

func (c *RegistryClient) DeleteAllPools(ctx context.Context) error {
	return c.mutate(ctx, http.MethodDelete, "/api/pools", nil)
}

func (c *RegistryClient) UpdateKeeper(ctx context.Context, keeper interfaces.ContractAddress) error {
	return c.mutate(ctx, http.MethodPost, "/api/keeper", api.AddressRequest{Address: keeper})
}

func (c *RegistryClient) UpdateSafe(ctx context.Context, safe interfaces.ContractAddress) error {
	return c.mutate(ctx, http.MethodPost, "/api/safe", api.AddressRequest{Address: safe})
}

func (c *RegistryClient) UpdateVault(ctx context.Context, vault interfaces.ContractAddress) error {
	return c.mutate(ctx, http.MethodPost, "/api/vault", api.AddressRequest{Address: vault})
}

func (c *RegistryClient) Pause(ctx context.Context, from, to uint64) error {
	return c.mutate(ctx, http.MethodPost, "/api/pause", api.RangeRequest{From: from, To: to})
}

func (c *RegistryClient) PauseAll(ctx context.Context) error {
	return c.mutate(ctx, http.MethodPost, "/api/pause/all", nil)
}

func (c *RegistryClient) get(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, out)
}

func (c *RegistryClient) mutate(ctx context.Context, method, path string, body any) error {
	if c.privateKey == nil {
		return ErrNoSigningKey
	}

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	req, err := CreateSignedRequest(ctx, method, c.baseURL+path, raw, c.privateKey, c.now())
	if err != nil {
		return err
	}

	return c.do(req, nil)
}

func (c *RegistryClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response into an error wrapping the matching
// registry sentinel when the server reported one.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with code %d: %s", resp.StatusCode, string(body))
	}

	if sentinel := interfaces.ErrorForKind(errResp.Code); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, errResp.Error)
	}
	return fmt.Errorf("request failed with code %d: %s", resp.StatusCode, errResp.Error)
}

// CreateSignedRequest builds a request carrying the caller signature
// headers for body.
func CreateSignedRequest(ctx context.Context, method, reqURL string, body []byte, privateKey *ecdsa.PrivateKey, now time.Time) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := api.SignRequest(req, body, privateKey, now); err != nil {
		return nil, err
	}
	return req, nil
}
