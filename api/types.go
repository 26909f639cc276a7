package api

import "github.com/ruteri/balancer-helper-registry/interfaces"

// AddPoolsRequest is the body of POST /api/pools.
type AddPoolsRequest struct {
	Pools []interfaces.ContractAddress `json:"pools"`
}

// RangeRequest is the body of POST /api/pools/delete and POST /api/pause.
// The range is [From, To).
type RangeRequest struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// AddressRequest is the body of POST /api/keeper, /api/safe and /api/vault.
type AddressRequest struct {
	Address interfaces.ContractAddress `json:"address"`
}

// PoolCountResponse is returned by GET /api/pools/count.
type PoolCountResponse struct {
	Count uint64 `json:"count"`
}

// PoolsResponse is returned by GET /api/pools.
type PoolsResponse struct {
	Pools []interfaces.PoolEntry `json:"pools"`
}

// StatusResponse is returned by successful mutations and by the health
// endpoints.
type StatusResponse struct {
	Status    string `json:"status"`
	PoolCount uint64 `json:"pool_count"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
