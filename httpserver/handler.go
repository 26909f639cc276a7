package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/balancer-helper-registry/api"
	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// defaultMaxBodySize is the request body limit when none is configured (1MB).
const defaultMaxBodySize = 1024 * 1024

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Handler serves the pool registry API.
type Handler struct {
	registry    interfaces.PoolRegistry
	log         *slog.Logger
	maxBodySize int64
	nonces      *nonceGuard
	now         func() time.Time
}

// NewHandler creates a handler serving registry. A non-positive
// maxBodySize selects the 1MB default.
func NewHandler(registry interfaces.PoolRegistry, log *slog.Logger, maxBodySize int64) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &Handler{
		registry:    registry,
		log:         log,
		maxBodySize: maxBodySize,
		nonces:      newNonceGuard(2*api.MaxClockSkew, defaultNonceLimit),
		now:         time.Now,
	}
}

// Routes returns the API router. Reads are public; mutations go through
// Authenticate.
//
//	GET    /pools/count
//	GET    /pools?from=&to=
//	GET    /pools/{index}
//	GET    /config
//	POST   /pools            {"pools": [...]}
//	DELETE /pools/{index}
//	POST   /pools/delete     {"from": 0, "to": 0}
//	DELETE /pools
//	POST   /keeper           {"address": "0x..."}
//	POST   /safe             {"address": "0x..."}
//	POST   /vault            {"address": "0x..."}
//	POST   /pause            {"from": 0, "to": 0}
//	POST   /pause/all
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/pools/count", h.HandlePoolCount)
	r.Get("/pools", h.HandleGetPools)
	r.Get("/pools/{index}", h.HandleGetPool)
	r.Get("/config", h.HandleConfig)

	r.Group(func(r chi.Router) {
		r.Use(h.Authenticate)

		r.Post("/pools", h.HandleAddPools)
		r.Delete("/pools/{index}", h.HandleDeletePool)
		r.Post("/pools/delete", h.HandleDeletePools)
		r.Delete("/pools", h.HandleDeleteAllPools)

		r.Post("/keeper", h.HandleUpdateKeeper)
		r.Post("/safe", h.HandleUpdateSafe)
		r.Post("/vault", h.HandleUpdateVault)

		r.Post("/pause", h.HandlePause)
		r.Post("/pause/all", h.HandlePauseAll)
	})

	return r
}

func (h *Handler) HandlePoolCount(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.PoolCountResponse{Count: h.registry.PoolsLength()})
}

// HandleGetPools returns pools in [from, to). from defaults to 0 and to
// defaults to the end of the registry.
func (h *Handler) HandleGetPools(w http.ResponseWriter, r *http.Request) {
	from, err := queryUint(r, "from", 0)
	if err != nil {
		h.writeError(w, err)
		return
	}
	to, err := queryUint(r, "to", math.MaxUint64)
	if err != nil {
		h.writeError(w, err)
		return
	}

	pools, err := h.registry.GetPools(from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.PoolsResponse{Pools: pools})
}

func (h *Handler) HandleGetPool(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	pool, err := h.registry.GetPool(index)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pool)
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Config())
}

// HandleAddPools appends the requested pools. A single pool is added with
// AddPool.
func (h *Handler) HandleAddPools(w http.ResponseWriter, r *http.Request) {
	var req api.AddPoolsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.mutate(w, r, func(caller interfaces.ContractAddress) error {
		if len(req.Pools) == 1 {
			return h.registry.AddPool(caller, req.Pools[0])
		}
		return h.registry.AddPools(caller, req.Pools)
	})
}

func (h *Handler) HandleDeletePool(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.mutate(w, r, func(caller interfaces.ContractAddress) error {
		return h.registry.DeletePool(caller, index)
	})
}

func (h *Handler) HandleDeletePools(w http.ResponseWriter, r *http.Request) {
	var req api.RangeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.mutate(w, r, func(caller interfaces.ContractAddress) error {
		return h.registry.DeletePools(caller, req.From, req.To)
	})
}

func (h *Handler) HandleDeleteAllPools(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.registry.DeleteAllPools)
}

func (h *Handler) HandleUpdateKeeper(w http.ResponseWriter, r *http.Request) {
	var req api.AddressRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.mutate(w, r, func(caller interfaces.ContractAddress) error {
		return h.registry.UpdateKeeper(caller, req.Address)
	})
}

func (h *Handler) HandleUpdateSafe(w http.ResponseWriter, r *http.Request) {
	var req api.AddressRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.mutate(w, r, func(caller interfaces.ContractAddress) error {
		return h.registry.UpdateSafe(caller, req.Address)
	})
}

func (h *Handler) HandleUpdateVault(w http.ResponseWriter, r *http.Request) {
	var req api.AddressRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.mutate(w, r, func(caller interfaces.ContractAddress) error {
		return h.registry.UpdateVault(r.Context(), caller, req.Address)
	})
}

func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	var req api.RangeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.mutate(w, r, func(caller interfaces.ContractAddress) error {
		return h.registry.Pause(caller, req.From, req.To)
	})
}

func (h *Handler) HandlePauseAll(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.registry.PauseAll)
}

// mutate runs op as the authenticated caller and writes the outcome.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op func(caller interfaces.ContractAddress) error) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, &RequestError{StatusCode: http.StatusUnauthorized, Err: api.ErrMissingSignature})
		return
	}

	if err := op(caller); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.StatusResponse{Status: "ok", PoolCount: h.registry.PoolsLength()})
}

// StatusForError maps registry errors to HTTP status codes.
func StatusForError(err error) int {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.StatusCode
	case errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrOutOfRange), errors.Is(err, interfaces.ErrEmptyRegistry):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrFromGreaterThanTo),
		errors.Is(err, interfaces.ErrZeroAddress),
		errors.Is(err, interfaces.ErrNotAContract):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
	}

	h.writeJSON(w, status, api.ErrorResponse{
		Error: err.Error(),
		Code:  interfaces.ErrorKind(err),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid request body: %w", err)}
	}
	return nil
}

func pathIndex(r *http.Request) (uint64, error) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		return 0, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid pool index: %w", err)}
	}
	return index, nil
}

func queryUint(r *http.Request, name string, def uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid %s: %w", name, err)}
	}
	return v, nil
}
